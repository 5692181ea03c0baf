package models

// Source is a single retrieved chunk reference returned to callers.
type Source struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// QueryResponse is the response for a query request. Answer is produced by
// the external answer generator and is empty when no generator is configured.
type QueryResponse struct {
	Query      string   `json:"query"`
	Answer     string   `json:"answer,omitempty"`
	Context    string   `json:"context"`
	Sources []Source `json:"sources"`
	// NumSources counts the chunks included in Context; Sources lists every
	// retrieved chunk, including those the context budget cut off.
	NumSources int   `json:"num_sources"`
	QueryTime  int64 `json:"query_time_ms"`
	// Cached indicates the full result was served from the query cache
	// without embedding or search work.
	Cached bool `json:"cached,omitempty"`
}
