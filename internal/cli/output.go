// Package cli provides output formatting for the DocuMind CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch name {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", name)
	}
}

// WriteQueryResponse writes a query response to w in the given format.
func WriteQueryResponse(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	writeQueryResponseText(w, resp)
	return nil
}

func writeQueryResponseText(w io.Writer, resp *models.QueryResponse) {
	cachedNote := ""
	if resp.Cached {
		cachedNote = " (cached)"
	}
	fmt.Fprintf(w, "\n%d source(s) in %dms%s\n\n", resp.NumSources, resp.QueryTime, cachedNote)
	if resp.Answer != "" {
		fmt.Fprintf(w, "%s\n\n", resp.Answer)
	}
	for i, src := range resp.Sources {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] Score: %.4f | ID: %s\n", i+1, src.Score, src.ID)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(src.Snippet, 200))
	}
}

// WriteIngestResult writes an ingest result to w in the given format.
func WriteIngestResult(w io.Writer, result *models.IngestResult, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintf(w, "Document %s ingested: %d chunk(s)\n", result.DocumentID, result.ChunksProcessed)
	return nil
}
