// Package main is the DocuMind CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/documind/documind/internal/answer"
	"github.com/documind/documind/internal/app"
	"github.com/documind/documind/internal/cache"
	"github.com/documind/documind/internal/chunker"
	"github.com/documind/documind/internal/cli"
	"github.com/documind/documind/internal/config"
	"github.com/documind/documind/internal/embedding"
	"github.com/documind/documind/internal/extract"
	"github.com/documind/documind/internal/fileid"
	"github.com/documind/documind/internal/ingest"
	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/internal/retrieve"
	"github.com/documind/documind/internal/server"
	"github.com/documind/documind/internal/storage"
	"github.com/documind/documind/internal/upload"
	"github.com/documind/documind/internal/vectorindex"
	"github.com/documind/documind/internal/watcher"
	"github.com/documind/documind/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/documind/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence, so running from the project dir
// uses the project's config. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "delete":
		runDelete()
	case "cache":
		runCache()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("documind version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: documind <command> [flags]

Commands:
  server    Start the HTTP API server (with directory watching)
  ingest    Ingest a file or directory into the index
  query     Ask a question over the ingested documents
  delete    Delete a document by ID
  cache     Cache maintenance: stats, clear-expired
  status    Show document, chunk, index, and cache counts
  version   Print version

Run "documind <command> -h" for command flags.`)
}

// components holds the wired pipeline shared by the subcommands.
type components struct {
	Storage  *storage.SQLiteStorage
	Cache    *cache.Manager
	Embedder embedding.Embedder
	Index    *vectorindex.Index
	App      *app.App

	indexPath string
	logger    *zap.Logger
}

// Close releases resources and persists the vector index.
func (c *components) Close() {
	if c.indexPath != "" {
		if err := c.Index.Save(c.indexPath); err != nil {
			c.logger.Warn("vector index save failed", zap.String("path", c.indexPath), zap.Error(err))
		}
	}
	_ = c.Embedder.Close()
	_ = c.Storage.Close()
}

// initializeComponents builds the full pipeline from config. The vector
// index is loaded from disk when a previous run saved it.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	cacheMgr, err := cache.NewManager(cfg.Storage.CacheDir, time.Duration(cfg.Cache.TTL))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("initialize cache: %w", err)
	}

	var embedder embedding.Embedder
	var generator answer.Generator
	if cfg.Embedding.Mock {
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
		generator = answer.NewMockGenerator()
	} else {
		apiKey := cfg.Embedding.APIKey()
		if apiKey == "" {
			_ = st.Close()
			return nil, fmt.Errorf("embedding API key not set; export %s or set embedding.mock", cfg.Embedding.APIKeyEnv)
		}
		embedder, err = embedding.NewOpenAIEmbedder(apiKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("initialize embedder: %w", err)
		}
		generator, err = answer.NewOpenAIGenerator(apiKey, cfg.Embedding.BaseURL, cfg.Embedding.ChatModel)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("initialize generator: %w", err)
		}
	}

	index, err := vectorindex.New(cfg.Embedding.Dimensions)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("initialize vector index: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if err := index.Load(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index load failed, starting empty",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}

	ch := chunker.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	strategy := chunker.ParseStrategy(cfg.Chunking.Strategy)
	extractor := extract.NewExtractor()

	ing := ingest.NewIngestor(st, embedder, index, cacheMgr, ch, strategy, extractor, logger)
	proc := retrieve.NewProcessor(embedder, index, cfg.Retrieval.Threshold, logger)

	a := app.New(app.Options{
		Ingestor:         ing,
		Processor:        proc,
		Generator:        generator,
		Cache:            cacheMgr,
		Index:            index,
		Storage:          st,
		MaxContextLength: cfg.Retrieval.MaxContextLength,
		Logger:           logger,
	})

	return &components{
		Storage:   st,
		Cache:     cacheMgr,
		Embedder:  embedder,
		Index:     index,
		App:       a,
		indexPath: cfg.Storage.VectorIndexPath,
		logger:    logger,
	}, nil
}

func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger, *components) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolvedPath, logger, comps
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, comps := setup(*configPath, *debug)
	defer logger.Sync()
	defer comps.Close()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug))

	uploads, err := upload.NewStore(cfg.Storage.UploadDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize upload store", zap.Error(err))
	}

	a := comps.App
	watchSvc := watcher.New(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if _, err := a.IngestFile(context.Background(), path); err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			abs, _ := filepath.Abs(path)
			if err := a.DeleteDocument(context.Background(), fileid.ForPath(abs)); err != nil {
				logger.Warn("watch delete failed", zap.String("path", path), zap.Error(err))
			}
		},
		logger,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExistingFiles()

	srv := server.NewServer(a, uploads, cfg, watchSvc, resolvedConfigPath, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: documind ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	path := fs.Arg(0)

	_, _, logger, comps := setup(*configPath, false)
	defer logger.Sync()
	defer comps.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		n, err := comps.App.IngestDirectory(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingesting directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d file(s) from %s\n", n, path)
		return
	}
	result, err := comps.App.IngestFile(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingesting failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteIngestResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// queryArgsReorder moves flags after the question text to the front so
// flag.Parse sees them; flag parsing stops at the first non-flag argument.
func queryArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runQuery() {
	queryArgs := queryArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the pipeline in-process)")
	topK := fs.Int("top-k", 0, "number of chunks to retrieve (0 = config default)")
	rerank := fs.Bool("rerank", true, "rerank results by lexical overlap")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(queryArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: documind query [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: documind query [flags] <question>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	req := &models.QueryRequest{Query: question, TopK: *topK, Rerank: rerank}

	if *serverURL != "" {
		resp, err := queryViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteQueryResponse(os.Stdout, resp, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	_, _, logger, comps := setup(*configPath, false)
	defer logger.Sync()
	defer comps.Close()

	resp, err := comps.App.Query(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteQueryResponse(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func queryViaHTTP(serverURL string, req *models.QueryRequest) (*models.QueryResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: documind delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	_, _, logger, comps := setup(*configPath, false)
	defer logger.Sync()
	defer comps.Close()

	if err := comps.App.DeleteDocument(context.Background(), docID); err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

func runCache() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: documind cache <stats|clear-expired> [flags]")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[3:])

	_, _, logger, comps := setup(*configPath, false)
	defer logger.Sync()
	defer comps.Close()

	switch sub {
	case "stats":
		stats := comps.App.CacheStats()
		for _, category := range []string{cache.CategoryEmbeddings, cache.CategoryQueries, cache.CategoryResponses} {
			s := stats[category]
			fmt.Printf("%-12s total: %-6d expired: %d\n", category, s.Total, s.Expired)
		}
	case "clear-expired":
		removed := comps.App.ClearExpiredCache()
		fmt.Printf("Removed %d expired entr%s\n", removed, pluralY(removed))
	default:
		fmt.Printf("Unknown cache subcommand: %s\n", sub)
		os.Exit(1)
	}
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = inspect stores directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status map[string]interface{}
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	} else {
		cfg, _, logger, comps := setup(*configPath, false)
		defer logger.Sync()
		defer comps.Close()

		s, err := comps.App.Status(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = map[string]interface{}{
			"documents":   s.Documents,
			"chunks":      s.Chunks,
			"index_size":  s.IndexSize,
			"cache_stats": s.CacheStats,
			"disk_usage_bytes": storage.DiskUsageBytes(cfg.Storage.CacheDir) +
				storage.DiskUsageBytes(cfg.Storage.UploadDir),
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// writeStatusText renders a status map for the terminal. cache_stats holds
// typed CategoryStats on the in-process path and a decoded JSON map on the
// HTTP path; both render.
func writeStatusText(w io.Writer, status map[string]interface{}) {
	for _, key := range []string{"documents", "chunks", "index_size", "disk_usage_bytes"} {
		if v, ok := status[key]; ok {
			fmt.Fprintf(w, "%-18s %v\n", key+":", v)
		}
	}
	switch cs := status["cache_stats"].(type) {
	case map[string]cache.CategoryStats:
		fmt.Fprintln(w, "\n# cache")
		for _, category := range []string{cache.CategoryEmbeddings, cache.CategoryQueries, cache.CategoryResponses} {
			s := cs[category]
			fmt.Fprintf(w, "%-18s total: %-6d expired: %d\n", category+":", s.Total, s.Expired)
		}
	case map[string]interface{}:
		fmt.Fprintln(w, "\n# cache")
		for category, v := range cs {
			fmt.Fprintf(w, "%-18s %v\n", category+":", v)
		}
	}
}

func statusViaHTTP(serverURL string) (map[string]interface{}, error) {
	resp, err := http.Get(serverURL + "/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return s, nil
}
