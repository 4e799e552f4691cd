// Package main is the LOCO CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/loco/internal/config"
	"github.com/hyperjump/loco/internal/embedding"
	"github.com/hyperjump/loco/internal/engine"
	"github.com/hyperjump/loco/internal/extract"
	"github.com/hyperjump/loco/internal/generation"
	"github.com/hyperjump/loco/internal/ingest"
	"github.com/hyperjump/loco/internal/keyword"
	"github.com/hyperjump/loco/internal/models"
	"github.com/hyperjump/loco/internal/retrieval"
	"github.com/hyperjump/loco/internal/server"
	"github.com/hyperjump/loco/internal/storage"
	"github.com/hyperjump/loco/internal/synthesis"
	"github.com/hyperjump/loco/internal/vector"
	"github.com/hyperjump/loco/internal/watcher"
	"github.com/hyperjump/loco/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/loco/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded, which
// is where settings updates are persisted.
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
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "config":
		runConfig()
	case "version", "--version", "-v":
		fmt.Printf("loco version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// watchHandler bridges filesystem events into the ingestion pipeline. A file
// is re-ingested under its base name; previous chunks for that source are
// removed first so edits replace rather than accumulate.
type watchHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

func (h *watchHandler) HandleFile(ctx context.Context, path string) {
	source := filepath.Base(path)
	content, err := os.ReadFile(path)
	if err != nil {
		h.logger.Warn("Watch: failed to read file", zap.String("path", path), zap.Error(err))
		return
	}
	if _, err := h.engine.DeleteSource(ctx, source); err != nil {
		h.logger.Warn("Watch: failed to remove previous version", zap.String("source", source), zap.Error(err))
		return
	}
	result, err := h.engine.Ingest(ctx, source, content)
	if err != nil {
		h.logger.Warn("Watch: ingest failed", zap.String("path", path), zap.Error(err))
		return
	}
	h.logger.Info("Watch: file ingested", zap.String("source", source), zap.Int("chunks", result.ChunksWritten))
}

func (h *watchHandler) HandleRemove(ctx context.Context, path string) {
	source := filepath.Base(path)
	if _, err := h.engine.DeleteSource(ctx, source); err != nil {
		h.logger.Warn("Watch: delete failed", zap.String("source", source), zap.Error(err))
	}
}

func (h *watchHandler) Supported(filename string) bool {
	return h.engine.Supported(filename)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, resolvedConfigPath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if len(cfg.Watch.Directories) > 0 {
		watchSvc, err = watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			&watchHandler{engine: components.Engine, logger: logger},
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to create watcher", zap.Error(err))
		}
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.New(components.Engine, cfg.Server.Host, cfg.Server.Port, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		_ = watchSvc.Stop()
	}
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (empty = direct storage when server is not running)`)
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: loco ingest [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}
	filename := filepath.Base(path)

	if *serverURL != "" {
		result, err := ingestViaHTTP(*serverURL, filename, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %s: %d chunk(s), document %s\n", result.Filename, result.ChunksWritten, result.DocumentID)
		return
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, resolvedConfigPath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Engine.Ingest(context.Background(), filename, content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if err := components.VectorIndex.Save(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index save failed", zap.Error(err))
		}
	}
	fmt.Printf("Ingested %s: %d chunk(s), document %s\n", result.Filename, result.ChunksWritten, result.DocumentID)
}

func ingestViaHTTP(serverURL, filename string, content []byte) (*models.IngestResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := http.Post(serverURL+"/api/v1/ingest", writer.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	topK := fs.Int("top-k", 0, "number of sources to retrieve (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: loco query [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))

	req := &models.QueryRequest{Question: question, TopK: *topK}
	payload, err := json.Marshal(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.Post(*serverURL+"/api/v1/query", "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}

	var answer models.Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(answer); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Println(answer.Text)
		if len(answer.References) > 0 {
			fmt.Println("\nSources:")
			for _, ref := range answer.References {
				fmt.Printf("  %-24s score=%.3f  %s\n", ref.Source, ref.Score, ref.Snippet)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: loco delete [flags] <source>")
		os.Exit(1)
	}
	source := fs.Arg(0)

	req, err := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/documents/"+url.PathEscape(source), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		Source  string `json:"source"`
		Removed int    `json:"chunks_removed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted %s: %d chunk(s) removed\n", out.Source, out.Removed)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status engine.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
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
		fmt.Printf("documents:           %d\n", status.Documents)
		fmt.Printf("chunks:              %d\n", status.Chunks)
		fmt.Printf("vector_index_size:   %d\n", status.VectorSize)
		fmt.Printf("keyword_index_size:  %d\n", status.KeywordDocs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func runConfig() {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	model := fs.String("model", "", "set generation model")
	temperature := fs.Float64("temperature", -1, "set generation temperature (0-2)")
	topK := fs.Int("top-k", 0, "set default number of sources (1-10)")
	threshold := fs.Float64("threshold", -1, "set chunk similarity threshold (0-1)")
	_ = fs.Parse(os.Args[2:])

	patch := models.SettingsPatch{}
	if *model != "" {
		patch.GenerationModel = model
	}
	if *temperature >= 0 {
		patch.Temperature = temperature
	}
	if *topK > 0 {
		patch.TopK = topK
	}
	if *threshold >= 0 {
		patch.ChunkSimilarityThreshold = threshold
	}

	var resp *http.Response
	var err error
	if patch == (models.SettingsPatch{}) {
		resp, err = http.Get(*serverURL + "/api/v1/config")
	} else {
		var payload []byte
		payload, err = json.Marshal(patch)
		if err == nil {
			resp, err = http.Post(*serverURL+"/api/v1/config", "application/json", bytes.NewReader(payload))
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}

	var settings config.EngineSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("generation_model:            %s\n", settings.GenerationModel)
	fmt.Printf("temperature:                 %g\n", settings.Temperature)
	fmt.Printf("top_k:                       %d\n", settings.TopK)
	fmt.Printf("chunk_similarity_threshold:  %g\n", settings.ChunkSimilarityThreshold)
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	Generator    generation.Generator
	VectorIndex  vector.Index
	KeywordIndex keyword.Index
	Engine       *engine.Engine
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, configPath string, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	ollamaEmbedder, err := embedding.NewOllamaEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimensions)
	if err != nil {
		logger.Warn("embedding service unavailable, using mock embedder", zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = ollamaEmbedder
	}
	if cfg.Embedding.CacheSize > 0 {
		embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
	}

	vectorIndex, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cfg.Storage.VectorIndexPath != "" {
		if loadErr := vectorIndex.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
			logger.Warn("vector index load skipped", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
		}
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	generator, err := generation.NewOllamaGenerator(cfg.Generation.BaseURL, cfg.Engine.GenerationModel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	ingestor := ingest.NewIngestor(store, embedder, vectorIndex, keywordIndex, logger)
	fuser := retrieval.WeightedSumFuser{
		VectorWeight:  cfg.Retrieval.VectorWeight,
		LexicalWeight: cfg.Retrieval.LexicalWeight,
	}
	retriever := retrieval.NewRetriever(embedder, vectorIndex, keywordIndex, store, fuser, cfg.Retrieval.Candidates, logger)
	synthesizer := synthesis.NewSynthesizer(generator, cfg.Retrieval.MaxContextChars, cfg.Retrieval.SnippetLength, logger)

	persist := func(settings config.EngineSettings) error {
		cfg.Engine = settings
		return config.Save(configPath, cfg)
	}
	eng := engine.New(extract.NewExtractor(), ingestor, retriever, synthesizer, store, vectorIndex, keywordIndex, cfg.Engine, persist, logger)

	return &Components{
		Storage:      store,
		Embedder:     embedder,
		Generator:    generator,
		VectorIndex:  vectorIndex,
		KeywordIndex: keywordIndex,
		Engine:       eng,
	}, nil
}

func printUsage() {
	fmt.Println(`loco - Local-only retrieval-augmented question answering

Usage:
  loco server [flags]             Start the HTTP server
  loco ingest [flags] <file>      Ingest a document
  loco query [flags] <question>   Ask a question against the knowledge base
  loco delete [flags] <source>    Remove a source and all of its chunks
  loco status [flags]             Show corpus and index sizes
  loco config [flags]             Show or update engine settings
  loco version                    Show version
  loco help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/loco/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.

Query Flags:
  --server string    Server URL (default: http://localhost:8080)
  --top-k int        Number of sources to retrieve (0 = server default)
  --output string    Output format: text or json (default: text)

Config Flags:
  --server string        Server URL (default: http://localhost:8080)
  --model string         Set generation model
  --temperature float    Set generation temperature (0-2)
  --top-k int            Set default number of sources (1-10)
  --threshold float      Set chunk similarity threshold (0-1)

Examples:
  loco server
  loco ingest notes.pdf
  loco query "What did the Q3 report say about revenue?"
  loco query --top-k 5 --output json "deployment checklist"
  loco config --temperature 0.2 --top-k 5
  loco delete notes.pdf
  loco status`)
}
