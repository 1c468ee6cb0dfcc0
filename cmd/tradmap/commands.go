package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/tradmap/analytics"
	"github.com/poiesic/tradmap/config"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/indexing"
	"github.com/poiesic/tradmap/search"
	"github.com/poiesic/tradmap/server"
	"github.com/poiesic/tradmap/telemetry"
)

const (
	kindCorpus    = "corpus"
	kindKnowledge = "knowledge"
)

func mapCommand(c *cli.Context) error {
	ctx := context.Background()

	system, err := core.ParseSystem(c.String("system"))
	if err != nil {
		return err
	}
	concept := core.Concept{
		System:      system,
		Term:        c.String("term"),
		Description: c.String("description"),
	}
	if err := core.ValidateConcept(&concept); err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	contextData := map[string]any{}
	if user := c.String("user"); user != "" {
		contextData["userId"] = user
	}

	var result *core.MappingResult
	if c.Bool("save") {
		result, err = rt.service.MapAndSave(ctx, concept, contextData)
	} else {
		result, err = rt.service.MapConcept(ctx, concept, contextData)
	}
	if err != nil {
		return fmt.Errorf("mapping failed: %w", err)
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, result.Wire())
	}
	printResult(c.App.Writer, result)
	return nil
}

func printResult(w io.Writer, result *core.MappingResult) {
	fmt.Fprintf(w, "%s  %s  (confidence %.2f)\n", result.Entry.Code, result.Entry.Title, result.ConfidenceScore)
	fmt.Fprintf(w, "%s\n", result.Reasoning)
	if len(result.Alternatives) > 0 {
		fmt.Fprintln(w, "Alternatives:")
		for _, alt := range result.Alternatives {
			fmt.Fprintf(w, "  %s  %s  (%.2f)\n", alt.Entry.Code, alt.Entry.Title, alt.Score)
		}
	}
	fmt.Fprintf(w, "ID: %s\n", result.ID)
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	indexConfig := &indexing.Config{
		BatchSize:      c.Int("batch-size"),
		Workers:        c.Int("workers"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if indexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if indexConfig.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}
	if indexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if indexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rt, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.openEmbedder(ctx); err != nil {
		return err
	}

	indexer, err := indexing.NewIndexer(rt.store.Corpus, rt.embedder, indexConfig, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if _, err := indexer.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()

	kind := c.String("kind")
	if kind != kindCorpus && kind != kindKnowledge {
		return fmt.Errorf("kind must be %s or %s", kindCorpus, kindKnowledge)
	}
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.String("file"), err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	switch kind {
	case kindCorpus:
		var entries []*core.ClassificationEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("failed to parse corpus entries: %w", err)
		}
		rt, err := openStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()
		added, err := rt.store.Corpus.AddEntries(ctx, entries...)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Imported %d corpus entries. Run 'tradmap reindex' to embed them.\n", len(added))

	case kindKnowledge:
		var concepts []core.Concept
		if err := json.Unmarshal(data, &concepts); err != nil {
			return fmt.Errorf("failed to parse concepts: %w", err)
		}
		rt, err := openRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()
		saved, err := rt.service.SaveConcepts(ctx, concepts...)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Imported %d knowledge concepts.\n", len(saved))
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, os.Stdout, nil)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	opts := []server.Option{server.WithAllowedOrigins(cfg.Server.AllowedOrigins...)}
	if cfg.Telemetry.Exporter != "" && cfg.Telemetry.Exporter != config.ExporterNone {
		opts = append(opts, server.WithTracing(cfg.Telemetry.ServiceName))
	}
	if rt.health != nil {
		opts = append(opts, server.WithHealthCheck(rt.health))
	}
	srv, err := server.New(rt.service, opts...)
	if err != nil {
		return err
	}
	return srv.Run(ctx, cfg.Server.Addr)
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(c.String("query"))
	if query == "" {
		return search.ErrEmptyQuery
	}
	var system core.System
	if raw := c.String("system"); raw != "" {
		var err error
		if system, err = core.ParseSystem(raw); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	hits, err := rt.service.SearchConcepts(ctx, query, system, c.Int("max-hits"))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(hits))
	for i, hit := range hits {
		concept := hit.Entry.Concept
		fmt.Fprintf(c.App.Writer, "%d: %s (%s)[%0.3f] %s\n", i, concept.Term, concept.System, hit.Score, concept.Description)
	}
	return nil
}

func analyticsCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rt, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	var mappings []*core.MappingResult
	if user := c.String("user"); user != "" {
		mappings, err = rt.mappings.ListMappingsByUser(ctx, user, 0)
	} else {
		mappings, err = rt.mappings.ListMappings(ctx, 0)
	}
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, analytics.Summarize(mappings, c.Int("recent")))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
