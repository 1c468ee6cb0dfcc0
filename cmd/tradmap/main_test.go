package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/tradmap/search"
	"github.com/poiesic/tradmap/storage/badger"
)

func testApp(t *testing.T) (*cli.App, *bytes.Buffer) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app, &out
}

// globalArgs points the app at a temp database and an absent .env file.
func globalArgs(t *testing.T, dbPath string) []string {
	return []string{"tradmap", "--log-level", "error", "--env-file", filepath.Join(t.TempDir(), "none.env"), "--db", dbPath}
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"map", "reindex", "import", "serve", "search", "analytics"}, names)
}

func TestMapCommandValidation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db")

	t.Run("system is required", func(t *testing.T) {
		app, _ := testApp(t)
		err := app.Run(append(globalArgs(t, dbPath), "map", "--term", "Jwara"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "system")
	})

	t.Run("unknown system", func(t *testing.T) {
		app, _ := testApp(t)
		err := app.Run(append(globalArgs(t, dbPath), "map", "--system", "Reiki", "--term", "Jwara"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid traditional medicine system")
	})

	t.Run("blank term", func(t *testing.T) {
		app, _ := testApp(t)
		err := app.Run(append(globalArgs(t, dbPath), "map", "--system", "Siddha", "--term", " "))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})
}

func TestReindexCommandValidation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero batch size", []string{"--batch-size", "0"}, "batch-size"},
		{"zero workers", []string{"--workers", "0"}, "workers"},
		{"zero report interval", []string{"--report-interval", "0"}, "report-interval"},
		{"zero retries", []string{"--max-retries", "0"}, "max-retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := testApp(t)
			args := append(globalArgs(t, dbPath), "reindex")
			err := app.Run(append(args, tt.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestImportAndAnalytics(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db")

	corpusFile := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(corpusFile, []byte(`[
		{"code": "MG26", "title": "Fever of unknown origin", "inclusionTerms": ["fever", "jwara"]},
		{"code": "1F40", "title": "Malaria"}
	]`), 0o600))

	app, out := testApp(t)
	require.NoError(t, app.Run(append(globalArgs(t, dbPath), "import", "--file", corpusFile)))
	assert.Contains(t, out.String(), "Imported 2 corpus entries")

	app, out = testApp(t)
	require.NoError(t, app.Run(append(globalArgs(t, dbPath), "analytics", "--recent", "3")))
	var summary map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.EqualValues(t, 0, summary["totalMappings"])

	store, err := badger.OpenStore(dbPath)
	require.NoError(t, err)
	defer store.Close()
	count, err := store.Corpus.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestImportCommandValidation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db")

	app, _ := testApp(t)
	err := app.Run(append(globalArgs(t, dbPath), "import", "--file", "x.json", "--kind", "mappings"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind")

	app, _ = testApp(t)
	err = app.Run(append(globalArgs(t, dbPath), "import", "--file", filepath.Join(dir, "absent.json")))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"code":`), 0o600))
	app, _ = testApp(t)
	err = app.Run(append(globalArgs(t, dbPath), "import", "--file", bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestSearchCommandValidation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db")

	app, _ := testApp(t)
	err := app.Run(append(globalArgs(t, dbPath), "search", "--query", "  "))
	require.ErrorIs(t, err, search.ErrEmptyQuery)

	app, _ = testApp(t)
	err = app.Run(append(globalArgs(t, dbPath), "search", "--query", "fever", "--system", "Reiki"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid traditional medicine system")
}

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	tests := []struct {
		level   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			app := &cli.App{
				Flags:  []cli.Flag{&cli.StringFlag{Name: "log-level", Value: "info"}},
				Before: setupLogger,
				Action: func(*cli.Context) error { return nil },
			}
			err := app.Run([]string{"tradmap", "--log-level", tt.level})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}
			require.NoError(t, err)
			ctx := context.Background()
			assert.True(t, slog.Default().Enabled(ctx, tt.want))
			if tt.want > slog.LevelDebug {
				assert.False(t, slog.Default().Enabled(ctx, tt.want-4))
			}
		})
	}
}
