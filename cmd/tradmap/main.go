// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/tradmap/search"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tradmap",
		Usage: "Map traditional medicine terms to ICD-11",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with TRADMAP_* variables",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides storage.path)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "map",
				Usage:  "Map one concept and print the result",
				Action: mapCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "system",
						Aliases:  []string{"s"},
						Usage:    "Traditional medicine system (Ayurveda, Siddha, Unani, Yoga)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "term",
						Aliases:  []string{"t"},
						Usage:    "Term to map",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Optional description of the term",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID recorded on the mapping",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Store the mapping",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the wire JSON form",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every corpus entry",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries to embed in each batch",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent batches",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Import corpus entries or knowledge concepts from a JSON file",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSON file holding an array of records",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Record kind: corpus or knowledge",
						Value: kindCorpus,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Search the knowledge base",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Search text",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "system",
						Usage: "Only return concepts of this system",
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of hits",
						Value: search.DefaultMaxHits,
					},
				},
			},
			{
				Name:   "analytics",
				Usage:  "Print a summary of stored mappings",
				Action: analyticsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "user",
						Usage: "Only summarize this user's mappings",
					},
					&cli.IntFlag{
						Name:  "recent",
						Usage: "Number of recent mappings to include",
						Value: 5,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
