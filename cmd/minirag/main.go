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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/minirag"
	"github.com/poiesic/minirag/config"
	"github.com/poiesic/minirag/ingestion"
	"github.com/poiesic/minirag/server"
	"github.com/poiesic/minirag/session"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "minirag",
		Usage: "Answer questions from your documents with cited sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (defaults are used when omitted)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file if it exists",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "namespace",
				Usage: "Index namespace (overrides the config file)",
			},
			&cli.StringFlag{
				Name:  "index-path",
				Usage: "BadgerDB directory for the embedded index (overrides the config file)",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Index text files, markdown or PDFs",
				ArgsUsage: "[file...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "text",
						Usage: "Index this text instead of files",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Label for --text",
						Value: ingestion.PastedTextLabel,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Index the given sources, then answer a question",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "File to index before asking (repeatable)",
					},
					&cli.StringFlag{
						Name:  "text",
						Usage: "Text to index before asking",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Label for --text",
						Value: ingestion.PastedTextLabel,
					},
					&cli.BoolFlag{
						Name:  "show-context",
						Usage: "Print the full content of every source",
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
						Usage: "Listen address (overrides the config file)",
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "Time allowed for in-flight requests on shutdown",
						Value: 10 * time.Second,
					},
				},
			},
			{
				Name:   "clear",
				Usage:  "Delete every chunk in the namespace",
				Action: clearCommand,
			},
			{
				Name:   "status",
				Usage:  "Show how many chunks are indexed",
				Action: statusCommand,
			},
		},
	}
}

func before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	if path := c.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if ns := c.String("namespace"); ns != "" {
		cfg.Index.Namespace = ns
	}
	if path := c.String("index-path"); path != "" {
		cfg.Index.Path = path
	}
	return cfg, nil
}

func openEngine(c *cli.Context, cfg *config.Config, opts ...minirag.EngineOption) (*minirag.Engine, error) {
	engine, err := minirag.Open(c.Context, cfg, opts...)
	if err != nil {
		var missing *config.MissingSettingsError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("set %s in the environment or %s", strings.Join(missing.Settings, ", "), c.String("env-file"))
		}
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

// ingestSources indexes --text and every file in order.
func ingestSources(ctx context.Context, sess *session.Session, c *cli.Context, files []string) error {
	if text := c.String("text"); text != "" {
		result, err := sess.Ingest(ctx, text, c.String("source"))
		if err != nil {
			return fmt.Errorf("failed to index text: %w", err)
		}
		renderIngest(os.Stderr, result)
	}
	for _, path := range files {
		text, label, err := ingestion.LoadFile(path)
		if err != nil {
			return err
		}
		result, err := sess.Ingest(ctx, text, label)
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}
		renderIngest(os.Stderr, result)
	}
	return nil
}

func ingestCommand(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 && c.String("text") == "" {
		return errors.New("nothing to ingest: pass files or --text")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg, minirag.WithProgress(os.Stderr))
	if err != nil {
		return err
	}
	defer engine.Close()

	sess, err := engine.NewSession()
	if err != nil {
		return err
	}
	return ingestSources(c.Context, sess, c, files)
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("a question is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg, minirag.WithProgress(os.Stderr))
	if err != nil {
		return err
	}
	defer engine.Close()

	sess, err := engine.NewSession()
	if err != nil {
		return err
	}
	if err := ingestSources(c.Context, sess, c, c.StringSlice("file")); err != nil {
		return err
	}

	result, err := sess.Ask(c.Context, question)
	if errors.Is(err, session.ErrNothingIndexed) {
		return errors.New("nothing indexed: pass --file or --text with the question")
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	renderAnswer(os.Stdout, result, c.Bool("show-context"))
	return nil
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if a := c.String("addr"); a != "" {
		addr = a
	}

	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	sess, err := engine.NewSession()
	if err != nil {
		return err
	}
	srv := server.NewServer(sess, engine, addr, server.WithLogger(slog.Default()))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func clearCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	sess, err := engine.NewSession()
	if err != nil {
		return err
	}
	if err := sess.Clear(c.Context); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Cleared namespace %s\n", engine.Namespace())
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	count, err := engine.Count(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Namespace: %s\nChunks: %d\n", engine.Namespace(), count)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
