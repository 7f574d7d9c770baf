// Command import runs the content import pipeline once and prints the run
// summary.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/importer"
	"github.com/p-n-ai/pai-content/internal/platform/cache"
	"github.com/p-n-ai/pai-content/internal/platform/config"
	"github.com/p-n-ai/pai-content/internal/platform/database"
	"github.com/p-n-ai/pai-content/internal/platform/logging"
)

var errFilesFailed = errors.New("one or more files failed to import")

type importOptions struct {
	root     string
	category string
	format   string
	memory   bool
	strict   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newImportCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newImportCmd(out io.Writer) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:          "import",
		Short:        "Import content workbooks into the content store",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, out)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", "", "Content root directory (default: LEARN_CONTENT_ROOT)")
	cmd.Flags().StringVar(&opts.category, "category", "", "Import only one category: subjects, past-questions or modules")
	cmd.Flags().StringVar(&opts.format, "format", "yaml", "Summary format: yaml or json")
	cmd.Flags().BoolVar(&opts.memory, "memory", false, "Validate and import into an in-memory store instead of PostgreSQL")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when any file fails")

	return cmd
}

func runImport(ctx context.Context, opts importOptions, out io.Writer) error {
	if opts.format != "yaml" && opts.format != "json" {
		return fmt.Errorf("unsupported --format %q: want yaml or json", opts.format)
	}
	var category importer.Category
	if opts.category != "" {
		c, err := importer.ParseCategory(opts.category)
		if err != nil {
			return err
		}
		category = c
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format))

	root := opts.root
	if root == "" {
		root = cfg.Import.ContentRoot
	}

	orchCfg := importer.OrchestratorConfig{Scanner: importer.NewScanner(root)}
	if opts.memory {
		store := curriculum.NewMemoryStore()
		orchCfg.Importer = importer.New(store)
		orchCfg.History = store
	} else {
		db, err := database.Open(ctx, database.PoolConfig{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
			AppName:  "pai-content-import",
		})
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		store, err := curriculum.NewPostgresStore(db.Pool)
		if err != nil {
			return err
		}
		orchCfg.Importer = importer.New(store)
		orchCfg.History = store

		if cfg.Cache.Enabled {
			c, err := cache.New(ctx, cfg.Cache.URL)
			if err != nil {
				slog.Warn("cache unavailable, cached responses will expire on their own", "error", err)
			} else {
				defer c.Close()
				orchCfg.Cache = c
			}
		}
	}

	orch := importer.NewOrchestrator(orchCfg)
	var sum importer.Summary
	if category == "" {
		sum, err = orch.ImportAll(ctx)
	} else {
		sum, err = orch.ImportCategory(ctx, category)
	}
	if err != nil {
		return err
	}

	if err := writeSummary(out, opts.format, sum); err != nil {
		return err
	}
	if opts.strict && sum.FailureCount > 0 {
		return fmt.Errorf("%w: %d of %d", errFilesFailed, sum.FailureCount, sum.TotalFiles)
	}
	return nil
}

func writeSummary(w io.Writer, format string, sum importer.Summary) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sum); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return enc.Close()
}
