// Package cmd provides the CLI commands for docpin.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vqtran/docpin/internal/config"
	"github.com/vqtran/docpin/internal/extract"
	"github.com/vqtran/docpin/internal/index"
	"github.com/vqtran/docpin/internal/logging"
	"github.com/vqtran/docpin/internal/output"
	"github.com/vqtran/docpin/internal/pool"
	"github.com/vqtran/docpin/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the docpin CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docpin",
		Short: "Index, search and anchor positions in project documents",
		Long: `docpin indexes the documents of a project (Word, Excel, PowerPoint,
plain text and code), searches them accent-insensitively and creates
durable anchors: position markers that survive file edits by
validating content hashes instead of trusting stale offsets.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("docpin version {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.docpin/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newAnchorCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", "log_file", logging.DefaultLogPath())
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		output.New(os.Stderr).Errorf("%v", err)
		return err
	}
	return nil
}

// app wires the project-scoped components a command needs.
type app struct {
	root      string
	cfg       *config.Config
	pool      *pool.Pool
	extractor *extract.Extractor
	index     *index.Manager
	out       *output.Writer
}

// newApp discovers the project root, loads config and opens the
// bounded pool over the project's store. The returned cleanup releases
// the store lock and must run before the process exits.
func newApp() (*app, func(), error) {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}

	p := pool.New(
		pool.WithSize(cfg.Pool.Size),
		pool.WithAcquireTimeout(cfg.Pool.AcquireTimeout),
	)
	storePath := filepath.Join(config.DataDir(root), "index.db")
	if err := p.Init(storePath); err != nil {
		return nil, nil, err
	}

	extractor := extract.New(extract.WithMaxFileSize(cfg.Index.MaxFileSizeBytes))
	a := &app{
		root:      root,
		cfg:       cfg,
		pool:      p,
		extractor: extractor,
		index:     index.NewManager(p, extractor, index.WithCacheSize(cfg.Index.CacheSize)),
		out:       output.New(os.Stdout),
	}
	cleanup := func() { _ = p.Close() }
	return a, cleanup, nil
}

// workers resolves the configured search concurrency; zero falls back
// to the pool size.
func (a *app) workers() int {
	if a.cfg.Index.Workers > 0 {
		return a.cfg.Index.Workers
	}
	return a.cfg.Pool.Size
}
