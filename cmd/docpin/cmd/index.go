package cmd

import (
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vqtran/docpin/internal/searcher"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Refresh the content index for the whole project",
		Long: `Index walks the project and brings every indexable document's
stored text up to date. Unchanged files are skipped via a size check
followed by a content-hash check; only changed files are re-extracted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd)
		},
	}
	return cmd
}

func runIndex(cmd *cobra.Command) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	s := searcher.New(a.root, a.extractor, a.index,
		searcher.WithExcludes(a.cfg.Index.Exclude),
	)
	files, err := s.Files()
	if err != nil {
		return err
	}

	var failed atomic.Int64
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.workers())
	for _, file := range files {
		file := file
		g.Go(func() error {
			if _, err := a.index.GetOrRefresh(ctx, file); err != nil {
				failed.Add(1)
				a.out.Warningf("skipped %s: %v", file, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		a.out.Warningf("indexed %d file(s), %d failed", int64(len(files))-n, n)
		return nil
	}
	a.out.Successf("indexed %d file(s)", len(files))
	return nil
}
