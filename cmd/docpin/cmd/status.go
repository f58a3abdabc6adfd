package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vqtran/docpin/internal/store"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index statistics for the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	var stats *store.Stats
	err = a.pool.With(cmd.Context(), func(h *store.Handle) error {
		var err error
		stats, err = h.GetStats(cmd.Context())
		return err
	})
	if err != nil {
		return err
	}

	a.out.Statusf("", "project root: %s", a.root)
	a.out.Statusf("", "indexed files: %d", stats.EntryCount)
	a.out.Statusf("", "anchors: %d", stats.AnchorCount)
	a.out.Statusf("", "indexed text: %d bytes", stats.TextBytes)
	a.out.Statusf("", "pool size: %d", a.pool.Size())
	return nil
}
