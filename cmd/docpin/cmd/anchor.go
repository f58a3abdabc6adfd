package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vqtran/docpin/internal/anchor"
	"github.com/vqtran/docpin/internal/errors"
	"github.com/vqtran/docpin/internal/filetype"
	"github.com/vqtran/docpin/internal/textnorm"
)

func newAnchorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anchor",
		Short: "Create and resolve durable position anchors",
	}
	cmd.AddCommand(newAnchorCreateCmd())
	cmd.AddCommand(newAnchorResolveCmd())
	return cmd
}

func newAnchorCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <file> <keyword>",
		Short: "Anchor the first occurrence of a keyword in a file",
		Long: `Create searches one file accent-insensitively and pins the first
occurrence as an anchor. The anchor stores the block's content hash so
a later resolve can detect whether the file changed underneath it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnchorCreate(cmd, args[0], args[1])
		},
	}
}

func runAnchorCreate(cmd *cobra.Command, path, keyword string) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	extraction, err := a.extractor.Extract(absPath)
	if err != nil {
		return err
	}

	for _, block := range extraction.Blocks {
		matches := textnorm.FindAll(block.Text, keyword)
		if len(matches) == 0 {
			continue
		}

		d := anchor.Create(filetype.Classify(absPath), block, matches[0].Start, matches[0].Length, keyword)
		mgr := anchor.NewManager(a.pool, a.extractor, nil)
		id, err := mgr.Save(cmd.Context(), absPath, d)
		if err != nil {
			return err
		}

		a.out.Successf("anchored %q at %s", keyword, location(a.root, absPath, block))
		a.out.Statusf("", "anchor id: %s", id)
		return nil
	}

	return errors.New(errors.ErrCodeInvalidInput, "keyword not found in "+path, nil)
}

func newAnchorResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <anchor-id>",
		Short: "Resolve an anchor back to a live position",
		Long: `Resolve re-extracts the anchored file and checks whether the
pinned content is still where it was. The position comes back exact,
relocated (the content moved but the keyword was found again), or not
found when the content changed beyond recovery.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnchorResolve(cmd, args[0])
		},
	}
}

func runAnchorResolve(cmd *cobra.Command, id string) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	mgr := anchor.NewManager(a.pool, a.extractor, nil)
	res, path, err := mgr.ResolveByID(cmd.Context(), id)
	if err != nil {
		return err
	}

	switch res.Status {
	case anchor.Exact:
		a.out.Successf("exact: %s (offset %d, length %d)",
			location(a.root, path, *res.Block), res.CharOffset, res.CharLength)
	case anchor.Drifted:
		a.out.Warningf("relocated: %s (offset %d, length %d)",
			location(a.root, path, *res.Block), res.CharOffset, res.CharLength)
	case anchor.NotFound:
		a.out.Error("content has changed, position unavailable")
	}
	return nil
}
