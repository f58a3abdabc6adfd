// Package searcher runs accent-insensitive keyword search across a
// project tree. Files are classified, kept fresh in the content index
// and searched block by block, with per-file failures isolated so one
// bad document never aborts the rest.
package searcher

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vqtran/docpin/internal/extract"
	"github.com/vqtran/docpin/internal/filetype"
	"github.com/vqtran/docpin/internal/index"
	"github.com/vqtran/docpin/internal/textnorm"
)

// Match is one keyword occurrence inside a file, carrying the block
// coordinates needed to create an anchor from it.
type Match struct {
	FilePath string
	FileType filetype.Category
	Block    extract.TextBlock
	Start    int // byte offset in Block.Text
	Length   int // byte length in Block.Text
}

// Result summarizes a project search.
type Result struct {
	Matches      []Match
	FilesScanned int
	FilesFailed  int
}

// Searcher walks a project root and searches indexable files.
type Searcher struct {
	root      string
	exclude   []string
	workers   int
	extractor *extract.Extractor
	index     *index.Manager
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithExcludes sets glob patterns skipped during the walk. Patterns
// match against the path relative to the root; a trailing "/**"
// excludes a whole subtree.
func WithExcludes(patterns []string) Option {
	return func(s *Searcher) { s.exclude = patterns }
}

// WithWorkers bounds concurrent per-file extraction and search.
func WithWorkers(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the searcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a searcher over a project root. idx may be nil, in which
// case the persistent index is not refreshed during searches.
func New(root string, ex *extract.Extractor, idx *index.Manager, opts ...Option) *Searcher {
	s := &Searcher{
		root:      root,
		workers:   4,
		extractor: ex,
		index:     idx,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search finds all occurrences of keyword across the project's
// indexable files. Matching is accent-insensitive; offsets point into
// the original block text. Matches come back sorted by path, then
// block order, then offset.
func (s *Searcher) Search(ctx context.Context, keyword string) (*Result, error) {
	if strings.TrimSpace(keyword) == "" {
		return &Result{}, nil
	}

	files, err := s.collectFiles()
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	result := &Result{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			matches, err := s.searchFile(gctx, file, keyword)

			mu.Lock()
			defer mu.Unlock()
			result.FilesScanned++
			if err != nil {
				// One bad file must not sink the search.
				result.FilesFailed++
				s.logger.Warn("search_file_failed", "path", file, "error", err)
				return nil
			}
			result.Matches = append(result.Matches, matches...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Block.Ordinal != b.Block.Ordinal {
			return a.Block.Ordinal < b.Block.Ordinal
		}
		return a.Start < b.Start
	})
	return result, nil
}

func (s *Searcher) searchFile(ctx context.Context, path, keyword string) ([]Match, error) {
	if s.index != nil {
		if _, err := s.index.GetOrRefresh(ctx, path); err != nil {
			return nil, err
		}
	}

	extraction, err := s.extractor.Extract(path)
	if err != nil {
		return nil, err
	}

	fileType := filetype.Classify(path)
	var matches []Match
	for _, block := range extraction.Blocks {
		for _, m := range textnorm.FindAll(block.Text, keyword) {
			matches = append(matches, Match{
				FilePath: path,
				FileType: fileType,
				Block:    block,
				Start:    m.Start,
				Length:   m.Length,
			})
		}
	}
	return matches, nil
}

// Files walks the root and returns the indexable, non-excluded files
// a search would visit, in walk order.
func (s *Searcher) Files() ([]string, error) {
	return s.collectFiles()
}

// collectFiles walks the root and returns indexable, non-excluded
// files in walk order.
func (s *Searcher) collectFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip, don't abort.
			s.logger.Warn("walk_error", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if path != s.root && s.excluded(rel+"/") {
				return fs.SkipDir
			}
			return nil
		}
		if s.excluded(rel) {
			return nil
		}
		if filetype.Classify(path).Indexable() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// excluded matches a root-relative path against the exclude globs.
// "dir/**" patterns exclude everything under dir; plain patterns match
// the base name or the relative path.
func (s *Searcher) excluded(rel string) bool {
	rel = filepath.ToSlash(strings.TrimSuffix(rel, "/"))
	base := filepath.Base(rel)

	for _, pattern := range s.exclude {
		pattern = filepath.ToSlash(pattern)
		if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
