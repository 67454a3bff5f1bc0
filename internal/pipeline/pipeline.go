package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/cstrmap/internal/bundle"
	"github.com/DeusData/cstrmap/internal/config"
	"github.com/DeusData/cstrmap/internal/extract"
	"github.com/DeusData/cstrmap/internal/lang"
	"github.com/DeusData/cstrmap/internal/parser"
	"github.com/DeusData/cstrmap/internal/store"
)

var (
	// ErrNoInput reports a run invoked with zero input files.
	ErrNoInput = errors.New("no input files supplied")
	// ErrEmptyPath reports a blank path among the input files.
	ErrEmptyPath = errors.New("empty input path")
)

// Pipeline orchestrates one run: verify inputs, extract associations file by
// file, adjudicate global uniqueness, write the bundle, archive the run.
type Pipeline struct {
	ctx     context.Context
	cfg     *config.Config
	agg     *bundle.Aggregator
	archive *store.Store // nil when archiving is disabled
}

// New creates a Pipeline. The archive store may be nil.
func New(ctx context.Context, cfg *config.Config, archive *store.Store) *Pipeline {
	return &Pipeline{
		ctx:     ctx,
		cfg:     cfg,
		agg:     bundle.NewAggregator(),
		archive: archive,
	}
}

// Mapping exposes the output mapping assembled so far.
func (p *Pipeline) Mapping() map[string]string {
	return p.agg.Mapping()
}

// checkCancel returns ctx.Err() if the pipeline's context has been cancelled.
func (p *Pipeline) checkCancel() error {
	return p.ctx.Err()
}

// Run processes the input files strictly in the order supplied and writes
// <out_dir>/bundle.json. Extraction state never leaks between files; the
// uniqueness decision happens once, after the whole corpus is in.
func (p *Pipeline) Run(paths []string) error {
	started := store.Now()
	slog.Info("pipeline.start", "files", len(paths))

	if err := p.checkCancel(); err != nil {
		return err
	}

	verified, err := p.verifyInputs(paths)
	if err != nil {
		return err
	}

	p.warnDuplicates(verified)

	t := time.Now()
	associations := 0
	for _, path := range verified {
		if err := p.checkCancel(); err != nil {
			return err
		}
		n, err := p.processFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		associations += n
	}
	slog.Info("pass.timing", "pass", "extract", "elapsed", time.Since(t), "associations", associations)

	t = time.Now()
	survivors := p.agg.Adjudicate()
	slog.Info("pass.timing", "pass", "adjudicate", "elapsed", time.Since(t), "survivors", survivors)

	if err := bundle.Write(p.agg.Mapping(), p.cfg.EffectiveOutDir()); err != nil {
		return err
	}

	p.archiveRun(started, len(verified), associations, survivors)

	slog.Info("pipeline.done", "files", len(verified), "mapping", len(p.agg.Mapping()))
	return nil
}

// verifyInputs checks input shape before any tree work: at least one file,
// every path non-blank, resolvable to an absolute path, and openable for
// reading. Any violation fails the run.
func (p *Pipeline) verifyInputs(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}
	verified := make([]string, 0, len(paths))
	for _, raw := range paths {
		if strings.TrimSpace(raw) == "" {
			return nil, ErrEmptyPath
		}
		abs, err := filepath.Abs(raw)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", raw, err)
		}
		f, err := os.Open(abs)
		if err != nil {
			return nil, fmt.Errorf("verify input: %w", err)
		}
		f.Close()
		verified = append(verified, abs)
	}
	return verified, nil
}

// warnDuplicates content-hashes the verified inputs and warns when identical
// content is supplied more than once. Global uniqueness annihilates every
// string of a duplicated file, which is rarely what the caller meant.
// Hashing is parallelized across CPU cores.
func (p *Pipeline) warnDuplicates(paths []string) {
	if len(paths) < 2 {
		return
	}

	hashes := make([]string, len(paths))
	numWorkers := runtime.NumCPU()
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	g := new(errgroup.Group)
	g.SetLimit(numWorkers)
	for i, path := range paths {
		g.Go(func() error {
			h, err := fileHash(path)
			if err == nil {
				hashes[i] = h
			}
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]string, len(paths))
	for i, path := range paths {
		h := hashes[i]
		if h == "" {
			continue
		}
		if first, ok := seen[h]; ok {
			slog.Warn("verify.duplicate", "path", path, "matches", first)
			continue
		}
		seen[h] = path
	}
}

// processFile reads, parses, and extracts one input file, appending its
// associations to the aggregator. Returns the number of associations found.
func (p *Pipeline) processFile(path string) (int, error) {
	if info, err := os.Stat(path); err == nil {
		if mb := info.Size() >> 20; mb > p.cfg.EffectiveMaxFileMB() {
			slog.Warn("input.oversize", "path", path, "size_mb", mb, "limit_mb", p.cfg.EffectiveMaxFileMB())
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}
	source = stripBOM(source)

	tree, err := parser.Parse(source)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	result, err := extract.FromTree(tree.RootNode(), source, lang.ForLanguage(lang.C))
	if err != nil {
		return 0, err
	}

	slog.Info("extract.file", "path", path, "functions", len(result.Functions), "associations", len(result.Associations))
	if len(result.Associations) == 0 {
		slog.Warn("extract.no_strings", "path", path)
	}

	p.agg.Append(result.Associations)
	return len(result.Associations), nil
}

// archiveRun records the finished run when an archive store is configured.
// Archive failures are warnings; the bundle on disk is the real output.
func (p *Pipeline) archiveRun(started string, files, associations, survivors int) {
	if p.archive == nil {
		return
	}
	r := &store.Run{
		ID:           uuid.NewString(),
		StartedAt:    started,
		FinishedAt:   store.Now(),
		Files:        files,
		Associations: associations,
		Survivors:    survivors,
	}
	if err := p.archive.RecordRun(r, p.agg.Mapping()); err != nil {
		slog.Warn("archive.record.err", "run", r.ID, "err", err)
		return
	}
	slog.Info("archive.recorded", "run", r.ID, "entries", len(p.agg.Mapping()))
}

// stripBOM removes a UTF-8 BOM (0xEF 0xBB 0xBF) from the start of source.
// Common in Windows-generated files; tree-sitter may choke on BOM bytes.
func stripBOM(source []byte) []byte {
	if len(source) >= 3 && source[0] == 0xEF && source[1] == 0xBB && source[2] == 0xBF {
		return source[3:]
	}
	return source
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
