package bundle

import (
	"log/slog"
	"sort"

	"github.com/DeusData/cstrmap/internal/extract"
)

// Aggregator accumulates string associations across a run and owns the
// final value-to-function mapping. It is constructed once per run and
// passed into the pipeline; Append extends the candidate list file by
// file, Adjudicate folds the globally unique survivors into the mapping.
type Aggregator struct {
	candidates []extract.Association
	mapping    map[string]string
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{mapping: make(map[string]string)}
}

// Append extends the run-wide candidate list in order. It never touches
// the mapping; uniqueness is only decided once the whole corpus is in.
func (a *Aggregator) Append(assocs []extract.Association) {
	a.candidates = append(a.candidates, assocs...)
}

// Candidates returns the current length of the candidate list.
func (a *Aggregator) Candidates() int {
	return len(a.candidates)
}

// Adjudicate decides which candidates enter the mapping and folds them in.
// A value is kept only when it occurs exactly once across the entire
// candidate list, counted globally rather than per file. Survivors are
// sorted by function name (stable, so insertion order breaks ties) and
// merged with upsert semantics: a key recorded by an earlier call is
// silently overwritten. The candidate list is cleared afterward.
// Returns the number of survivors folded in.
func (a *Aggregator) Adjudicate() int {
	counts := make(map[string]int, len(a.candidates))
	for _, c := range a.candidates {
		counts[c.Value]++
	}

	var survivors []extract.Association
	for _, c := range a.candidates {
		if counts[c.Value] == 1 {
			survivors = append(survivors, c)
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Function < survivors[j].Function
	})

	if len(survivors) == 0 {
		slog.Warn("adjudicate.no_survivors", "candidates", len(a.candidates))
	}

	for _, s := range survivors {
		a.mapping[s.Value] = s.Function
	}

	if len(a.mapping) == 0 {
		slog.Warn("bundle.empty")
	}

	a.candidates = nil
	return len(survivors)
}

// Mapping returns the output mapping assembled from adjudicated batches.
func (a *Aggregator) Mapping() map[string]string {
	return a.mapping
}
