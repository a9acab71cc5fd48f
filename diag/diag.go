// Package diag accumulates per-run diagnostics: the (index, eps_t) series
// for every streamed configuration and the list of configurations skipped
// after evaluation failures. The core performs no rendering; sealed
// diagnostics are handed to external plotting or reporting tools.
package diag

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/quenbyak/epsel/deviation"
)

// Skip records one configuration dropped after an evaluation failure.
type Skip struct {
	Index int
	Cause error
}

// Diagnostics is the shared accumulator for one sampling run.
//
// Appends are lock-protected so concurrent workers never interleave partial
// records. Seal fixes the contents: records are sorted by stream index and
// all further mutation panics, making sealed diagnostics safe to share.
type Diagnostics struct {
	mu        sync.Mutex
	sealed    bool
	records   []deviation.Record
	skips     []Skip
	skipSet   *roaring.Bitmap
	truncated bool
}

// New creates an empty accumulator.
func New() *Diagnostics {
	return &Diagnostics{skipSet: roaring.New()}
}

// Append records a scored configuration.
func (d *Diagnostics) Append(rec deviation.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkMutable()
	d.records = append(d.records, rec)
}

// AppendSkip records a configuration dropped after an evaluation failure.
func (d *Diagnostics) AppendSkip(index int, cause error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkMutable()
	d.skips = append(d.skips, Skip{Index: index, Cause: cause})
	d.skipSet.Add(uint32(index))
}

// MarkTruncated flags diagnostics from a run stopped by cancellation.
func (d *Diagnostics) MarkTruncated() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checkMutable()
	d.truncated = true
}

// Seal sorts records and skips by stream index and freezes the accumulator.
// Idempotent.
func (d *Diagnostics) Seal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sealed {
		return
	}
	sort.Slice(d.records, func(i, j int) bool { return d.records[i].Index < d.records[j].Index })
	sort.Slice(d.skips, func(i, j int) bool { return d.skips[i].Index < d.skips[j].Index })
	d.sealed = true
}

func (d *Diagnostics) checkMutable() {
	if d.sealed {
		panic("diag: mutation after Seal")
	}
}

// Records returns the (index, eps_t) series. Read-only after Seal.
func (d *Diagnostics) Records() []deviation.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.records
}

// Skips returns the skipped-configuration list. Read-only after Seal.
func (d *Diagnostics) Skips() []Skip {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.skips
}

// Skipped reports whether the configuration at index was skipped.
func (d *Diagnostics) Skipped(index int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.skipSet.Contains(uint32(index))
}

// Len returns the number of scored configurations.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

// Truncated reports whether the run was stopped by cancellation.
func (d *Diagnostics) Truncated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.truncated
}
