// Package walker enumerates the host registry and collects quest records
// into a snapshot.
package walker

import (
	"errors"
	"iter"

	"github.com/dbsmedya/questexport/internal/extract"
	"github.com/dbsmedya/questexport/internal/host"
	"github.com/dbsmedya/questexport/internal/layout"
	"github.com/dbsmedya/questexport/internal/logger"
	"github.com/dbsmedya/questexport/internal/snapshot"
)

// Stats describes one collection.
type Stats struct {
	HostReady    bool   // false when the registry was unavailable
	HighWater    uint32 // exclusive upper bound that was scanned
	Resolved     int    // identifiers that resolved to a record
	Matched      int    // records of the target kind
	ShortRecords int    // matched records whose stage could not be read
}

// Records yields every record allocated in [1, reg.HighWaterMark()). The
// bound is read once per iteration. Identifiers that do not resolve, including
// records removed by the host mid-walk, are skipped. The sequence can be
// ranged over any number of times.
func Records(reg host.Registry) iter.Seq[host.Record] {
	return func(yield func(host.Record) bool) {
		for rec := range RecordsBelow(reg, reg.HighWaterMark()) {
			if !yield(rec) {
				return
			}
		}
	}
}

// RecordsBelow is Records with a caller-supplied exclusive bound.
func RecordsBelow(reg host.Registry, end uint32) iter.Seq[host.Record] {
	return func(yield func(host.Record) bool) {
		for id := uint32(1); id < end; id++ {
			rec, ok := reg.Lookup(id)
			if !ok || rec == nil {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Walker collects snapshots from a host.
type Walker struct {
	provider  host.Provider
	kind      host.FormType
	extractor *extract.Extractor
	logger    *logger.Logger
}

// New creates a Walker that keeps records of the given kind.
func New(provider host.Provider, kind host.FormType, extractor *extract.Extractor, log *logger.Logger) *Walker {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Walker{
		provider:  provider,
		kind:      kind,
		extractor: extractor,
		logger:    log,
	}
}

// Collect builds the snapshot for the current registry state. A host that is
// not ready yields an empty snapshot.
func (w *Walker) Collect() snapshot.Snapshot {
	snap, _ := w.CollectWithStats()
	return snap
}

// CollectWithStats is Collect plus counters for diagnostics.
func (w *Walker) CollectWithStats() (snapshot.Snapshot, Stats) {
	var stats Stats

	reg, ok := w.provider.Registry()
	if !ok || reg == nil {
		w.logger.Debug("Record registry unavailable, host not initialized")
		return nil, stats
	}
	stats.HostReady = true
	stats.HighWater = reg.HighWaterMark()

	var snap snapshot.Snapshot
	for rec := range RecordsBelow(reg, stats.HighWater) {
		stats.Resolved++
		if rec.Kind() != w.kind {
			continue
		}
		stats.Matched++

		entry, err := w.extractor.Extract(rec)
		if err != nil {
			if errors.Is(err, layout.ErrShortRecord) {
				stats.ShortRecords++
			}
			w.logger.Debugw("Stage unreadable, exporting stage 0",
				"form_id", snapshot.FormatFormID(entry.FormID),
				"error", err,
			)
		}
		snap = append(snap, entry)
	}

	if stats.ShortRecords > 0 {
		w.logger.Warnw("Records shorter than the layout contract",
			"count", stats.ShortRecords,
			"matched", stats.Matched,
		)
	}

	return snap, stats
}
