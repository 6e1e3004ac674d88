// Package snapshot holds the extracted quest progress of one pass and
// converts it to and from the exported JSON document.
package snapshot

// ProgressEntry is the extracted state of one quest record.
type ProgressEntry struct {
	FormID uint32
	Name   string
	Stage  uint16
}

// Snapshot is the ordered result of one collection pass. Order is registry
// enumeration order, which is ascending FormID.
type Snapshot []ProgressEntry

// Len returns the number of entries.
func (s Snapshot) Len() int {
	return len(s)
}

// Empty reports whether the pass found nothing to export.
func (s Snapshot) Empty() bool {
	return len(s) == 0
}
