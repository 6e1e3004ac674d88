package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/elliotchance/orderedmap/v2"
)

// Document is the decoded form of an exported snapshot file.
type Document struct {
	GeneratedAtUTC string          `json:"generated_at_utc"`
	QuestCount     int             `json:"quest_count"`
	Quests         []DocumentEntry `json:"quests"`
}

// DocumentEntry is one quest of a Document.
type DocumentEntry struct {
	FormID string `json:"form_id"`
	Name   string `json:"name"`
	Stage  uint16 `json:"stage"`
}

// Load reads and decodes the snapshot file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode parses a snapshot document and checks that its count matches.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc.QuestCount != len(doc.Quests) {
		return nil, fmt.Errorf("quest_count is %d but %d quests are listed", doc.QuestCount, len(doc.Quests))
	}
	return &doc, nil
}

// GeneratedAt parses generated_at_utc.
func (d *Document) GeneratedAt() (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, d.GeneratedAtUTC, time.UTC)
}

// Snapshot converts the document back into entries in document order.
func (d *Document) Snapshot() (Snapshot, error) {
	snap := make(Snapshot, 0, len(d.Quests))
	for i, q := range d.Quests {
		id, err := ParseFormID(q.FormID)
		if err != nil {
			return nil, fmt.Errorf("quests[%d]: %w", i, err)
		}
		snap = append(snap, ProgressEntry{FormID: id, Name: q.Name, Stage: q.Stage})
	}
	return snap, nil
}

// ParseFormID parses the 0x-prefixed hex form used in documents.
func ParseFormID(s string) (uint32, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, fmt.Errorf("form id %q lacks 0x prefix", s)
	}
	n, err := strconv.ParseUint(s[2:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid form id %q: %w", s, err)
	}
	return uint32(n), nil
}

// Index returns the entries keyed by FormID, keeping snapshot order. A
// repeated FormID keeps its first position and its last value.
func (s Snapshot) Index() *orderedmap.OrderedMap[uint32, ProgressEntry] {
	m := orderedmap.NewOrderedMap[uint32, ProgressEntry]()
	for _, e := range s {
		m.Set(e.FormID, e)
	}
	return m
}
