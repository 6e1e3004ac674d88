package catalog

import (
	"slices"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/questexport/internal/snapshot"
)

// Status is a quest's completion state.
type Status int

const (
	NotStarted Status = iota
	InProgress
	Completed
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "In progress"
	case Completed:
		return "Completed"
	default:
		return "Not started"
	}
}

// Classify returns the status of q given its progress entry, which is nil
// when the quest is not in the snapshot. A manual override always wins.
func Classify(q Quest, entry *snapshot.ProgressEntry, overridden bool) Status {
	switch {
	case overridden:
		return Completed
	case entry == nil:
		return NotStarted
	case slices.Contains(q.CompletionStages, entry.Stage):
		return Completed
	case entry.Stage > 0:
		return InProgress
	default:
		return NotStarted
	}
}

// QuestStatus is one evaluated quest.
type QuestStatus struct {
	Quest      Quest
	Entry      *snapshot.ProgressEntry
	Status     Status
	Overridden bool
}

// GroupReport is one evaluated group.
type GroupReport struct {
	Group     Group
	Quests    []QuestStatus
	Completed int
}

// Total returns the number of quests in the group.
func (g GroupReport) Total() int {
	return len(g.Quests)
}

// Report is the whole catalog evaluated against a snapshot.
type Report struct {
	Groups    []GroupReport
	Completed int
	Total     int
}

// Evaluate classifies every catalog quest against snap. overrides may be nil.
func (c *Catalog) Evaluate(snap snapshot.Snapshot, overrides *Overrides) Report {
	m := newMatcher(snap)

	var rep Report
	for _, g := range c.Groups {
		gr := GroupReport{Group: g}
		for _, q := range g.Quests {
			qs := QuestStatus{
				Quest:      q,
				Entry:      m.match(q),
				Overridden: overrides.Completed(q.Key()),
			}
			qs.Status = Classify(q, qs.Entry, qs.Overridden)
			if qs.Status == Completed {
				gr.Completed++
			}
			gr.Quests = append(gr.Quests, qs)
		}
		rep.Completed += gr.Completed
		rep.Total += gr.Total()
		rep.Groups = append(rep.Groups, gr)
	}
	return rep
}

// matcher finds the progress entry for a catalog quest: by form id when the
// quest has one, otherwise by ID and then Name against exported names,
// ignoring case. The first entry with a given name wins.
type matcher struct {
	byID   *orderedmap.OrderedMap[uint32, snapshot.ProgressEntry]
	byName map[string]snapshot.ProgressEntry
}

func newMatcher(snap snapshot.Snapshot) *matcher {
	m := &matcher{byID: snap.Index(), byName: make(map[string]snapshot.ProgressEntry, len(snap))}
	for _, e := range snap {
		key := strings.ToUpper(e.Name)
		if _, seen := m.byName[key]; !seen {
			m.byName[key] = e
		}
	}
	return m
}

func (m *matcher) match(q Quest) *snapshot.ProgressEntry {
	if q.FormID != "" {
		id, err := snapshot.ParseFormID(q.FormID)
		if err != nil {
			return nil
		}
		if e, ok := m.byID.Get(id); ok {
			return &e
		}
		return nil
	}

	for _, key := range []string{q.ID, q.Name} {
		if key == "" {
			continue
		}
		if e, ok := m.byName[strings.ToUpper(key)]; ok {
			return &e
		}
	}
	return nil
}
