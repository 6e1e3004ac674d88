package snapshot

// ChangeKind classifies a Change.
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "added"
	ChangeAdvanced  ChangeKind = "advanced"
	ChangeRegressed ChangeKind = "regressed"
	ChangeRenamed   ChangeKind = "renamed"
	ChangeRemoved   ChangeKind = "removed"
)

// Change is the difference for one quest between two snapshots.
type Change struct {
	Kind     ChangeKind
	FormID   uint32
	Name     string
	Previous *uint16 // nil for added quests
	Stage    uint16  // previous stage for removed quests
}

// Diff compares two snapshots. Changes for quests present in next come first
// in next's order, followed by quests that disappeared in prev's order.
// A stage change takes precedence over a rename.
func Diff(prev, next Snapshot) []Change {
	before := prev.Index()
	var changes []Change

	for _, e := range next {
		old, ok := before.Get(e.FormID)
		if !ok {
			changes = append(changes, Change{Kind: ChangeAdded, FormID: e.FormID, Name: e.Name, Stage: e.Stage})
			continue
		}
		before.Delete(e.FormID)

		stage := old.Stage
		switch {
		case e.Stage > old.Stage:
			changes = append(changes, Change{Kind: ChangeAdvanced, FormID: e.FormID, Name: e.Name, Previous: &stage, Stage: e.Stage})
		case e.Stage < old.Stage:
			changes = append(changes, Change{Kind: ChangeRegressed, FormID: e.FormID, Name: e.Name, Previous: &stage, Stage: e.Stage})
		case e.Name != old.Name:
			changes = append(changes, Change{Kind: ChangeRenamed, FormID: e.FormID, Name: e.Name, Previous: &stage, Stage: e.Stage})
		}
	}

	for el := before.Front(); el != nil; el = el.Next() {
		changes = append(changes, Change{Kind: ChangeRemoved, FormID: el.Key, Name: el.Value.Name, Stage: el.Value.Stage})
	}

	return changes
}
