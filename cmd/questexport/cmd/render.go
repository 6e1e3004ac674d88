package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/questexport/internal/catalog"
	"github.com/dbsmedya/questexport/internal/snapshot"
)

// maxNameWidth caps the name column in terminal cells.
const maxNameWidth = 48

// tableStyle colours table cells. The zero value prints plain text.
type tableStyle struct {
	header  func(a ...any) string
	formID  func(a ...any) string
	added   func(a ...any) string
	removed func(a ...any) string
	changed func(a ...any) string
}

func newTableStyle(colored bool) tableStyle {
	if !colored {
		plain := fmt.Sprint
		return tableStyle{header: plain, formID: plain, added: plain, removed: plain, changed: plain}
	}
	return tableStyle{
		header:  color.Bold.Sprint,
		formID:  color.FgCyan.Sprint,
		added:   color.FgGreen.Sprint,
		removed: color.FgRed.Sprint,
		changed: color.FgYellow.Sprint,
	}
}

// cell pads s to width terminal cells, truncating wide names.
func cell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

func nameColumnWidth(names []string) int {
	w := runewidth.StringWidth("NAME")
	for _, n := range names {
		if nw := runewidth.StringWidth(n); nw > w {
			w = nw
		}
	}
	return min(w, maxNameWidth)
}

// renderSnapshot prints a snapshot as a three column table.
func renderSnapshot(w io.Writer, snap snapshot.Snapshot, st tableStyle) {
	names := make([]string, len(snap))
	for i, e := range snap {
		names[i] = e.Name
	}
	nw := nameColumnWidth(names)

	fmt.Fprintf(w, "%s  %s  %s\n", st.header(cell("FORM ID", 10)), st.header(cell("NAME", nw)), st.header("STAGE"))
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 10+2+nw+2+5))
	for _, e := range snap {
		fmt.Fprintf(w, "%s  %s  %5d\n", st.formID(snapshot.FormatFormID(e.FormID)), cell(e.Name, nw), e.Stage)
	}
}

// renderChanges prints the output of snapshot.Diff.
func renderChanges(w io.Writer, changes []snapshot.Change, st tableStyle) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "No changes")
		return
	}

	names := make([]string, len(changes))
	for i, c := range changes {
		names[i] = c.Name
	}
	nw := nameColumnWidth(names)

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		st.header(cell("CHANGE", 9)), st.header(cell("FORM ID", 10)), st.header(cell("NAME", nw)), st.header("STAGE"))
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 9+2+10+2+nw+2+12))
	for _, c := range changes {
		paint := st.changed
		switch c.Kind {
		case snapshot.ChangeAdded:
			paint = st.added
		case snapshot.ChangeRemoved:
			paint = st.removed
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			paint(cell(string(c.Kind), 9)),
			st.formID(snapshot.FormatFormID(c.FormID)),
			cell(c.Name, nw),
			stageTransition(c),
		)
	}
}

func stageTransition(c snapshot.Change) string {
	switch {
	case c.Kind == snapshot.ChangeRemoved:
		return fmt.Sprintf("%d -> -", c.Stage)
	case c.Previous != nil && *c.Previous != c.Stage:
		return fmt.Sprintf("%d -> %d", *c.Previous, c.Stage)
	default:
		return fmt.Sprintf("%d", c.Stage)
	}
}

// statusWidth fits "Completed (manual)".
const statusWidth = 18

// renderReport prints each catalog group with its quest statuses and the
// overall completion total.
func renderReport(w io.Writer, rep catalog.Report, st tableStyle) {
	for _, g := range rep.Groups {
		titles := make([]string, len(g.Quests))
		for i, q := range g.Quests {
			titles[i] = q.Quest.Title()
		}
		nw := nameColumnWidth(titles)

		fmt.Fprintf(w, "%s (%d / %d completed)\n", st.header(g.Group.Title()), g.Completed, g.Total())
		fmt.Fprintf(w, "%s  %s  %s\n", st.header(cell("STATUS", statusWidth)), st.header(cell("QUEST", nw)), st.header("STAGE"))
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", statusWidth+2+nw+2+5))
		for _, q := range g.Quests {
			fmt.Fprintf(w, "%s  %s  %s\n", paintStatus(q, st), cell(q.Quest.Title(), nw), questStage(q))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total: %d / %d completed\n", rep.Completed, rep.Total)
}

func paintStatus(q catalog.QuestStatus, st tableStyle) string {
	label := q.Status.String()
	if q.Overridden {
		label += " (manual)"
	}
	label = cell(label, statusWidth)
	switch q.Status {
	case catalog.Completed:
		return st.added(label)
	case catalog.InProgress:
		return st.changed(label)
	default:
		return label
	}
}

func questStage(q catalog.QuestStatus) string {
	if q.Entry == nil {
		return fmt.Sprintf("%5s", "-")
	}
	return fmt.Sprintf("%5d", q.Entry.Stage)
}
