// Package extract turns a host record into a snapshot entry.
package extract

import (
	"strings"

	"github.com/dbsmedya/questexport/internal/host"
	"github.com/dbsmedya/questexport/internal/layout"
	"github.com/dbsmedya/questexport/internal/snapshot"
)

const (
	// DefaultPrefix marks names the host stores as localization keys.
	DefaultPrefix = "LOC_FN_"
	// DefaultPlaceholder replaces missing names.
	DefaultPlaceholder = "<unnamed>"
)

// Extractor reads the exported fields of a record.
type Extractor struct {
	accessor    layout.Accessor
	prefix      string
	placeholder string
}

// New creates an Extractor. An empty prefix disables stripping; an empty
// placeholder selects DefaultPlaceholder so a name is never empty.
func New(accessor layout.Accessor, prefix, placeholder string) *Extractor {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &Extractor{
		accessor:    accessor,
		prefix:      prefix,
		placeholder: placeholder,
	}
}

// Extract builds the entry for rec. When the stage cannot be read the entry
// is still returned, with stage 0, alongside the accessor error.
func (x *Extractor) Extract(rec host.Record) (snapshot.ProgressEntry, error) {
	name, ok := rec.FullName()
	entry := snapshot.ProgressEntry{
		FormID: rec.FormID(),
		Name:   x.ResolveName(name, ok),
	}

	stage, err := x.accessor.Stage(rec)
	if err != nil {
		return entry, err
	}
	entry.Stage = stage
	return entry, nil
}

// ResolveName applies the placeholder and prefix rules. ok false means the
// host has no name at all.
func (x *Extractor) ResolveName(name string, ok bool) string {
	if !ok || name == "" {
		return x.placeholder
	}
	if x.prefix == "" {
		return name
	}
	if trimmed, found := strings.CutPrefix(name, x.prefix); found {
		if trimmed == "" {
			return x.placeholder
		}
		return trimmed
	}
	return name
}
