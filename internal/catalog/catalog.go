// Package catalog describes the quests a player can complete and classifies
// exported progress against them.
//
// A catalog is a directory with one file per quest group. Files are JSON or
// YAML and use the same keys as the companion app's quest data:
//
//	{
//	  "id": "MainQuest",
//	  "name": "Main Quest",
//	  "displayOrder": 1,
//	  "quests": [
//	    {"id": "Deliverance", "name": "Deliverance", "formId": "0x0001A2B3", "completionStages": [100, null]}
//	  ]
//	}
package catalog

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/questexport/internal/snapshot"
)

// Quest is one catalog entry.
type Quest struct {
	ID               string
	Name             string
	FormID           string // optional, "0x"-prefixed hex; matched before ID and Name
	CompletionStages []uint16
}

// Key identifies the quest for manual overrides.
func (q Quest) Key() string {
	switch {
	case q.ID != "":
		return q.ID
	case q.Name != "":
		return q.Name
	default:
		return "unknown"
	}
}

// Title is the name shown to the player.
func (q Quest) Title() string {
	return cmp.Or(q.Name, q.ID, "Unknown Quest")
}

// Group is a set of quests shown together.
type Group struct {
	ID           string
	Name         string
	DisplayOrder *int
	Quests       []Quest
	Source       string // file the group was read from
}

// Title is the name shown for the group.
func (g Group) Title() string {
	return cmp.Or(g.Name, g.ID, "Quest Group")
}

// Catalog is every group, in display order.
type Catalog struct {
	Groups []Group
}

// Len returns the number of quests across all groups.
func (c *Catalog) Len() int {
	n := 0
	for _, g := range c.Groups {
		n += len(g.Quests)
	}
	return n
}

// Find returns the quest with the given override key.
func (c *Catalog) Find(key string) (Quest, bool) {
	for _, g := range c.Groups {
		for _, q := range g.Quests {
			if q.Key() == key {
				return q, true
			}
		}
	}
	return Quest{}, false
}

type questFile struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	FormID           string `yaml:"formId"`
	CompletionStages []*int `yaml:"completionStages"`
}

type groupFile struct {
	ID           string      `yaml:"id"`
	Name         string      `yaml:"name"`
	DisplayOrder *int        `yaml:"displayOrder"`
	Quests       []questFile `yaml:"quests"`
}

// LoadDir reads every .json, .yaml and .yml file in dir as one group. A
// missing directory is an empty catalog. Files that cannot be read are
// skipped; their errors are combined in the returned error alongside the
// groups that did load.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	cat := &Catalog{}
	var errs error
	for _, e := range entries {
		if e.IsDir() || !isCatalogFile(e.Name()) {
			continue
		}
		g, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		cat.Groups = append(cat.Groups, g)
	}

	sortGroups(cat.Groups)
	return cat, errs
}

// LoadFile reads one group file.
func LoadFile(path string) (Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Group{}, fmt.Errorf("failed to read quest group: %w", err)
	}
	g, err := ParseGroup(data)
	if err != nil {
		return Group{}, fmt.Errorf("%s: %w", path, err)
	}
	g.Source = path
	return g, nil
}

// ParseGroup decodes a group from JSON or YAML.
func ParseGroup(data []byte) (Group, error) {
	var gf groupFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return Group{}, fmt.Errorf("failed to parse quest group: %w", err)
	}

	g := Group{ID: gf.ID, Name: gf.Name, DisplayOrder: gf.DisplayOrder}
	for _, qf := range gf.Quests {
		q := Quest{ID: qf.ID, Name: qf.Name, FormID: qf.FormID}
		if q.FormID != "" {
			if _, err := snapshot.ParseFormID(q.FormID); err != nil {
				return Group{}, fmt.Errorf("quest %s: %w", q.Key(), err)
			}
		}
		for _, s := range qf.CompletionStages {
			if s == nil {
				continue
			}
			if *s < 0 || *s > 0xFFFF {
				return Group{}, fmt.Errorf("quest %s: completion stage %d out of range", q.Key(), *s)
			}
			q.CompletionStages = append(q.CompletionStages, uint16(*s))
		}
		g.Quests = append(g.Quests, q)
	}
	return g, nil
}

func isCatalogFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// sortGroups orders by DisplayOrder, groups without one last, then by name.
func sortGroups(groups []Group) {
	slices.SortStableFunc(groups, func(a, b Group) int {
		if c := cmp.Compare(order(a), order(b)); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}

func order(g Group) int {
	if g.DisplayOrder == nil {
		return int(^uint(0) >> 1)
	}
	return *g.DisplayOrder
}
