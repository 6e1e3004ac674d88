package host

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/questexport/internal/layout"
)

// Fixture is a YAML description of a host registry. It lets the exporter run
// as a standalone process against recorded host state.
//
//	runtime: 0.411.140.0
//	records:
//	  - form_id: 0x0001A2B3
//	    kind: quest
//	    name: LOC_FN_Main Quest
//	    stage: 10
type Fixture struct {
	Runtime string          `yaml:"runtime"`
	Records []FixtureRecord `yaml:"records"`
}

// FixtureRecord is one record of a Fixture. A missing name is a null name.
// Size truncates the record memory to simulate a layout mismatch.
type FixtureRecord struct {
	FormID uint32  `yaml:"form_id"`
	Kind   string  `yaml:"kind"`
	Name   *string `yaml:"name"`
	Stage  uint16  `yaml:"stage"`
	Size   *int    `yaml:"size,omitempty"`
}

// LoadFixture reads a fixture file and builds a host from it.
func LoadFixture(path string, c layout.Contract) (*StaticHost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data, c)
}

// ParseFixture builds a host from fixture YAML.
func ParseFixture(data []byte, c layout.Contract) (*StaticHost, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	h := &StaticHost{}
	if fx.Runtime != "" {
		v, err := ParseVersion(fx.Runtime)
		if err != nil {
			return nil, fmt.Errorf("fixture runtime: %w", err)
		}
		h.Version = v
	}

	reg := NewMemoryRegistry()
	for i, fr := range fx.Records {
		rec, err := fr.record(c)
		if err != nil {
			return nil, fmt.Errorf("fixture record %d: %w", i, err)
		}
		reg.Put(rec)
	}
	h.Reg = reg

	return h, nil
}

func (fr FixtureRecord) record(c layout.Contract) (*StaticRecord, error) {
	if fr.FormID == 0 {
		return nil, fmt.Errorf("form_id must be non-zero")
	}

	kind := FormTypeQuest
	if fr.Kind != "" {
		k, err := ParseFormType(fr.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	rec := &StaticRecord{ID: fr.FormID, Type: kind}
	if fr.Name != nil {
		rec.Name = *fr.Name
		rec.HasName = true
	}

	if fr.Size != nil {
		if *fr.Size < 0 {
			return nil, fmt.Errorf("size cannot be negative")
		}
		rec.Raw = make([]byte, *fr.Size)
		if *fr.Size >= c.Size() {
			rec.Raw = c.EncodeStage(rec.Raw, fr.Stage)
		}
	} else {
		rec.Raw = c.EncodeStage(nil, fr.Stage)
	}

	return rec, nil
}
