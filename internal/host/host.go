// Package host defines the contracts questexport consumes from the host
// process: the record registry, its records and the runtime version.
//
// Nothing in this package owns host memory. A Record obtained from a
// Registry is only valid for the pass that looked it up.
package host

import (
	"fmt"
	"strings"
)

// FormType is the kind tag stored on every host record.
type FormType uint8

// Record kinds known to the exporter. Values follow the host's form type table.
const (
	FormTypeNone      FormType = 0x00
	FormTypeGlobal    FormType = 0x06
	FormTypeClass     FormType = 0x07
	FormTypeFaction   FormType = 0x08
	FormTypeBook      FormType = 0x1B
	FormTypeQuest     FormType = 0x21
	FormTypeNPC       FormType = 0x23
	FormTypeReference FormType = 0x3A
)

var formTypeNames = map[FormType]string{
	FormTypeNone:      "none",
	FormTypeGlobal:    "global",
	FormTypeClass:     "class",
	FormTypeFaction:   "faction",
	FormTypeBook:      "book",
	FormTypeNPC:       "npc",
	FormTypeQuest:     "quest",
	FormTypeReference: "reference",
}

// String returns the lower-case kind name, or the hex tag for unknown kinds.
func (t FormType) String() string {
	if name, ok := formTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", uint8(t))
}

// ParseFormType converts a kind name ("quest", "npc", ...) to its tag.
func ParseFormType(name string) (FormType, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for t, n := range formTypeNames {
		if n == needle {
			return t, nil
		}
	}
	return FormTypeNone, fmt.Errorf("unknown record kind %q", name)
}

// Record is a handle to one host-owned record.
type Record interface {
	// FormID returns the record identifier.
	FormID() uint32
	// Kind returns the record kind tag.
	Kind() FormType
	// FullName returns the display name. ok is false when the host has none.
	FullName() (name string, ok bool)
	// Memory returns a read-only view of the record's raw layout.
	Memory() []byte
}

// Registry is the host's table of records keyed by identifier.
type Registry interface {
	// HighWaterMark returns the next identifier the host would allocate.
	// Identifiers in [1, HighWaterMark) may be allocated.
	HighWaterMark() uint32
	// Lookup resolves an identifier. ok is false when nothing is allocated.
	Lookup(id uint32) (rec Record, ok bool)
}

// Provider is the registry singleton accessor.
type Provider interface {
	// Registry returns the host registry, or false when the host has not
	// finished initializing.
	Registry() (Registry, bool)
}

// Interface is what the host hands to the exporter at load time.
type Interface interface {
	Provider
	RuntimeVersion() RuntimeVersion
}
