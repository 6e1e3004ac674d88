package host

import (
	"fmt"
	"strconv"
	"strings"
)

// RuntimeVersion identifies a host runtime build as major.minor.build.sub.
type RuntimeVersion struct {
	Major uint16
	Minor uint16
	Build uint16
	Sub   uint16
}

// Packed version layout: major(8) minor(12) build(8) sub(4), most
// significant first, so packed values order the same way as Compare.
const (
	majorShift = 24
	minorShift = 12
	buildShift = 4

	majorMask = 0xFF
	minorMask = 0xFFF
	buildMask = 0xFF
	subMask   = 0xF
)

// MakeVersion builds a RuntimeVersion from its components.
func MakeVersion(major, minor, build, sub uint16) RuntimeVersion {
	return RuntimeVersion{Major: major, Minor: minor, Build: build, Sub: sub}
}

// Packed encodes v in the single word hosts report. It fails when a
// component does not fit its field.
func (v RuntimeVersion) Packed() (uint32, error) {
	if v.Major > majorMask || v.Minor > minorMask || v.Build > buildMask || v.Sub > subMask {
		return 0, fmt.Errorf("runtime version %s does not fit the packed layout", v)
	}
	return uint32(v.Major)<<majorShift |
		uint32(v.Minor)<<minorShift |
		uint32(v.Build)<<buildShift |
		uint32(v.Sub), nil
}

// UnpackVersion decodes a packed runtime version.
func UnpackVersion(packed uint32) RuntimeVersion {
	return MakeVersion(
		uint16(packed>>majorShift&majorMask),
		uint16(packed>>minorShift&minorMask),
		uint16(packed>>buildShift&buildMask),
		uint16(packed&subMask),
	)
}

// ParseVersion parses "major.minor.build[.sub]" or a packed "0x" value.
func ParseVersion(s string) (RuntimeVersion, error) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		packed, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return RuntimeVersion{}, fmt.Errorf("invalid packed runtime version %q: %w", s, err)
		}
		return UnpackVersion(uint32(packed)), nil
	}

	parts := strings.Split(s, ".")
	if len(parts) < 3 || len(parts) > 4 {
		return RuntimeVersion{}, fmt.Errorf("invalid runtime version %q: want major.minor.build[.sub]", s)
	}

	var fields [4]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return RuntimeVersion{}, fmt.Errorf("invalid runtime version %q: %w", s, err)
		}
		fields[i] = uint16(n)
	}

	return MakeVersion(fields[0], fields[1], fields[2], fields[3]), nil
}

// String formats the version as major.minor.build.sub.
func (v RuntimeVersion) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Sub)
}

// Compare returns -1, 0 or 1 when v is older than, equal to or newer than o.
func (v RuntimeVersion) Compare(o RuntimeVersion) int {
	a := [4]uint16{v.Major, v.Minor, v.Build, v.Sub}
	b := [4]uint16{o.Major, o.Minor, o.Build, o.Sub}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// IsCompatibleVersion reports whether runtime may load the exporter.
// Runtimes older than minimum are rejected. With strict set, only the
// supported runtime is accepted; otherwise newer runtimes are allowed.
func IsCompatibleVersion(runtime, minimum, supported RuntimeVersion, strict bool) bool {
	if runtime.Compare(minimum) < 0 {
		return false
	}
	if strict {
		return runtime.Compare(supported) == 0
	}
	return true
}
