package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the class-file major version of the output format.
type Version uint16

const (
	V5  Version = 49
	V6  Version = 50
	V7  Version = 51
	V8  Version = 52
	V11 Version = 55
	V17 Version = 61
	V21 Version = 65
)

// DefaultVersion is used when no version is configured.
const DefaultVersion = V8

// RequiresFrames reports whether the verifier of this format version checks
// explicit frame metadata at branch targets.
func (v Version) RequiresFrames() bool {
	return v >= V6
}

// SupportsDefaultMethods reports whether interfaces may carry invocable
// non-abstract methods.
func (v Version) SupportsDefaultMethods() bool {
	return v >= V8
}

// Release returns the language release number, e.g. 8 for major version 52.
func (v Version) Release() int {
	return int(v) - 44
}

// String implements the Stringer interface.
func (v Version) String() string {
	return fmt.Sprintf("%d (release %d)", uint16(v), v.Release())
}

// ParseVersion accepts a release ("8", "1.8", "17") or a major version
// ("52").
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "1.")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bytecode: invalid version %q", s)
	}
	switch {
	case n >= int(V5):
		return Version(n), nil
	case n >= V5.Release():
		return Version(n + 44), nil
	default:
		return 0, fmt.Errorf("bytecode: unsupported version %q", s)
	}
}
