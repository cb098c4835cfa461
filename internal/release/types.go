// Package release holds the data model threaded through a release run.
package release

import (
	"fmt"
	"strings"
)

// ReleaseType is the semantic-version component to increment.
// Values are totally ordered: None < Patch < Minor < Major.
type ReleaseType int

const (
	None ReleaseType = iota
	Patch
	Minor
	Major
)

var releaseTypeNames = [...]string{"none", "patch", "minor", "major"}

func (t ReleaseType) String() string {
	if t < None || t > Major {
		return fmt.Sprintf("ReleaseType(%d)", int(t))
	}
	return releaseTypeNames[t]
}

// Max returns the greater of t and other.
func (t ReleaseType) Max(other ReleaseType) ReleaseType {
	if other > t {
		return other
	}
	return t
}

// MaxOf reduces types with Max. An empty list yields None.
func MaxOf(types ...ReleaseType) ReleaseType {
	out := None
	for _, t := range types {
		out = out.Max(t)
	}
	return out
}

// ParseReleaseType parses a case-insensitive release type name. The empty
// string and "false" map to None.
func ParseReleaseType(s string) (ReleaseType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "false":
		return None, nil
	case "patch":
		return Patch, nil
	case "minor":
		return Minor, nil
	case "major":
		return Major, nil
	default:
		return None, fmt.Errorf("unknown release type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ReleaseType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ReleaseType) UnmarshalText(b []byte) error {
	v, err := ParseReleaseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
