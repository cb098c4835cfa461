// Package versioning computes the next semantic version of a package.
package versioning

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/release"
)

const (
	// DefaultInitialVersion is used for the first release of a package.
	DefaultInitialVersion = "1.0.0"
	// DefaultTagFormat names release markers.
	DefaultTagFormat = "v{{version}}"
)

// Calculator derives next versions. The zero value uses DefaultInitialVersion.
type Calculator struct {
	InitialVersion string
}

// NewCalculator returns a Calculator bootstrapping at initial, or at
// DefaultInitialVersion when initial is empty.
func NewCalculator(initial string) Calculator {
	return Calculator{InitialVersion: initial}
}

// Next returns the version following last for release type rt.
//
// With no last version the initial version is returned regardless of rt.
// Pre-release and build metadata on last are dropped before bumping.
// rt must not be release.None; callers stop at ENOCHANGE before asking.
func (c Calculator) Next(last string, rt release.ReleaseType) (string, error) {
	if strings.TrimSpace(last) == "" {
		return c.initial()
	}

	v, err := Parse(last)
	if err != nil {
		return "", err
	}
	core := semver.New(v.Major(), v.Minor(), v.Patch(), "", "")

	var next semver.Version
	switch rt {
	case release.Major:
		next = core.IncMajor()
	case release.Minor:
		next = core.IncMinor()
	case release.Patch:
		next = core.IncPatch()
	default:
		return "", ferrors.NewError(ferrors.KindInternal, "next version requested for release type "+rt.String()).Build()
	}
	// a component at its maximum wraps to zero
	if !next.GreaterThan(core) {
		return "", ferrors.InvalidVersion(last, fmt.Errorf("%s bump of %s overflows", rt, core.String()))
	}
	return next.String(), nil
}

func (c Calculator) initial() (string, error) {
	initial := c.InitialVersion
	if initial == "" {
		initial = DefaultInitialVersion
	}
	v, err := Parse(initial)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Parse parses a strict semantic version, tolerating a leading "v".
// Failures are EINVALIDVERSION.
func Parse(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if err != nil {
		return nil, ferrors.InvalidVersion(s, err)
	}
	return v, nil
}

// Compare returns -1, 0 or 1 comparing a and b under semver precedence.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// RenderTag expands {{version}} in format, defaulting to DefaultTagFormat.
func RenderTag(format, version string) string {
	if format == "" {
		format = DefaultTagFormat
	}
	return strings.ReplaceAll(format, "{{version}}", version)
}
