package bootstrap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Version is a three part version number.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// NewVersion returns the version major.minor.patch.
func NewVersion(major, minor, patch uint32) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// The runtime packs a version as major<<22 | minor<<12 | patch.
var versionParts = [3]struct {
	name string
	bits int
}{
	{"major", 10},
	{"minor", 10},
	{"patch", 12},
}

// ParseVersion parses "major.minor.patch". Missing trailing parts are zero,
// so "1.3" is 1.3.0. Each part must fit its packed width.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return Version{}, errors.Newf("invalid version %q", s)
	}

	var numbers [3]uint32
	for i, part := range parts {
		width := versionParts[i]
		n, err := strconv.ParseUint(part, 10, width.bits)
		if errors.Is(err, strconv.ErrRange) {
			return Version{}, errors.Newf("invalid version %q: %s exceeds %d", s, width.name, uint64(1)<<width.bits-1)
		}
		if err != nil {
			return Version{}, errors.Wrapf(err, "invalid version %q", s)
		}
		numbers[i] = uint32(n)
	}

	return NewVersion(numbers[0], numbers[1], numbers[2]), nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ApplicationIdentity describes the application to the graphics runtime.
type ApplicationIdentity struct {
	Name          string
	Version       Version
	EngineName    string
	EngineVersion Version
	APIVersion    Version
}
