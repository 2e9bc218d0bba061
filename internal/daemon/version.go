package daemon

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two version strings using semver.
// Returns -1 if cli < daemon, 0 if equal, 1 if cli > daemon.
// Handles "v" prefix tolerance (strips leading "v" before parsing).
func CompareVersions(cli, daemon string) (int, error) {
	cv, err := parseSemver(cli)
	if err != nil {
		return 0, fmt.Errorf("parsing CLI version %q: %w", cli, err)
	}
	dv, err := parseSemver(daemon)
	if err != nil {
		return 0, fmt.Errorf("parsing daemon version %q: %w", daemon, err)
	}
	return cv.Compare(dv), nil
}

// MajorMismatch reports whether the CLI and daemon versions differ in their
// major version. Versions that do not parse as semver (dev builds) never
// mismatch.
func MajorMismatch(cli, daemon string) bool {
	cv, err := parseSemver(cli)
	if err != nil {
		return false
	}
	dv, err := parseSemver(daemon)
	if err != nil {
		return false
	}
	return cv.Major() != dv.Major()
}

// parseSemver strips a leading "v" and parses the version string.
func parseSemver(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
