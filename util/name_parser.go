// Package util provides utility functions for the backend.
//
//revive:disable-next-line:var-naming
package util

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ImageRef holds the parsed components of a container image reference
type ImageRef struct {
	Registry string
	Org      string
	Name     string
	Tag      string
}

// ParseImageRef parses an image reference of the form
// [registry/][org/]name[:tag]. Org defaults to "library" and tag to
// "latest", matching registry conventions. A component containing a dot or
// colon in the first position is treated as a registry host.
func ParseImageRef(ref string) ImageRef {
	out := ImageRef{Org: "library", Tag: "latest"}
	if ref == "" {
		return out
	}

	rest := ref
	if idx := strings.LastIndex(rest, ":"); idx >= 0 && !strings.Contains(rest[idx+1:], "/") {
		out.Tag = rest[idx+1:]
		rest = rest[:idx]
	}

	parts := strings.Split(rest, "/")
	switch len(parts) {
	case 1:
		out.Name = parts[0]
	case 2:
		out.Org = parts[0]
		out.Name = parts[1]
	default:
		if strings.Contains(parts[0], ".") || strings.Contains(parts[0], ":") {
			out.Registry = parts[0]
			parts = parts[1:]
		}
		out.Org = strings.Join(parts[:len(parts)-1], "/")
		out.Name = parts[len(parts)-1]
	}
	return out
}

// FullName returns the org-qualified image name without registry or tag
func (r ImageRef) FullName() string {
	if r.Org == "" || r.Org == "library" {
		return r.Name
	}
	return r.Org + "/" + r.Name
}

// ParsedVersion holds parsed semantic version components
type ParsedVersion struct {
	Major *int
	Minor *int
	Patch *int
}

// ParseSemanticVersion parses a version string into numeric components.
// Image tags and package versions are frequently loose ("1.25", "v2",
// "1.2.3-alpine"); components that cannot be parsed stay nil.
func ParseSemanticVersion(version string) *ParsedVersion {
	if version == "" {
		return &ParsedVersion{}
	}

	cleanVersion := strings.TrimPrefix(strings.TrimPrefix(version, "v"), "go")

	if v, err := semver.NewVersion(cleanVersion); err == nil {
		major := int(v.Major())
		minor := int(v.Minor())
		patch := int(v.Patch())
		return &ParsedVersion{Major: &major, Minor: &minor, Patch: &patch}
	}

	// Fallback for partial versions like "1.2" or "2"
	parts := strings.Split(cleanVersion, ".")
	result := &ParsedVersion{}

	if len(parts) >= 1 {
		if major, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
			result.Major = &major
		}
	}
	if len(parts) >= 2 {
		if minor, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			result.Minor = &minor
		}
	}
	if len(parts) >= 3 {
		patchStr := strings.FieldsFunc(parts[2], func(r rune) bool {
			return r == '-' || r == '+'
		})[0]
		if patch, err := strconv.Atoi(strings.TrimSpace(patchStr)); err == nil {
			result.Patch = &patch
		}
	}

	return result
}

// FixAvailable reports whether fixedVersion denotes an upgrade from
// installedVersion. Falls back to a non-empty string check when either side
// is not semver-parseable.
func FixAvailable(installedVersion, fixedVersion string) bool {
	if strings.TrimSpace(fixedVersion) == "" {
		return false
	}
	iv, err1 := semver.NewVersion(strings.TrimPrefix(installedVersion, "v"))
	fv, err2 := semver.NewVersion(strings.TrimPrefix(fixedVersion, "v"))
	if err1 != nil || err2 != nil {
		return true
	}
	return fv.GreaterThan(iv)
}
