// Package util provides utility functions for the backend.
//
//revive:disable-next-line:var-naming
package util

import (
	"os"
	"strings"

	"github.com/package-url/packageurl-go"
)

// GetEnvDefault is a convenience function for handling env vars
func GetEnvDefault(key, defVal string) string {
	val, ex := os.LookupEnv(key) // get the env var
	if !ex {                     // not found return default
		return defVal
	}
	return val // return value for env var
}

// PackagePURL builds a canonical package URL for a finding's package so
// records from different scanner backends key on the same identifier.
// ecosystem is a purl type like "deb", "rpm", "npm"; empty defaults to
// "generic".
func PackagePURL(ecosystem, name, version string) string {
	if name == "" {
		return ""
	}
	if ecosystem == "" {
		ecosystem = "generic"
	}
	namespace := ""
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		namespace = name[:idx]
		name = name[idx+1:]
	}
	purl := packageurl.NewPackageURL(ecosystem, namespace, name, version, nil, "")
	return purl.ToString()
}
