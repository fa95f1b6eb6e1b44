// Package codec maps between (folder, environment, key) triples and the
// composite secret names used by the central store, and normalizes
// free-form folder names into canonical slugs.
package codec

import (
	"regexp"
	"strings"
)

var (
	camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
	invalidChars  = regexp.MustCompile(`[^a-z0-9_-]`)
	lowerAlpha    = regexp.MustCompile(`^[a-z]+$`)
)

// NormalizeFolder converts a repository directory name into the canonical
// folder slug: camelCase boundaries become hyphens, the result is lowercased,
// and anything outside [a-z0-9_-] is replaced with a hyphen.
func NormalizeFolder(raw string) string {
	s := camelBoundary.ReplaceAllString(raw, "$1-$2")
	s = strings.ToLower(s)
	return invalidChars.ReplaceAllString(s, "-")
}

// MakeSecretName builds the composite store name for a secret.
// With an environment it is folder_environment_key, without one folder_key.
func MakeSecretName(folder, key, environment string) string {
	if environment == "" {
		return folder + "_" + key
	}
	return folder + "_" + environment + "_" + key
}

// DecodeSecretName splits a composite name back into key and environment,
// given the folder it belongs to. Names without the folder prefix are
// treated as legacy: the whole name is the key and there is no environment.
//
// The environment heuristic is ambiguous by construction: a key whose first
// underscore segment is all-lowercase letters (e.g. "dev_MODE" stored without
// an environment) decodes as if that segment were an environment. Callers
// that have the record's labels should prefer those over this decoding.
func DecodeSecretName(fullName, folder string) (key, environment string) {
	rest, ok := strings.CutPrefix(fullName, folder+"_")
	if !ok {
		return fullName, ""
	}
	parts := strings.Split(rest, "_")
	if len(parts) >= 2 && lowerAlpha.MatchString(parts[0]) {
		return strings.Join(parts[1:], "_"), parts[0]
	}
	return rest, ""
}

// KeyFromName extracts the key from a composite name when the environment is
// already known, e.g. from the record's labels. Unlike DecodeSecretName this
// is unambiguous: the known prefix is stripped and the remainder is the key,
// whatever its shape. Names missing the expected prefix fall back to the
// DecodeSecretName heuristic.
func KeyFromName(fullName, folder, environment string) string {
	prefix := folder + "_"
	if environment != "" {
		prefix += environment + "_"
	}
	if key, ok := strings.CutPrefix(fullName, prefix); ok {
		return key
	}
	key, _ := DecodeSecretName(fullName, folder)
	return key
}

// GroupKey is the index key under which records for one (folder, environment)
// pair are grouped. An empty environment means the default namespace.
func GroupKey(folder, environment string) string {
	return folder + "|" + environment
}
