package cmap

import "github.com/cespare/xxhash/v2"

// XXHash returns a 64-bit hash of a string, suitable for sharding a Map.
func XXHash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// XXHashes returns a combined hash of several strings, as used for composite
// keys (e.g. a label's subrepo, package and name taken together).
func XXHashes(parts ...string) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.WriteString("\x00")
	}
	return d.Sum64()
}
