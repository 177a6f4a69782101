//go:build !sqlite_vec || !cgo

package schema

// vecExtensionAvailable is false in the default build: no vec0 table is
// created. Retrieval is the same brute-force cosine scan as in the
// sqlite_vec build, which satisfies every invariant in spec.md §4.1/§8.1
// without the native extension.
const vecExtensionAvailable = false
