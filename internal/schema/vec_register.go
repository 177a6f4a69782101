//go:build sqlite_vec && cgo

package schema

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// vecExtensionAvailable is compiled in only when the sqlite_vec build tag
// is set; it registers the sqlite-vec extension with mattn/go-sqlite3 so
// Open can create the vec0 virtual table, which persist fills with each
// embedding. Retrieve does not query that table; it ranks by brute-force
// cosine scan in this build too.
const vecExtensionAvailable = true

func init() {
	vec.Auto()
}
