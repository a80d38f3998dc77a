//go:build cgo

package remote

// go-libsql is cgo-only; registering the "libsql" driver therefore requires
// a cgo-enabled build.
import _ "github.com/tursodatabase/go-libsql"
