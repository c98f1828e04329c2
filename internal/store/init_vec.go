//go:build sqlite_vec && cgo

package store

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Registers sqlite-vec as an auto-loadable extension. go-sqlcipher is a
	// source fork of mattn/go-sqlite3 exposing the same cgo registration
	// hooks, so this call binds identically whether or not the build also
	// links SQLCipher. Adapted from the corpus's init_vec.go.
	vec.Auto()
}
