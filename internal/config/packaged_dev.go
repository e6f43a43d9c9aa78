//go:build dev

package config

// Development builds expect a launcher argument after the binary, as a
// script runner passes it. Set runtime.packaged = true (or
// ETCHER_RUNTIME_PACKAGED=true) when starting the dev binary directly.
const defaultPackaged = false
