//go:build !dev

package config

const defaultPackaged = true
