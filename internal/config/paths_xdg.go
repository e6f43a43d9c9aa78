//go:build !windows && !darwin

package config

func isXDGPlatform() bool { return true }
