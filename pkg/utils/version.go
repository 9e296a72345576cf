// Package utils holds small one-off helpers that don't warrant their own
// package.
package utils

// Build metadata, overridden at link time via -ldflags.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
