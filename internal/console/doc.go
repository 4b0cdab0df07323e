// Package console implements the interactive plugctl shell: a line-oriented
// command loop over a plugins.Registry.
package console
