// Package native binds shared libraries at runtime through the platform
// dynamic loader.
//
// Ownership boundary:
// - open/close of one native handle
// - symbol lookup and typed function binding
//
// Callers never see raw handles or symbol addresses: entry points are bound
// into typed Go function variables once, at load time.
package native
