// Package plugins owns native plugin bindings and the name-indexed registry
// that manages their lifetime.
//
// Ownership boundary:
// - entry point resolution for both ABI generations
// - parameter synchronisation between host and module
// - load/unload state of every binding
//
// A Plugin is either fully bound or does not exist: Open releases the native
// handle on every failure path. Every call into one module is serialised by
// that binding's mutex because module parameter state is process-global to
// the module and not reentrant.
package plugins
