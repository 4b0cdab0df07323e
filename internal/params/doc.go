// Package params owns the insertion-ordered parameter set held by each plugin
// binding.
//
// Ownership boundary:
// - ordered key/value storage
// - key uniqueness
//
// Order is part of the contract: it defines the positional order values are
// encoded in when pushed to a plugin.
package params
