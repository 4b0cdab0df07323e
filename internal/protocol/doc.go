// Package protocol owns the flat parameter wire convention shared with plugins.
//
// Ownership boundary:
// - name list / value list splitting and joining
// - fixed-size buffer capacity rules
// - status code constants of the plugin ABI
package protocol
