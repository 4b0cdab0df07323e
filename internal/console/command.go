package console

import "strings"

// Verbs accepted by the shell.
const (
	VerbLoad   = "load"
	VerbUnload = "unload"
	VerbView   = "view"
	VerbSet    = "set"
	VerbRun    = "run"
	VerbTime   = "time"
	VerbHelp   = "help"
	VerbList   = "list"
	VerbUsage  = "?"
	VerbExit   = "exit"
)

// arity is the exact token count, verb included, each verb accepts.
var arity = map[string]int{
	VerbLoad:   2,
	VerbUnload: 2,
	VerbView:   2,
	VerbSet:    4,
	VerbRun:    2,
	VerbTime:   2,
	VerbHelp:   2,
	VerbList:   1,
	VerbUsage:  1,
	VerbExit:   1,
}

// Command is one parsed input line.
type Command struct {
	Verb string
	Args []string
}

// ParseCommand splits a line on whitespace. A blank line yields ok=false.
func ParseCommand(line string) (Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Verb: fields[0], Args: fields[1:]}, true
}

// Valid reports whether the verb is known and carries exactly its arguments.
func (c Command) Valid() bool {
	want, ok := arity[c.Verb]
	return ok && len(c.Args)+1 == want
}

// Target is the plugin name for verbs that address one.
func (c Command) Target() string {
	switch c.Verb {
	case VerbView, VerbSet, VerbRun, VerbTime, VerbHelp, VerbUnload:
		if len(c.Args) > 0 {
			return c.Args[0]
		}
	}
	return ""
}

const usage = `Options:
	load <plugin_path> - loads a plugin into the program
	unload <plugin_name> - releases a loaded plugin
	view <plugin_name> - displays the plugin's parameters
	set  <plugin_name> <key> <value> - set a parameter for the plugin
	run  <plugin_name> - executes the plugin's main program
	time <plugin_name> - shows how long the plugin's last run took
	help <plugin_name> - shows the plugin's help instructions
	list - lists the loaded plugins and their respective parameters
	? - show these options
	exit
`
