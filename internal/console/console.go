package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/plugctl/internal/logging"
	"github.com/danmuck/plugctl/internal/params"
	"github.com/danmuck/plugctl/internal/plugins"
	"github.com/danmuck/plugctl/internal/protocol"
	"github.com/rs/zerolog"
)

const (
	DefaultPrompt = ">"

	msgInvalid  = "Invalid command or invalid number of arguments"
	msgNotFound = "plugin not found!"
	msgNoneUp   = "No plugins are loaded"
)

// Console drives a registry from line input.
type Console struct {
	reg    *plugins.Registry
	in     *bufio.Reader
	out    io.Writer
	prompt string
	logger zerolog.Logger
}

type Option func(*Console)

func WithPrompt(prompt string) Option {
	return func(c *Console) {
		c.prompt = prompt
	}
}

func New(reg *plugins.Registry, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		reg:    reg,
		in:     bufio.NewReader(in),
		out:    out,
		prompt: DefaultPrompt,
		logger: logging.Component("console"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run prints the options, then reads and executes lines until exit or end of
// input.
func (c *Console) Run() error {
	c.printUsage()
	for {
		fmt.Fprint(c.out, c.prompt)
		line, err := c.in.ReadString('\n')
		if line != "" {
			if exit := c.Execute(line); exit {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}
	}
}

// Execute runs one input line and reports whether the shell should stop.
func (c *Console) Execute(line string) (exit bool) {
	cmd, ok := ParseCommand(line)
	if !ok {
		return false
	}
	if !cmd.Valid() {
		c.println(msgInvalid)
		return false
	}

	var p *plugins.Plugin
	if name := cmd.Target(); name != "" {
		found, ok := c.reg.Lookup(name)
		if !ok {
			c.println(msgNotFound)
			return false
		}
		p = found
	}

	c.logger.Debug().Str("verb", cmd.Verb).Strs("args", cmd.Args).Msg("command")
	switch cmd.Verb {
	case VerbLoad:
		c.load(cmd.Args[0])
	case VerbUnload:
		if err := c.reg.Unload(p.Name()); err != nil {
			c.println(err.Error())
		}
	case VerbView:
		c.view(p)
	case VerbSet:
		c.set(p, cmd.Args[1], cmd.Args[2])
	case VerbRun:
		c.run(p)
	case VerbTime:
		c.time(p)
	case VerbHelp:
		c.help(p)
	case VerbList:
		c.list()
	case VerbUsage:
		c.printUsage()
	case VerbExit:
		return true
	}
	return false
}

func (c *Console) load(path string) {
	name := plugins.ShortName(path)
	if _, ok := c.reg.Lookup(name); ok {
		c.printf("The plugin %q is already loaded\n", name)
		return
	}
	c.printf("loading: '%s'\n", path)
	if _, err := c.reg.Load(path); err != nil {
		if errors.Is(err, plugins.ErrAlreadyLoaded) {
			c.printf("The plugin %q is already loaded\n", name)
			return
		}
		c.println(err.Error())
	}
}

func (c *Console) view(p *plugins.Plugin) {
	writeParams(c.out, p.Params())
}

func (c *Console) set(p *plugins.Plugin, key, value string) {
	if err := p.SetParam(key, value); err != nil {
		c.println(err.Error())
	}
}

func (c *Console) run(p *plugins.Plugin) {
	res, err := p.Run()
	if err != nil {
		c.println(err.Error())
		return
	}
	if res.PushErr != nil {
		c.printf("warning: parameters not applied: %v\n", res.PushErr)
	}
	if res.Failed() {
		c.printf("%s: run returned status %d\n", p.Name(), res.Status)
	}
	if err := p.RefreshParameters(); err != nil && !errors.Is(err, protocol.ErrCountMismatch) {
		c.println(err.Error())
	}
}

func (c *Console) time(p *plugins.Plugin) {
	d, err := p.RunTime()
	if err != nil {
		c.println(err.Error())
		return
	}
	c.printf("%s: last run took %v\n", p.Name(), d)
}

func (c *Console) help(p *plugins.Plugin) {
	info, err := p.Info()
	if err != nil {
		c.println(err.Error())
		return
	}
	// Modules without info text print their own help.
	if strings.TrimSpace(info) == "" {
		return
	}
	c.println(strings.TrimRight(info, "\n"))
}

func (c *Console) list() {
	names := c.reg.Names()
	if len(names) == 0 {
		c.println(msgNoneUp)
		return
	}
	c.println("Loaded plugins:")
	for _, name := range names {
		c.printf("\t - %s\n", name)
	}
	for _, name := range names {
		if p, ok := c.reg.Lookup(name); ok {
			writeParams(c.out, p.Params())
		}
	}
}

func (c *Console) printUsage() {
	fmt.Fprint(c.out, usage)
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func writeParams(w io.Writer, entries []params.Entry) {
	fmt.Fprint(w, "PARAM NAME:\t\tPARAM_VALUE\n")
	for _, e := range entries {
		fmt.Fprintf(w, "%s => %s\n", e.Key, e.Value)
	}
}
