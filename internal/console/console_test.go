package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danmuck/plugctl/internal/plugins"
	"github.com/danmuck/plugctl/internal/testutil/fakelib"
	"github.com/danmuck/plugctl/internal/testutil/testlog"
)

func newConsole(t *testing.T, input string) (*Console, *bytes.Buffer, *fakelib.Module) {
	t.Helper()
	loader := fakelib.NewLoader()
	m := loader.Add("plugins/prime.so", fakelib.NewModule(fakelib.GenFunctions,
		[]string{"outputFile", "limit"},
		[]string{"primes.txt", "100"},
	))
	m.Info = "prime: writes primes below limit"
	reg := plugins.NewRegistry(loader)
	t.Cleanup(func() { reg.Close() })

	var out bytes.Buffer
	return New(reg, strings.NewReader(input), &out), &out, m
}

func TestCommandValidityIsArityOnly(t *testing.T) {
	testlog.Start(t)
	cases := map[string]bool{
		"load a.so":          true,
		"load":               false,
		"load a.so b.so":     false,
		"view prime":         true,
		"set prime limit 50": true,
		"set prime limit":    false,
		"run prime":          true,
		"time prime":         true,
		"help prime":         true,
		"unload prime":       true,
		"list":               true,
		"list all":           false,
		"?":                  true,
		"exit":               true,
		"exit now":           false,
		"frobnicate x":       false,
	}
	for line, want := range cases {
		cmd, ok := ParseCommand(line)
		if !ok {
			t.Fatalf("expected %q to parse", line)
		}
		if got := cmd.Valid(); got != want {
			t.Fatalf("Valid(%q)=%v want %v", line, got, want)
		}
	}
	if _, ok := ParseCommand("   \t "); ok {
		t.Fatalf("expected blank line to be skipped")
	}
}

func TestSessionLoadSetRunView(t *testing.T) {
	testlog.Start(t)
	c, out, m := newConsole(t, "load plugins/prime.so\nset prime limit 50\nrun prime\nview prime\nexit\n")

	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	observed := m.Observed()
	if len(observed) != 1 || observed[0][1] != "50" {
		t.Fatalf("module observed %v", observed)
	}
	text := out.String()
	for _, want := range []string{
		"Options:",
		"loading: 'plugins/prime.so'",
		"PARAM NAME:\t\tPARAM_VALUE\noutputFile => primes.txt\nlimit => 50\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestUnknownPluginAndInvalidCommand(t *testing.T) {
	testlog.Start(t)
	c, out, _ := newConsole(t, "")

	c.Execute("run nobody")
	c.Execute("set prime limit")
	c.Execute("list")

	want := "plugin not found!\nInvalid command or invalid number of arguments\nNo plugins are loaded\n"
	if out.String() != want {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestDuplicateLoadAndUnknownKey(t *testing.T) {
	testlog.Start(t)
	c, out, _ := newConsole(t, "")

	c.Execute("load plugins/prime.so")
	out.Reset()
	c.Execute("load plugins/prime.so")
	if got := out.String(); got != "The plugin \"prime\" is already loaded\n" {
		t.Fatalf("unexpected duplicate output %q", got)
	}

	out.Reset()
	c.Execute("set prime bogus 1")
	if !strings.Contains(out.String(), plugins.ErrUnknownParameter.Error()) {
		t.Fatalf("expected unknown parameter message, got %q", out.String())
	}
}

func TestListHelpTimeAndUnload(t *testing.T) {
	testlog.Start(t)
	c, out, _ := newConsole(t, "")

	c.Execute("load plugins/prime.so")
	out.Reset()
	c.Execute("list")
	if !strings.HasPrefix(out.String(), "Loaded plugins:\n\t - prime\nPARAM NAME:") {
		t.Fatalf("unexpected list output %q", out.String())
	}

	out.Reset()
	c.Execute("help prime")
	if out.String() != "prime: writes primes below limit\n" {
		t.Fatalf("unexpected help output %q", out.String())
	}

	out.Reset()
	c.Execute("time prime")
	if out.String() != "prime: last run took 0s\n" {
		t.Fatalf("unexpected time output %q", out.String())
	}

	c.Execute("unload prime")
	out.Reset()
	c.Execute("view prime")
	if out.String() != "plugin not found!\n" {
		t.Fatalf("expected plugin gone after unload, got %q", out.String())
	}
}

func TestRunStopsAtEndOfInput(t *testing.T) {
	testlog.Start(t)
	c, out, _ := newConsole(t, "list\n   \n?")

	if err := c.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Count(out.String(), "Options:") != 2 {
		t.Fatalf("expected usage printed at start and for trailing ?, got:\n%s", out.String())
	}
	if exit := c.Execute("exit"); !exit {
		t.Fatalf("expected exit to stop the shell")
	}
}
