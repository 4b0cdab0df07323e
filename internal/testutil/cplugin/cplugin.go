// Package cplugin compiles a small C plugin for tests that need a real shared
// library. Tests skip when no C compiler is on PATH.
package cplugin

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Preprocessor switches understood by Source.
const (
	// Static exports NUM_ARGS and queryParamInfo instead of getNumArgs,
	// getParamInfo and displayPluginInfo.
	Static = "STATIC_ABI"
	// NoRun leaves out the run entry point.
	NoRun = "NO_RUN"
)

// Source is a two-parameter plugin (outputFile, limit) written the way the C
// plugin template is: fixed 256-byte slots, a separator count check and a
// strtok split in setParams, and a NULL displayPluginInfo.
const Source = `#include <stdio.h>
#include <stdlib.h>
#include <string.h>
#include <time.h>

#define NUM_PARAMS 2
#define SLOT 256

static char params[NUM_PARAMS][SLOT] = {"primes.txt", "101"};
static clock_t elapsed = 0;
static int last_limit = 0;

#ifdef STATIC_ABI
int NUM_ARGS = NUM_PARAMS;
const char* queryParamInfo(void) { return "outputFile,limit"; }
#else
int getNumArgs(void) { return NUM_PARAMS; }
const char* getParamInfo(void) { return "outputFile,limit"; }
void* displayPluginInfo(void) { return NULL; }
#endif

int setParams(const char* buf) {
	char copy[NUM_PARAMS * SLOT];
	size_t n = strlen(buf);
	int seps = 0;
	int i = 0;
	char* tok;
	if (n + 1 > sizeof(copy)) return -1;
	for (size_t k = 0; k < n; k++) if (buf[k] == 0x1f) seps++;
	if (seps + 1 != NUM_PARAMS) return -1;
	memcpy(copy, buf, n + 1);
	for (tok = strtok(copy, "\x1f"); tok != NULL && i < NUM_PARAMS; tok = strtok(NULL, "\x1f")) {
		if (strlen(tok) >= SLOT) return -1;
		strcpy(params[i++], tok);
	}
	return 0;
}

int getParams(char* buf, int size) {
	int w = snprintf(buf, size, "%s\x1f%s", params[0], params[1]);
	if (w < 0 || w >= size) return -1;
	return 0;
}

#ifndef NO_RUN
int run(void) {
	clock_t start = clock();
	last_limit = atoi(params[1]);
	elapsed = clock() - start;
	return 0;
}
#endif

clock_t getRunTime(void) { return elapsed; }

int lastLimit(void) { return last_limit; }
`

// Build compiles Source with the given defines into a fresh shared library
// and returns its path.
func Build(t *testing.T, name string, defines ...string) string {
	t.Helper()
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("cc not available")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, name+".c")
	if err := os.WriteFile(src, []byte(Source), 0o600); err != nil {
		t.Fatalf("write plugin source: %v", err)
	}
	out := filepath.Join(dir, name+".so")
	args := []string{"-shared", "-fPIC", "-o", out, src}
	for _, d := range defines {
		args = append(args, "-D"+d)
	}
	if output, err := exec.Command(cc, args...).CombinedOutput(); err != nil {
		t.Fatalf("compile plugin: %v\n%s", err, output)
	}
	return out
}
