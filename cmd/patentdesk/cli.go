package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type cli struct {
	name   string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func run(args []string) int {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, now: time.Now}
	return c.run(args)
}

func (c *cli) run(args []string) int {
	c.name = "patentdesk"
	if len(args) > 0 && args[0] != "" {
		c.name = filepath.Base(args[0])
	}
	if c.now == nil {
		c.now = time.Now
	}
	if len(args) < 2 {
		c.usage()
		return exitUsage
	}

	switch args[1] {
	case "verify":
		return c.runVerify(args[2:])
	case "report":
		if len(args) >= 3 && args[2] == "show" {
			return c.runReportShow(args[3:])
		}
	case "index":
		if len(args) >= 3 && args[2] == "build" {
			return c.runIndexBuild(args[3:])
		}
	case "crosstab":
		return c.runCrossTab(args[2:])
	case "case":
		return c.runCase(args[2:])
	case "audit":
		if len(args) >= 3 && args[2] == "verify" {
			return c.runAuditVerify(args[3:])
		}
	case "help", "-h", "--help":
		c.usage()
		return exitOK
	}

	c.usage()
	return exitUsage
}

func (c *cli) usage() {
	fmt.Fprintf(c.stderr, "usage:\n")
	fmt.Fprintf(c.stderr, "  %s verify --in <doc.json> [--profile invoicing|billing] [--registry <file>] [--report-dir <dir>] [--policy <file.rego>] [--no-policy] [--audit-log <file>] [--audit-dsn <dsn>]\n", c.name)
	fmt.Fprintf(c.stderr, "  %s report show <report.json>\n", c.name)
	fmt.Fprintf(c.stderr, "  %s index build [--csv <export.csv>] [--out <dir>] [--encoding utf-8|big5]\n", c.name)
	fmt.Fprintf(c.stderr, "  %s crosstab [--dir <dir>] [--out <dir>] [--xlsx] [<first.json> <second.json>]\n", c.name)
	fmt.Fprintf(c.stderr, "  %s case <case-number> [--csv <export.csv>] [--encoding utf-8|big5]\n", c.name)
	fmt.Fprintf(c.stderr, "  %s audit verify [--log <file>] [--dsn <dsn>]\n", c.name)
}

func (c *cli) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// parseArgs parses flags that may appear before, between or after
// positional arguments and returns the positionals in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func (c *cli) errorf(format string, args ...any) {
	fmt.Fprintf(c.stderr, format+"\n", args...)
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.stdout, format, args...)
}
