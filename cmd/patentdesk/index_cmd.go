package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"patentdesk/internal/caseindex"
	"patentdesk/internal/config"
	"patentdesk/internal/domain"
)

func (c *cli) runIndexBuild(args []string) int {
	cfg := config.FromEnv()
	fs := c.newFlagSet("index build")
	fs.StringVar(&cfg.CaseCSVPath, "csv", cfg.CaseCSVPath, "case export (.csv or .xlsx)")
	fs.StringVar(&cfg.CategoryDir, "out", cfg.CategoryDir, "index output directory")
	fs.StringVar(&cfg.CaseColumn, "case-column", cfg.CaseColumn, "case number column")
	fs.StringVar(&cfg.CSVEncoding, "encoding", cfg.CSVEncoding, "CSV encoding: utf-8 or big5")
	if _, err := parseArgs(fs, args); err != nil {
		return exitUsage
	}

	export, err := caseindex.LoadExportFile(cfg.CaseCSVPath, caseindex.WithEncoding(cfg.CSVEncoding))
	if err != nil {
		c.errorf("load export: %v", err)
		return exitFailure
	}
	paths, err := caseindex.BuildAll(export, cfg.CaseColumn, caseindex.DefaultCategories, cfg.CategoryDir)
	if err != nil {
		c.errorf("build indexes: %v", err)
		return exitFailure
	}
	for _, path := range paths {
		c.printf("saved %s\n", path)
	}
	return exitOK
}

func (c *cli) runCrossTab(args []string) int {
	cfg := config.FromEnv()
	fs := c.newFlagSet("crosstab")
	var xlsx bool
	fs.StringVar(&cfg.CategoryDir, "dir", cfg.CategoryDir, "index directory")
	fs.StringVar(&cfg.CrossTabDir, "out", cfg.CrossTabDir, "output directory")
	fs.BoolVar(&xlsx, "xlsx", false, "also write an .xlsx workbook")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return exitUsage
	}

	var first, second string
	switch len(positional) {
	case 2:
		first, second = c.indexPath(cfg.CategoryDir, positional[0]), c.indexPath(cfg.CategoryDir, positional[1])
	case 0:
		first, second, err = c.promptIndexes(cfg.CategoryDir)
		if err != nil {
			c.errorf("%v", err)
			return exitUsage
		}
	default:
		c.errorf("crosstab takes zero or two index files")
		return exitUsage
	}

	a, err := caseindex.LoadIndex(first)
	if err != nil {
		c.errorf("%v", err)
		return exitFailure
	}
	b, err := caseindex.LoadIndex(second)
	if err != nil {
		c.errorf("%v", err)
		return exitFailure
	}
	ct, err := caseindex.BuildCrossTab(a, b)
	if err != nil {
		c.errorf("%v", err)
		return exitFailure
	}

	if err := os.MkdirAll(cfg.CrossTabDir, 0o755); err != nil {
		c.errorf("create output dir: %v", err)
		return exitFailure
	}
	at := c.now()
	aName, bName := caseindex.IndexName(first), caseindex.IndexName(second)
	outputs := []string{caseindex.OutputName(aName, bName, "csv", at)}
	if xlsx {
		outputs = append(outputs, caseindex.OutputName(aName, bName, "xlsx", at))
	}
	for _, name := range outputs {
		path := filepath.Join(cfg.CrossTabDir, name)
		if err := writeCrossTab(path, ct); err != nil {
			c.errorf("write %s: %v", path, err)
			return exitFailure
		}
		c.printf("saved %s\n", path)
	}

	c.printf("\n%s vs %s (total %d)\n", aName, bName, ct.GrandTotal)
	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	for _, row := range ct.Table() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	return exitOK
}

func writeCrossTab(path string, ct *caseindex.CrossTab) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, ".xlsx") {
		err = ct.WriteXLSX(f)
	} else {
		err = ct.WriteCSV(f)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// indexPath resolves a bare index name against dir.
func (c *cli) indexPath(dir, name string) string {
	if strings.ContainsRune(name, os.PathSeparator) || strings.Contains(name, "/") {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	return filepath.Join(dir, name)
}

func (c *cli) promptIndexes(dir string) (string, string, error) {
	names, err := caseindex.ListIndexes(dir)
	if err != nil {
		return "", "", fmt.Errorf("list indexes: %w", err)
	}
	if len(names) < 2 {
		return "", "", fmt.Errorf("need at least two indexes in %s", dir)
	}
	c.printf("available indexes:\n")
	for i, name := range names {
		c.printf("  %d: %s\n", i+1, name)
	}

	scanner := bufio.NewScanner(c.stdin)
	pick := func(prompt string) (string, error) {
		c.printf("%s: ", prompt)
		if !scanner.Scan() {
			return "", errors.New("no selection")
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || n < 1 || n > len(names) {
			return "", fmt.Errorf("invalid selection %q", scanner.Text())
		}
		return filepath.Join(dir, names[n-1]), nil
	}
	first, err := pick("first index")
	if err != nil {
		return "", "", err
	}
	second, err := pick("second index")
	if err != nil {
		return "", "", err
	}
	return first, second, nil
}

func (c *cli) runCase(args []string) int {
	cfg := config.FromEnv()
	fs := c.newFlagSet("case")
	fs.StringVar(&cfg.CaseCSVPath, "csv", cfg.CaseCSVPath, "case export (.csv or .xlsx)")
	fs.StringVar(&cfg.CaseColumn, "case-column", cfg.CaseColumn, "case number column")
	fs.StringVar(&cfg.CSVEncoding, "encoding", cfg.CSVEncoding, "CSV encoding: utf-8 or big5")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return exitUsage
	}
	if len(positional) != 1 {
		c.errorf("case requires <case-number>")
		return exitUsage
	}

	export, err := caseindex.LoadExportFile(cfg.CaseCSVPath, caseindex.WithEncoding(cfg.CSVEncoding))
	if err != nil {
		c.errorf("load export: %v", err)
		return exitFailure
	}
	searcher, err := caseindex.NewCaseSearcher(export, cfg.CaseColumn)
	if err != nil {
		c.errorf("%v", err)
		return exitFailure
	}
	fields, err := searcher.Lookup(positional[0])
	if errors.Is(err, domain.ErrNotFound) {
		c.errorf("case %s not found", positional[0])
		return exitFailure
	}
	if err != nil {
		c.errorf("%v", err)
		return exitFailure
	}

	c.printf("case %s\n", positional[0])
	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	for _, field := range fields {
		fmt.Fprintf(tw, "  %s\t%s\n", field.Name, field.Value)
	}
	tw.Flush()
	return exitOK
}
