package main

import "patentdesk/internal/infra/reportfs"

func (c *cli) runReportShow(args []string) int {
	fs := c.newFlagSet("report show")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return exitUsage
	}
	if len(positional) != 1 {
		c.errorf("report show requires <report.json>")
		return exitUsage
	}
	report, err := reportfs.Read(positional[0])
	if err != nil {
		c.errorf("%v", err)
		return exitFailure
	}
	renderReport(c.stdout, report)
	return exitOK
}
