package main

import (
	"context"

	"patentdesk/internal/app"
	"patentdesk/internal/config"
	"patentdesk/internal/usecase"
)

func (c *cli) runAuditVerify(args []string) int {
	cfg := config.FromEnv()
	fs := c.newFlagSet("audit verify")
	fs.StringVar(&cfg.AuditLogPath, "log", cfg.AuditLogPath, "audit JSON-lines file")
	fs.StringVar(&cfg.AuditDSN, "dsn", cfg.AuditDSN, "audit database DSN")
	if _, err := parseArgs(fs, args); err != nil {
		return exitUsage
	}

	repo, closer, err := app.OpenAuditRepository(cfg)
	if err != nil {
		c.errorf("open audit trail: %v", err)
		return exitFailure
	}
	if repo == nil {
		c.errorf("audit verify requires --log or --dsn")
		return exitUsage
	}
	if closer != nil {
		defer closer()
	}

	n, err := usecase.VerifyAuditChain(context.Background(), repo)
	if err != nil {
		c.errorf("audit chain invalid: %v", err)
		return exitFailure
	}
	c.printf("audit chain ok: %d events\n", n)
	return exitOK
}
