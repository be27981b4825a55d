package main

import (
	"context"
	"errors"
	"os"

	"patentdesk/internal/app"
	"patentdesk/internal/config"
	"patentdesk/internal/domain"
	"patentdesk/internal/logger"
)

func (c *cli) runVerify(args []string) int {
	cfg := config.FromEnv()
	fs := c.newFlagSet("verify")

	var inPath, actorID, logLevel string
	var noPolicy bool
	fs.StringVar(&inPath, "in", "", "document JSON file")
	fs.StringVar(&cfg.DetailProfile, "profile", cfg.DetailProfile, "detail profile: invoicing or billing")
	fs.StringVar(&cfg.RegistryPath, "registry", cfg.RegistryPath, "known companies file (.yaml or .json)")
	fs.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "report output directory")
	fs.StringVar(&cfg.PolicyPath, "policy", cfg.PolicyPath, "release policy (.rego)")
	fs.BoolVar(&noPolicy, "no-policy", false, "skip the release policy")
	fs.Float64Var(&cfg.ReviewThreshold, "review-threshold", cfg.ReviewThreshold, "hold documents whose total payment exceeds this amount (0 disables)")
	fs.StringVar(&cfg.AuditLogPath, "audit-log", cfg.AuditLogPath, "audit JSON-lines file")
	fs.StringVar(&cfg.AuditDSN, "audit-dsn", cfg.AuditDSN, "audit database DSN")
	fs.StringVar(&actorID, "actor", os.Getenv("USER"), "operator recorded (hashed) in the audit trail")
	fs.StringVar(&logLevel, "log-level", "warn", "log level")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return exitUsage
	}
	if inPath == "" && len(positional) == 1 {
		inPath = positional[0]
	}
	if inPath == "" {
		c.errorf("verify requires --in <doc.json>")
		return exitUsage
	}
	if noPolicy {
		cfg.PolicyEnabled = false
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		c.errorf("read document: %v", err)
		return exitFailure
	}

	ctx := context.Background()
	deps, err := app.Build(ctx, cfg, logger.Must(logLevel), domain.AuditActorCLI)
	if err != nil {
		c.errorf("%v", err)
		if errors.Is(err, domain.ErrUnknownProfile) {
			return exitUsage
		}
		return exitFailure
	}
	defer deps.Close()
	deps.Run.ActorID = actorID

	resp, err := deps.Run.ExecuteRaw(ctx, raw, inPath)
	if err != nil {
		var structural *domain.StructuralError
		if errors.As(err, &structural) {
			c.errorf("%s: %v", inPath, err)
			return exitUsage
		}
		c.errorf("verify %s: %v", inPath, err)
		return exitFailure
	}

	renderReport(c.stdout, resp.Report)
	if resp.ReportPath != "" {
		c.printf("report saved to %s\n", resp.ReportPath)
	}
	if resp.Report.Passed() {
		return exitOK
	}
	return exitFailure
}
