package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"patentdesk/internal/app"
	"patentdesk/internal/config"
	"patentdesk/internal/domain"
	httpinfra "patentdesk/internal/infra/http"
	"patentdesk/internal/logger"
)

func main() {
	cfg := config.FromEnv()

	zl, err := logger.NewZapLog(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()

	deps, err := app.Build(context.Background(), cfg, zl, domain.AuditActorService)
	if err != nil {
		zl.Fatal("failed to wire verification", zap.Error(err))
	}
	defer deps.Close()

	serverDeps := httpinfra.ServerDeps{
		Run:    deps.Run,
		Audit:  deps.Audit,
		Logger: zl,
	}
	if cases, err := app.LoadCases(cfg); err != nil {
		zl.Warn("case lookup disabled", zap.String("path", cfg.CaseCSVPath), zap.Error(err))
	} else {
		serverDeps.Cases = cases
	}

	srv := httpinfra.NewServerWithDeps(cfg, serverDeps)
	if err := srv.Run(); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}
