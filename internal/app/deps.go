// Package app wires configuration into the verification use cases shared by
// the CLI and the HTTP service.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"patentdesk/internal/caseindex"
	"patentdesk/internal/config"
	"patentdesk/internal/domain"
	"patentdesk/internal/infra/auditlog"
	"patentdesk/internal/infra/cachemem"
	"patentdesk/internal/infra/cacheredis"
	"patentdesk/internal/infra/db"
	"patentdesk/internal/infra/policyopa"
	"patentdesk/internal/infra/reportfs"
	"patentdesk/internal/registry"
	"patentdesk/internal/usecase"
)

type Deps struct {
	Config   config.Config
	Logger   *zap.Logger
	Registry *registry.Registry
	Run      *usecase.RunVerification
	Audit    usecase.AuditEventRepository

	closers []func() error
}

// Build assembles a verification run from cfg. Optional parts (policy,
// cache, audit) are only wired when configured.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, actor domain.AuditActorType) (*Deps, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{Config: cfg, Logger: logger}

	reg, err := registry.LoadOrDefault(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	d.Registry = reg

	profile, err := domain.ProfileByName(cfg.DetailProfile)
	if err != nil {
		return nil, err
	}

	run := &usecase.RunVerification{
		Engine:    &usecase.VerifyDocument{Registry: reg, Profile: profile},
		Sink:      reportfs.NewWriter(cfg.ReportDir),
		CacheTTL:  cfg.CacheTTL(),
		ActorType: actor,
		Logger:    logger,
	}

	if cfg.PolicyEnabled {
		engine, err := policyopa.LoadEngine(ctx, cfg.PolicyPath)
		if err != nil {
			return nil, fmt.Errorf("load policy: %w", err)
		}
		run.Disposition = &usecase.DecideDisposition{Policy: engine, ReviewThreshold: cfg.ReviewThreshold}
	}

	run.Cache, err = d.buildCache(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}

	repo, closer, err := OpenAuditRepository(cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	if closer != nil {
		d.closers = append(d.closers, closer)
	}
	if repo != nil {
		d.Audit = repo
		run.Audit = usecase.NewAuditEmitter(repo, nil)
	}

	d.Run = run
	logger.Debug("verification wired",
		zap.String("profile", profile.Name),
		zap.String("registry_fingerprint", reg.Fingerprint()),
		zap.Bool("policy", run.Disposition != nil),
		zap.Bool("cache", run.Cache != nil),
		zap.Bool("audit", run.Audit != nil),
	)
	return d, nil
}

// buildCache prefers Redis when REDIS_ADDR is set and reachable, then falls
// back to an in-process cache. A zero TTL disables caching.
func (d *Deps) buildCache(ctx context.Context) (usecase.ResultCache, error) {
	if d.Config.CacheTTLSeconds <= 0 {
		return nil, nil
	}
	if d.Config.RedisAddr != "" {
		cache, err := cacheredis.NewCache(d.Config.RedisAddr, d.Config.RedisPassword, d.Config.RedisDB)
		if err != nil {
			return nil, err
		}
		if err := cache.Ping(ctx); err != nil {
			d.Logger.Warn("redis unavailable, using memory cache", zap.String("addr", d.Config.RedisAddr), zap.Error(err))
			_ = cache.Close()
		} else {
			d.closers = append(d.closers, cache.Close)
			return cache, nil
		}
	}
	return cachemem.New(), nil
}

// OpenAuditRepository returns the database repository when AUDIT_DSN is set,
// the JSON-lines log when AUDIT_LOG_PATH is set, or nil.
func OpenAuditRepository(cfg config.Config) (usecase.AuditEventRepository, func() error, error) {
	switch {
	case cfg.AuditDSN != "":
		store, err := db.Open(cfg.AuditDSN)
		if err != nil {
			return nil, nil, err
		}
		return db.NewAuditEventRepository(store.DB), store.Close, nil
	case cfg.AuditLogPath != "":
		log, err := auditlog.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, nil, err
		}
		return log, nil, nil
	}
	return nil, nil, nil
}

// LoadCases indexes the configured case export for lookups.
func LoadCases(cfg config.Config) (*caseindex.CaseSearcher, error) {
	if cfg.CaseCSVPath == "" {
		return nil, errors.New("no case export configured")
	}
	export, err := caseindex.LoadExportFile(cfg.CaseCSVPath, caseindex.WithEncoding(cfg.CSVEncoding))
	if err != nil {
		return nil, err
	}
	return caseindex.NewCaseSearcher(export, cfg.CaseColumn)
}

func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
