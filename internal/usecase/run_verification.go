package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"patentdesk/internal/document"
	"patentdesk/internal/domain"
)

// RunVerification takes one document end to end: engine, report, optional
// disposition, report sink and audit trail. Documents are handled one at a
// time; nothing is shared between runs except the read-only registry.
type RunVerification struct {
	Engine      *VerifyDocument
	Builder     ReportBuilder
	Disposition *DecideDisposition
	Sink        ReportSink
	Cache       ResultCache
	CacheTTL    time.Duration
	Audit       *AuditEmitter
	ActorType   domain.AuditActorType
	ActorID     string
	Logger      *zap.Logger
}

type RunRequest struct {
	Document domain.Document
	Source   domain.SourceRef
}

type RunResponse struct {
	Result     domain.VerificationResult
	Report     domain.Report
	ReportPath string
	Cached     bool
}

// ExecuteRaw decodes raw and runs it. Structural rejections are audited and
// returned as *domain.StructuralError.
func (uc *RunVerification) ExecuteRaw(ctx context.Context, raw []byte, sourcePath string) (RunResponse, error) {
	source := domain.SourceRef{Path: sourcePath}
	if digest, err := document.Digest(raw); err == nil {
		source.Digest = digest
	}
	doc, err := document.Decode(raw)
	if err != nil {
		var structural *domain.StructuralError
		if errors.As(err, &structural) && uc.Audit != nil {
			if auditErr := uc.Audit.EmitDocumentRejected(ctx, uc.actorType(), uc.ActorID, source, structural.Fields); auditErr != nil {
				uc.logger().Warn("audit rejected document failed", zap.Error(auditErr))
			}
		}
		return RunResponse{}, err
	}
	return uc.Execute(ctx, RunRequest{Document: doc, Source: source})
}

func (uc *RunVerification) Execute(ctx context.Context, req RunRequest) (RunResponse, error) {
	if uc == nil || uc.Engine == nil || uc.Engine.Registry == nil {
		return RunResponse{}, errors.New("verification engine with registry is required")
	}
	log := uc.logger()
	profile := uc.Engine.profile()

	var resp RunResponse
	key := uc.cacheKey(req.Source.Digest, profile.Name)
	if key != "" {
		cached, ok, err := uc.Cache.Get(ctx, key)
		if err != nil {
			log.Warn("result cache get failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			resp.Result = *cached
			resp.Cached = true
		}
	}
	if !resp.Cached {
		result, err := uc.Engine.Execute(ctx, req.Document)
		if err != nil {
			return RunResponse{}, err
		}
		resp.Result = result
		if key != "" {
			if err := uc.Cache.Put(ctx, key, result, uc.CacheTTL); err != nil {
				log.Warn("result cache put failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	report := uc.Builder.Build(resp.Result, profile.Name, req.Source)
	if uc.Disposition != nil {
		disposition, err := uc.Disposition.Execute(ctx, resp.Result, req.Document.PaymentSummary)
		if err != nil {
			return RunResponse{}, fmt.Errorf("disposition: %w", err)
		}
		report.Disposition = &disposition
	}
	resp.Report = report

	if uc.Sink != nil {
		path, err := uc.Sink.Write(ctx, report)
		if err != nil {
			return RunResponse{}, fmt.Errorf("write report: %w", err)
		}
		resp.ReportPath = path
	}

	log.Info("document verified",
		zap.String("report_id", report.ReportID),
		zap.String("source", req.Source.Path),
		zap.String("profile", profile.Name),
		zap.String("status", string(report.OverallStatus)),
		zap.Int("errors", len(report.Errors)),
		zap.Bool("cached", resp.Cached),
	)

	if uc.Audit != nil {
		if err := uc.Audit.EmitDocumentVerified(ctx, uc.actorType(), uc.ActorID, report, resp.ReportPath); err != nil {
			return resp, fmt.Errorf("audit: %w", err)
		}
	}
	return resp, nil
}

// WithProfile returns a copy of uc whose engine retains the sections of
// profile. uc itself is not modified.
func (uc *RunVerification) WithProfile(profile domain.DetailProfile) *RunVerification {
	out := *uc
	if uc.Engine != nil {
		engine := *uc.Engine
		engine.Profile = profile
		out.Engine = &engine
	}
	return &out
}

// cacheKey ties a cached result to the document, the detail profile and the
// registry contents it was computed against.
func (uc *RunVerification) cacheKey(digest, profile string) string {
	if uc.Cache == nil || digest == "" {
		return ""
	}
	return digest + ":" + profile + ":" + uc.Engine.Registry.Fingerprint()
}

func (uc *RunVerification) actorType() domain.AuditActorType {
	if uc.ActorType == "" {
		return domain.AuditActorCLI
	}
	return uc.ActorType
}

func (uc *RunVerification) logger() *zap.Logger {
	if uc == nil || uc.Logger == nil {
		return zap.NewNop()
	}
	return uc.Logger
}
