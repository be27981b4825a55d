package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"patentdesk/internal/caseindex"
	"patentdesk/internal/domain"
	"patentdesk/internal/usecase"
)

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type verificationResponse struct {
	Report     domain.Report `json:"report"`
	ReportPath string        `json:"report_path,omitempty"`
	Cached     bool          `json:"cached"`
}

type caseResponse struct {
	CaseNumber string            `json:"case_number"`
	Fields     []caseindex.Field `json:"fields"`
}

type auditChainResponse struct {
	Events int  `json:"events"`
	Valid  bool `json:"valid"`
}

func (s *Server) handleVerify(c *gin.Context) {
	if s.run == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "UNAVAILABLE", "verification is not configured")
		return
	}
	profile, err := domain.ProfileByName(c.Query("profile"))
	if err != nil {
		writeError(c, err)
		return
	}
	source := strings.TrimSpace(c.Query("source"))
	if source == "" {
		source = "request.json"
	}

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorCode(c, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
			return
		}
		writeErrorCode(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	s.runMu.Lock()
	resp, err := s.run.WithProfile(profile).ExecuteRaw(c.Request.Context(), raw, source)
	s.runMu.Unlock()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verificationResponse{
		Report:     resp.Report,
		ReportPath: resp.ReportPath,
		Cached:     resp.Cached,
	})
}

func (s *Server) handleCase(c *gin.Context) {
	if s.cases == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "no case export configured")
		return
	}
	caseNumber := strings.TrimSpace(c.Param("case_number"))
	fields, err := s.cases.Lookup(caseNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, caseResponse{CaseNumber: caseNumber, Fields: fields})
}

func (s *Server) handleAuditChain(c *gin.Context) {
	if s.audit == nil {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "audit trail is not configured")
		return
	}
	n, err := usecase.VerifyAuditChain(c.Request.Context(), s.audit)
	if err != nil {
		c.JSON(http.StatusConflict, errorResponse{
			Code:    "AUDIT_CHAIN_INVALID",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, auditChainResponse{Events: n, Valid: true})
}

func writeError(c *gin.Context, err error) {
	var structural *domain.StructuralError
	if errors.As(err, &structural) {
		details := map[string]any{"fields": structural.Fields}
		if structural.Reason != "" {
			details["reason"] = structural.Reason
		}
		c.JSON(http.StatusBadRequest, errorResponse{
			Code:    domain.AuditErrorStructural,
			Message: err.Error(),
			Details: details,
		})
		return
	}

	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrMalformedDocument):
		status, code = http.StatusBadRequest, domain.AuditErrorStructural
	case errors.Is(err, domain.ErrUnknownProfile):
		status, code = http.StatusBadRequest, "UNKNOWN_PROFILE"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
