package api

import (
	"encoding/json"
	"net/http"

	"github.com/kpmtools/kpm/pkg/cache"
	kpmerrors "github.com/kpmtools/kpm/pkg/errors"
	"github.com/kpmtools/kpm/pkg/report"
)

// resolveRequest is the body of POST /api/v1/resolve.
type resolveRequest struct {
	// Packages are the package names to resolve. At least one is required.
	Packages []string `json:"packages"`

	// IncludeInstalled enables the installed-package fallback.
	IncludeInstalled bool `json:"include_installed,omitempty"`

	// MaxDepth bounds transitive expansion for this request. Zero uses
	// the server's configured bound.
	MaxDepth int `json:"max_depth,omitempty"`

	// Refresh bypasses the report cache for this request.
	Refresh bool `json:"refresh,omitempty"`
}

type errorResponse struct {
	Error     string         `json:"error"`
	Code      kpmerrors.Code `json:"code,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// handleResolve runs a resolution and returns the report. The serialized
// report is cached by request shape; Refresh forces recomputation.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, kpmerrors.New(kpmerrors.ErrCodeInvalidInput, "invalid JSON body"))
		return
	}
	if len(req.Packages) == 0 {
		s.writeError(w, r, http.StatusBadRequest, kpmerrors.New(kpmerrors.ErrCodeInvalidInput, "packages must not be empty"))
		return
	}
	if req.MaxDepth < 0 {
		s.writeError(w, r, http.StatusBadRequest, kpmerrors.New(kpmerrors.ErrCodeInvalidInput, "max_depth must not be negative"))
		return
	}
	for _, name := range req.Packages {
		if err := kpmerrors.ValidatePackageName(name); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}

	ctx := r.Context()
	key := s.keyer.ReportKey(req.Packages, cache.ReportKeyOpts{
		IncludeInstalled: req.IncludeInstalled,
		MaxDepth:         req.MaxDepth,
	})

	if !req.Refresh {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			s.writeJSON(w, http.StatusOK, json.RawMessage(data))
			return
		}
	}

	rep := s.resolver.WithMaxDepth(req.MaxDepth).GenerateReport(ctx, req.Packages, req.IncludeInstalled)
	data, err := report.Marshal(rep)
	if err != nil {
		s.logger.Error("marshal report failed", "id", requestIDFromContext(ctx), "err", err)
		s.writeError(w, r, http.StatusInternalServerError, kpmerrors.Wrap(kpmerrors.ErrCodeInternal, err, "failed to serialize report"))
		return
	}

	if err := s.cache.Set(ctx, key, data, cache.TTLReport); err != nil {
		s.logger.Warn("report cache write failed", "id", requestIDFromContext(ctx), "err", err)
	}

	s.writeJSON(w, http.StatusOK, json.RawMessage(data))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.writeJSON(w, status, errorResponse{
		Error:     kpmerrors.UserMessage(err),
		Code:      kpmerrors.GetCode(err),
		RequestID: requestIDFromContext(r.Context()),
	})
}
