package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/lockrisk/pkg/buildinfo"
	"github.com/matzehuels/lockrisk/pkg/depgraph"
	"github.com/matzehuels/lockrisk/pkg/errors"
	"github.com/matzehuels/lockrisk/pkg/pipeline"
	"github.com/matzehuels/lockrisk/pkg/session"
)

type errorResponse struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
}

type analysisResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name,omitempty"`
	Version         string           `json:"version,omitempty"`
	LockfileVersion int              `json:"lockfile_version,omitempty"`
	ExpiresAt       time.Time        `json:"expires_at"`
	Summary         depgraph.Summary `json:"summary"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, r, errors.New(errors.ErrCodeTooLarge, "lockfile exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidLockfile, "empty request body"))
		return
	}

	includeDev := s.cfg.IncludeDev
	if v := r.URL.Query().Get("include_dev"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "include_dev must be a boolean"))
			return
		}
		includeDev = b
	}
	source := r.Header.Get("X-Lockfile-Name")
	if source == "" {
		source = "upload"
	}

	a, err := s.runner.Analyze(r.Context(), data, pipeline.Options{Source: source, IncludeDev: includeDev})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := session.New(a, s.cfg.SessionTTL)
	if err := s.store.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store analysis"))
		return
	}

	w.Header().Set("Location", "/api/analyses/"+a.ID)
	writeJSON(w, http.StatusCreated, analysisResponse{
		ID:              a.ID,
		Name:            a.Name,
		Version:         a.Version,
		LockfileVersion: a.LockfileVersion,
		ExpiresAt:       sess.ExpiresAt,
		Summary:         a.Summary(s.cfg.TopN),
	})
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	a := sessionFrom(r.Context()).Analysis
	var buf bytes.Buffer
	if err := a.Export(&buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

func (s *Server) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), sessionFrom(r.Context()).ID); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "delete analysis"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", s.cfg.TopN)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Analysis.Summary(top))
}

func (s *Server) simulate(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "target is required"))
		return
	}
	if err := errors.ValidatePackageKey(target); err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", s.cfg.DisplayLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sim, err := sessionFrom(r.Context()).Analysis.Simulate(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sim.Truncate(limit))
}

func (s *Server) renderOptions(r *http.Request) (pipeline.RenderOptions, error) {
	q := r.URL.Query()
	opts := pipeline.RenderOptions{Detailed: s.cfg.Detailed, Target: q.Get("target")}
	if v := q.Get("detailed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "detailed must be a boolean")
		}
		opts.Detailed = b
	}
	n, err := intParam(r, "max_nodes", 0)
	if err != nil {
		return opts, err
	}
	opts.MaxNodes = n
	return opts, nil
}

func (s *Server) graphSVG(w http.ResponseWriter, r *http.Request) {
	opts, err := s.renderOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svg, hit, err := s.runner.RenderSVG(r.Context(), sessionFrom(r.Context()).Analysis, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Write(svg)
}

func (s *Server) graphDOT(w http.ResponseWriter, r *http.Request) {
	opts, err := s.renderOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dot, err := s.runner.DOT(sessionFrom(r.Context()).Analysis, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	io.WriteString(w, dot)
}

// intParam reads a non-negative integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative integer", name)
	}
	return n, nil
}
