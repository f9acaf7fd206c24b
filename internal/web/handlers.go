package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/intake/internal/api"
	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/web/templates"
)

// healthTimeout bounds the storage ping behind /health.
const healthTimeout = 2 * time.Second

// handleSubmit accepts one JSON submission.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	sub, err := api.DecodeSubmission(body)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	res := s.service.Submit(withClient(r), sub)
	if res.Err != nil && res.Outcome == core.OutcomeWriteFailed {
		logFor(r).Error("submission write failed",
			"submission_id", res.SubmissionID,
			"error", res.Err,
		)
	}

	writeJSON(w, r, api.StatusFor(res.Outcome), api.NewSubmitResponse(res))
}

// handleGetEmployee returns a single stored employee.
func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Lookup(withClient(r), chi.URLParam(r, "employeeID"))
	if err != nil {
		respondError(w, r, err, api.ErrorStatus(err))
		return
	}
	writeJSON(w, r, http.StatusOK, api.NewEmployeeResponse(rec))
}

// handleRules returns the field rule table.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, api.NewRulesResponse(s.service.Rules(), s.service.Today()))
}

// handleNormalize applies one incremental edit.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	req, err := api.DecodeNormalize(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, r, http.StatusOK, api.NormalizeResponse{
		Field: req.Field,
		Value: s.service.Normalize(req.Field, req.Previous, req.Value),
	})
}

// handleForm renders an empty intake form.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, r, http.StatusOK, templates.FormView{Values: core.EmptySubmission})
}

// handleFormSubmit processes a form post and re-renders the form. The form
// resets after an accepted submission and keeps the entered values otherwise.
func (s *Server) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		respondError(w, r, api.ErrMalformed, http.StatusBadRequest)
		return
	}

	var sub core.Submission
	for _, rule := range s.service.Rules() {
		sub.Set(rule.Field, r.PostForm.Get(rule.Field))
	}

	res := s.service.Submit(withClient(r), sub)
	if res.Err != nil && res.Outcome == core.OutcomeWriteFailed {
		logFor(r).Error("submission write failed",
			"submission_id", res.SubmissionID,
			"error", res.Err,
		)
	}

	view := templates.FormView{
		Values:  sub,
		Errors:  res.Errors.ByField(),
		Flash:   res.Message,
		Code:    core.OutcomeMessage(res.Outcome).Code,
		Success: res.Accepted(),
	}
	if res.Accepted() {
		view.Values = core.EmptySubmission
	}
	s.renderForm(w, r, api.StatusFor(res.Outcome), view)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, view templates.FormView) {
	view.Rules = s.service.Rules()
	view.Today = s.service.Today().Format(core.DateLayout)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.IntakePage(view).Render(r.Context(), w); err != nil {
		logFor(r).Error("render intake form", "error", err)
	}
}

// handleHealth pings storage and reports write slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := api.HealthResponse{
		Status:  "ok",
		Storage: s.cfg.Storage.Driver,
		Writes:  s.service.LimiterStatus(),
	}
	status := http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		logFor(r).Warn("health check failed", "error", err)
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}
