package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	committeeengine "meridian/contexts/rating-operations/committee-engine"
	committeeerrors "meridian/contexts/rating-operations/committee-engine/domain/errors"
	committeehttp "meridian/contexts/rating-operations/committee-engine/transport/http"
	ratingscale "meridian/contexts/rating-operations/rating-scale"
	ratingscaleerrors "meridian/contexts/rating-operations/rating-scale/domain/errors"
	ratingscalehttp "meridian/contexts/rating-operations/rating-scale/transport/http"
	workflowengine "meridian/contexts/rating-operations/workflow-engine"
	workflowerrors "meridian/contexts/rating-operations/workflow-engine/domain/errors"
	workflowhttp "meridian/contexts/rating-operations/workflow-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "meridian/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	scale     ratingscale.Module
	workflow  workflowengine.Module
	committee committeeengine.Module
}

func New(
	scale ratingscale.Module,
	workflow workflowengine.Module,
	committee committeeengine.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		scale:     scale,
		workflow:  workflow,
		committee: committee,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/rating-scale/v1/classify", s.handleClassify)

	s.mux.HandleFunc("POST /api/workflow/v1/instances", s.handleCreateInstance)
	s.mux.HandleFunc("POST /api/workflow/v1/instances/{instance_id}/advance", s.handleAdvance)
	s.mux.HandleFunc("POST /api/workflow/v1/instances/{instance_id}/rollback", s.handleRollback)
	s.mux.HandleFunc("GET /api/workflow/v1/instances/{instance_id}/frontier", s.handleFrontier)
	s.mux.HandleFunc("GET /api/workflow/v1/instances/{instance_id}/rollbacks", s.handleRollbackHistory)

	s.mux.HandleFunc("POST /api/committee/v1/meetings", s.handleScheduleMeeting)
	s.mux.HandleFunc("GET /api/committee/v1/meetings", s.handleListMeetings)
	s.mux.HandleFunc("POST /api/committee/v1/meetings/{meeting_id}/members", s.handleAddMember)
	s.mux.HandleFunc("DELETE /api/committee/v1/meetings/{meeting_id}/members/{member_id}", s.handleRemoveMember)
	s.mux.HandleFunc("POST /api/committee/v1/meetings/{meeting_id}/cases", s.handleAddCase)
	s.mux.HandleFunc("POST /api/committee/v1/meetings/{meeting_id}/cases/{instrument_detail_id}/ballots", s.handleCastBallot)
	s.mux.HandleFunc("GET /api/committee/v1/meetings/{meeting_id}/cases/{instrument_detail_id}/summary", s.handleVotingSummary)
	s.mux.HandleFunc("GET /api/committee/v1/mandates/{mandate_id}/registers", s.handleMandateRegisters)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ratingscalehttp.ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScaleError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	action, err := s.scale.Classifier.Classify(r.Context(), req.PreviousRating, req.CurrentRating)
	if err != nil {
		writeScaleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratingscalehttp.ClassifyResponse{
		PreviousRating: req.PreviousRating,
		CurrentRating:  req.CurrentRating,
		RatingAction:   string(action),
	})
}

func (s *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var req workflowhttp.CreateInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWorkflowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.workflow.Handler.CreateInstanceHandler(r.Context(), resolveUserID(r), req)
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	instanceID := r.PathValue("instance_id")
	var req workflowhttp.AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWorkflowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.workflow.Handler.AdvanceHandler(r.Context(), instanceID, resolveUserID(r), req)
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	instanceID := r.PathValue("instance_id")
	var req workflowhttp.RollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWorkflowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.workflow.Handler.RollbackHandler(r.Context(), instanceID, resolveUserID(r), req)
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFrontier(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workflow.Handler.FrontierHandler(r.Context(), r.PathValue("instance_id"))
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRollbackHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.workflow.Handler.RollbackHistoryHandler(r.Context(), r.PathValue("instance_id"))
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	var req committeehttp.ScheduleMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommitteeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.committee.Handler.ScheduleMeetingHandler(r.Context(), req)
	if err != nil {
		writeCommitteeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.committee.Handler.ListMeetingsHandler(r.Context())
	if err != nil {
		writeCommitteeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("meeting_id")
	var req committeehttp.MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommitteeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.committee.Handler.AddMemberHandler(r.Context(), meetingID, req); err != nil {
		writeCommitteeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("meeting_id")
	memberID := r.PathValue("member_id")
	if err := s.committee.Handler.RemoveMemberHandler(r.Context(), meetingID, memberID); err != nil {
		writeCommitteeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddCase(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("meeting_id")
	var req committeehttp.AddCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommitteeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.committee.Handler.AddCaseHandler(r.Context(), meetingID, req)
	if err != nil {
		writeCommitteeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("meeting_id")
	instrumentDetailID := r.PathValue("instrument_detail_id")
	var req committeehttp.CastBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommitteeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.committee.Handler.CastBallotHandler(r.Context(), meetingID, instrumentDetailID, req)
	if err != nil {
		writeCommitteeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVotingSummary(w http.ResponseWriter, r *http.Request) {
	resp, err := s.committee.Handler.VotingSummaryHandler(
		r.Context(),
		r.PathValue("meeting_id"),
		r.PathValue("instrument_detail_id"),
	)
	if err != nil {
		writeCommitteeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMandateRegisters(w http.ResponseWriter, r *http.Request) {
	resp, err := s.committee.Handler.MandateRegistersHandler(r.Context(), r.PathValue("mandate_id"))
	if err != nil {
		writeCommitteeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeScaleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ratingscaleerrors.ErrInvalidRatingInput):
		writeScaleError(w, http.StatusBadRequest, "invalid_rating_input", err.Error())
	case errors.Is(err, ratingscaleerrors.ErrSymbolNotFound):
		writeScaleError(w, http.StatusNotFound, "symbol_not_found", err.Error())
	default:
		writeScaleError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeWorkflowDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflowerrors.ErrInvalidTransitionInput):
		writeWorkflowError(w, http.StatusBadRequest, "invalid_transition_input", err.Error())
	case errors.Is(err, workflowerrors.ErrActivityNotFound),
		errors.Is(err, workflowerrors.ErrEdgeNotFound),
		errors.Is(err, workflowerrors.ErrInstanceNotFound),
		errors.Is(err, workflowerrors.ErrMandateNotFound),
		errors.Is(err, workflowerrors.ErrInstrumentNotFound):
		writeWorkflowError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, workflowerrors.ErrInstanceExists):
		writeWorkflowError(w, http.StatusConflict, "instance_exists", err.Error())
	case errors.Is(err, workflowerrors.ErrInvalidState):
		writeWorkflowError(w, http.StatusUnprocessableEntity, "invalid_state", err.Error())
	case errors.Is(err, workflowerrors.ErrVotingPending):
		writeWorkflowError(w, http.StatusUnprocessableEntity, "voting_pending", err.Error())
	case errors.Is(err, workflowerrors.ErrPerformerUnresolved):
		writeWorkflowError(w, http.StatusUnprocessableEntity, "performer_unresolved", err.Error())
	case errors.Is(err, workflowerrors.ErrConcurrencyConflict):
		writeWorkflowError(w, http.StatusConflict, "concurrency_conflict", err.Error())
	default:
		writeWorkflowError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCommitteeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, committeeerrors.ErrInvalidCommitteeInput):
		writeCommitteeError(w, http.StatusBadRequest, "invalid_committee_input", err.Error())
	case errors.Is(err, committeeerrors.ErrMeetingNotFound),
		errors.Is(err, committeeerrors.ErrMemberNotFound),
		errors.Is(err, committeeerrors.ErrRegisterNotFound):
		writeCommitteeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, committeeerrors.ErrCaseExists):
		writeCommitteeError(w, http.StatusConflict, "case_exists", err.Error())
	case errors.Is(err, committeeerrors.ErrMinimumMembers):
		writeCommitteeError(w, http.StatusUnprocessableEntity, "minimum_members", err.Error())
	case errors.Is(err, committeeerrors.ErrConcurrencyConflict):
		writeCommitteeError(w, http.StatusConflict, "concurrency_conflict", err.Error())
	case errors.Is(err, ratingscaleerrors.ErrSymbolNotFound):
		writeCommitteeError(w, http.StatusUnprocessableEntity, "symbol_not_found", err.Error())
	default:
		writeCommitteeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeScaleError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ratingscalehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeWorkflowError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, workflowhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeCommitteeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, committeehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveUserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}
