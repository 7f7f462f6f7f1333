package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	roundengine "pointdeck/contexts/estimation/round-engine"
	rounderrors "pointdeck/contexts/estimation/round-engine/domain/errors"
	roundhttp "pointdeck/contexts/estimation/round-engine/transport/http"
	roomservice "pointdeck/contexts/estimation/room-service"
	roomerrors "pointdeck/contexts/estimation/room-service/domain/errors"
	roomhttp "pointdeck/contexts/estimation/room-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "pointdeck/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	rooms  roomservice.Module
	rounds roundengine.Module
}

func New(
	rooms roomservice.Module,
	rounds roundengine.Module,
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
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		rooms:  rooms,
		rounds: rounds,
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

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/rooms", s.handleCreateRoom)
	s.mux.HandleFunc("GET /v1/rooms", s.handleListRooms)
	s.mux.HandleFunc("GET /v1/rooms/{room_id}", s.handleGetRoom)
	s.mux.HandleFunc("PATCH /v1/rooms/{room_id}", s.handleUpdateRoom)
	s.mux.HandleFunc("POST /v1/rooms/join", s.handleJoinRoom)
	s.mux.HandleFunc("GET /v1/rooms/code/{code}", s.handleGetRoomByCode)
	s.mux.HandleFunc("PUT /v1/rooms/{room_id}/participants/{user_id}/role", s.handleChangeRole)
	s.mux.HandleFunc("POST /v1/rooms/{room_id}/leave", s.handleLeaveRoom)

	s.mux.HandleFunc("POST /v1/rooms/{room_id}/stories", s.handleCreateStory)
	s.mux.HandleFunc("GET /v1/rooms/{room_id}/stories", s.handleListStories)
	s.mux.HandleFunc("PATCH /v1/stories/{story_id}", s.handleUpdateStory)
	s.mux.HandleFunc("DELETE /v1/stories/{story_id}", s.handleDeleteStory)

	s.mux.HandleFunc("POST /v1/stories/{story_id}/rounds", s.handleStartRound)
	s.mux.HandleFunc("POST /v1/stories/{story_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("POST /v1/stories/{story_id}/reveal", s.handleReveal)
	s.mux.HandleFunc("POST /v1/stories/{story_id}/finalize", s.handleFinalize)
	s.mux.HandleFunc("GET /v1/stories/{story_id}/rounds", s.handleRoundHistory)
	s.mux.HandleFunc("GET /v1/stories/{story_id}/rounds/{round_id}", s.handleRoundVotes)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req roomhttp.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoomError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.rooms.Handler.CreateRoomHandler(r.Context(), userID, r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		writeRoomDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.rooms.Handler.ListRoomsHandler(r.Context(), userID)
	if err != nil {
		writeRoomDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.rooms.Handler.GetRoomHandler(r.Context(), r.PathValue("room_id"), userID)
	if err != nil {
		writeRoomDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req roomhttp.UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoomError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.rooms.Handler.UpdateRoomHandler(r.Context(), r.PathValue("room_id"), userID, req)
	if err != nil {
		writeRoomDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req roomhttp.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoomError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.rooms.Handler.JoinRoomHandler(r.Context(), userID, req)
	if err != nil {
		writeRoomDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRoomByCode(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rooms.Handler.GetRoomByCodeHandler(r.Context(), r.PathValue("code"))
	if err != nil {
		writeRoomDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req roomhttp.ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoomError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.rooms.Handler.ChangeRoleHandler(
		r.Context(),
		r.PathValue("room_id"),
		r.PathValue("user_id"),
		actorID,
		req,
	)
	if err != nil {
		writeRoomDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.rooms.Handler.LeaveRoomHandler(r.Context(), r.PathValue("room_id"), userID); err != nil {
		writeRoomDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req roundhttp.CreateStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoundError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.rounds.Handler.CreateStoryHandler(r.Context(), r.PathValue("room_id"), userID, req)
	if err != nil {
		writeRoundDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.rounds.Handler.ListStoriesHandler(r.Context(), r.PathValue("room_id"), userID)
	if err != nil {
		writeRoundDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req roundhttp.UpdateStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoundError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.rounds.Handler.UpdateStoryHandler(r.Context(), r.PathValue("story_id"), userID, req)
	if err != nil {
		writeRoundDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.rounds.Handler.DeleteStoryHandler(r.Context(), r.PathValue("story_id"), userID); err != nil {
		writeRoundDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.rounds.Handler.StartRoundHandler(r.Context(), r.PathValue("story_id"), userID)
	if err != nil {
		writeRoundDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req roundhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoundError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.rounds.Handler.CastVoteHandler(r.Context(), r.PathValue("story_id"), userID, req)
	if err != nil {
		writeRoundDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req roundhttp.RevealRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeRoundError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	resp, err := s.rounds.Handler.RevealHandler(r.Context(), r.PathValue("story_id"), userID, req)
	if err != nil {
		writeRoundDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req roundhttp.FinalizeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeRoundError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}
	resp, err := s.rounds.Handler.FinalizeHandler(r.Context(), r.PathValue("story_id"), userID, req)
	if err != nil {
		writeRoundDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoundHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.rounds.Handler.RoundHistoryHandler(r.Context(), r.PathValue("story_id"), userID)
	if err != nil {
		writeRoundDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoundVotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.rounds.Handler.RoundVotesHandler(
		r.Context(),
		r.PathValue("story_id"),
		r.PathValue("round_id"),
		userID,
	)
	if err != nil {
		writeRoundDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeRoomError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func writeRoomDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roomerrors.ErrRoomNotFound):
		writeRoomError(w, http.StatusNotFound, "room_not_found", err.Error())
	case errors.Is(err, roomerrors.ErrParticipantNotFound):
		writeRoomError(w, http.StatusNotFound, "participant_not_found", err.Error())
	case errors.Is(err, roomerrors.ErrRoomClosed):
		writeRoomError(w, http.StatusGone, "room_closed", err.Error())
	case errors.Is(err, roomerrors.ErrForbidden):
		writeRoomError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, roomerrors.ErrLastFacilitator):
		writeRoomError(w, http.StatusConflict, "last_facilitator", err.Error())
	case errors.Is(err, roomerrors.ErrIdempotencyKeyRequired):
		writeRoomError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, roomerrors.ErrIdempotencyKeyConflict),
		errors.Is(err, roomerrors.ErrConflict),
		errors.Is(err, roomerrors.ErrCodeExhausted):
		writeRoomError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, roomerrors.ErrUnknownScale):
		writeRoomError(w, http.StatusUnprocessableEntity, "unknown_scale", err.Error())
	case errors.Is(err, roomerrors.ErrInvalidRoomInput):
		writeRoomError(w, http.StatusBadRequest, "invalid_room_input", err.Error())
	default:
		writeRoomError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRoundDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rounderrors.ErrStoryNotFound):
		writeRoundError(w, http.StatusNotFound, "story_not_found", err.Error())
	case errors.Is(err, rounderrors.ErrRoundNotFound):
		writeRoundError(w, http.StatusNotFound, "round_not_found", err.Error())
	case errors.Is(err, rounderrors.ErrRoomNotFound):
		writeRoundError(w, http.StatusNotFound, "room_not_found", err.Error())
	case errors.Is(err, rounderrors.ErrVoteNotFound):
		writeRoundError(w, http.StatusNotFound, "vote_not_found", err.Error())
	case errors.Is(err, rounderrors.ErrForbidden):
		writeRoundError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, rounderrors.ErrRoomNotActive):
		writeRoundError(w, http.StatusConflict, "room_not_active", err.Error())
	case errors.Is(err, rounderrors.ErrRoundActive):
		writeRoundError(w, http.StatusConflict, "round_active", err.Error())
	case errors.Is(err, rounderrors.ErrAlreadyRevealed):
		writeRoundError(w, http.StatusConflict, "already_revealed", err.Error())
	case errors.Is(err, rounderrors.ErrNoActiveRound):
		writeRoundError(w, http.StatusConflict, "no_active_round", err.Error())
	case errors.Is(err, rounderrors.ErrRoundClosed):
		writeRoundError(w, http.StatusConflict, "round_closed", err.Error())
	case errors.Is(err, rounderrors.ErrRoundMismatch):
		writeRoundError(w, http.StatusConflict, "round_mismatch", err.Error())
	case errors.Is(err, rounderrors.ErrInvalidStoryState):
		writeRoundError(w, http.StatusConflict, "invalid_story_state", err.Error())
	case errors.Is(err, rounderrors.ErrConflict):
		writeRoundError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, rounderrors.ErrInvalidValue):
		writeRoundError(w, http.StatusUnprocessableEntity, "invalid_value", err.Error())
	case errors.Is(err, rounderrors.ErrInvalidStoryInput):
		writeRoundError(w, http.StatusBadRequest, "invalid_story_input", err.Error())
	case errors.Is(err, rounderrors.ErrPersistenceFailure):
		writeRoundError(w, http.StatusInternalServerError, "persistence_failure", err.Error())
	default:
		writeRoundError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRoomError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, roomhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeRoundError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, roundhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
