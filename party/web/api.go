package web

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/liuran001/WatchParty-Go/party"
	"github.com/liuran001/WatchParty-Go/party/feedback"
	"github.com/liuran001/WatchParty-Go/party/room"
	"github.com/liuran001/WatchParty-Go/party/validation"
)

const maxRequestBytes = 64 << 10

type parseResponse struct {
	Supported bool `json:"supported"`
	*room.ParsedGame
	Override string `json:"override,omitempty"`
	ChatURL  string `json:"chatUrl,omitempty"`
}

type statusResponse struct {
	Health party.HealthReport `json:"health"`
	Games  []party.GameView   `json:"games"`
}

type serverResponse struct {
	Server  string `json:"server"`
	Default string `json:"default"`
	Custom  bool   `json:"custom"`
}

type serverRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "url query parameter required")
		return
	}
	writeJSON(w, http.StatusOK, s.parse(raw))
}

func (s *Server) parse(raw string) parseResponse {
	parsed, ok := s.codec.Parse(raw)
	if !ok {
		return parseResponse{Supported: false}
	}
	return parseResponse{
		Supported:  true,
		ParsedGame: &parsed,
		Override:   room.OverrideParam(parsed.RoomID),
		ChatURL:    s.codec.Describe(parsed.RoomID).ChatURL,
	}
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		writeError(w, http.StatusBadRequest, "room query parameter required")
		return
	}
	writeJSON(w, http.StatusOK, s.codec.Describe(roomID))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Games: []party.GameView{}}
	if s.status != nil {
		resp.Health = s.status.Health()
		resp.Games = s.status.Games()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) serverState(r *http.Request) serverResponse {
	current := s.addr.Get(r.Context())
	def := s.addr.Default()
	return serverResponse{Server: current, Default: def, Custom: current != def}
}

func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.serverState(r))
}

func (s *Server) handleSetServer(w http.ResponseWriter, r *http.Request) {
	var req serverRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.addr.Set(r.Context(), req.URL); err != nil {
		s.internalError(w, "save server address", err)
		return
	}
	s.refresh(r.Context())
	writeJSON(w, http.StatusOK, s.serverState(r))
}

func (s *Server) handleResetServer(w http.ResponseWriter, r *http.Request) {
	if err := s.addr.Reset(r.Context()); err != nil {
		s.internalError(w, "reset server address", err)
		return
	}
	s.refresh(r.Context())
	writeJSON(w, http.StatusOK, s.serverState(r))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback is disabled")
		return
	}

	var req feedback.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := s.feedback.Submit(r.Context(), clientKey(r), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, entry)
	case errors.Is(err, feedback.ErrRateLimited):
		w.Header().Set("Retry-After", "10")
		writeError(w, http.StatusTooManyRequests, "too many feedback messages, try again later")
	case errors.Is(err, feedback.ErrInvalid):
		body := errorBody{Error: "invalid feedback"}
		var ve *validation.Error
		if errors.As(err, &ve) {
			body.Error = ve.Error()
			body.Fields = ve.Fields
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, feedback.ErrDelivery):
		if s.logger != nil {
			s.logger.Warn("feedback stored but not delivered", "error", err)
		}
		writeJSON(w, http.StatusBadGateway, entry)
	default:
		s.internalError(w, "submit feedback", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "error", err)
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

// clientKey identifies the caller for rate limiting. Proxy headers count only
// when RealIP is installed.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
