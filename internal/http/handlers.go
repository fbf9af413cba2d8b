package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/carpool-matching/internal/dispatch"
	"github.com/example/carpool-matching/internal/events"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/observability"
)

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Welcome to the carpool matcher"))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req participantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	p := req.participant()
	if err := s.Store.CreateParticipant(r.Context(), p); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.poolChanged(r.Context(), events.Event{Type: events.ParticipantCreated, Participant: &p})
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.GetParticipant(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var patch participantPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	current, err := s.Store.GetParticipant(r.Context(), name)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	merged := fromParticipant(current)
	patch.applyTo(&merged)
	if err := s.validate.Struct(&merged); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	p := merged.participant()
	if err := s.Store.PutParticipant(r.Context(), p); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.poolChanged(r.Context(), events.Event{Type: events.ParticipantUpdated, Participant: &p})
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := s.Store.DeleteParticipant(r.Context(), name); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.poolChanged(r.Context(), events.Event{Type: events.ParticipantDeleted, Name: name})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRole(w http.ResponseWriter, r *http.Request) {
	role := models.RoleDriver
	if strings.HasSuffix(r.URL.Path, "/riders") {
		role = models.RoleRider
	}
	snap, err := s.Store.Snapshot(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	out := []models.Participant{}
	for _, p := range snap.Participants {
		if p.Role == role {
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDisruption(w http.ResponseWriter, r *http.Request) {
	var req disruptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	z := req.zone()
	if err := s.Store.AddDisruption(r.Context(), z); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.poolChanged(r.Context(), events.Event{Type: events.DisruptionCreated, Disruption: &z})
	writeJSON(w, http.StatusCreated, z)
}

func (s *Server) handleListDisruptions(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Store.Snapshot(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Disruptions)
}

func (s *Server) handleRecommendations(withDisruptions bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := s.Matcher.Recommend(r.Context(), mux.Vars(r)["name"], withDisruptions)
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		http.Error(w, "store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(200)
	w.Write([]byte("ready"))
}

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, err := s.Store.GetParticipant(r.Context(), name); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	recs, err := s.Matcher.Recommend(r.Context(), name, true)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "name", name, "error", err)
		return
	}
	s.WSReg.Attach(name, conn, dispatch.Update{Name: name, Recommendations: recs})
}

// poolChanged publishes e and refreshes every websocket subscriber. Both
// are best effort: the mutation has already been stored.
func (s *Server) poolChanged(ctx context.Context, e events.Event) {
	e.At = time.Now().UTC()
	if s.Events != nil {
		result := "ok"
		if err := s.Events.Publish(ctx, e); err != nil {
			result = "error"
			s.logger.Warn("event publish failed", "type", e.Type, "key", e.Key(), "error", err)
		}
		observability.EventsPublished.WithLabelValues(string(e.Type), result).Inc()
	}
	names := s.WSReg.Names()
	if len(names) == 0 {
		return
	}
	recs, err := s.Matcher.RecommendMany(ctx, names)
	if err != nil {
		s.logger.Warn("recommendation push skipped", "error", err)
		return
	}
	s.WSReg.Push(recs)
}
