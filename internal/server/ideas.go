package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/gtmcraft/internal/craft"
	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/ideas"
)

type saveIdeaRequest struct {
	Idea  ideas.ParsedIdea `json:"idea"`
	ICPID *string          `json:"icpId"`
}

type addIdeaRequest struct {
	ideas.Idea
	ICPID *string `json:"icpId"`
}

type scoreRequest struct {
	Value *int `json:"value"`
}

func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	list, err := s.db.GetIdeasForClient(chi.URLParam(r, "clientID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []database.GeneratedIdea{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddIdea(w http.ResponseWriter, r *http.Request) {
	var req addIdeaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	idea, err := s.crafter.AddManualIdea(chi.URLParam(r, "clientID"), req.Idea, req.ICPID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (s *Server) handleGenerateIdeas(w http.ResponseWriter, r *http.Request) {
	var form craft.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	parsed, err := s.crafter.GenerateIdeas(r.Context(), chi.URLParam(r, "clientID"), form)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

func (s *Server) handleSaveIdea(w http.ResponseWriter, r *http.Request) {
	var req saveIdeaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	idea, err := s.crafter.SaveIdea(chi.URLParam(r, "clientID"), req.Idea, req.ICPID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (s *Server) handleScoreIdea(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.ownedIdea(w, r); !ok {
		return
	}
	var req scoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	score, err := s.crafter.ScoreIdea(chi.URLParam(r, "id"), req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"score": score})
}

func (s *Server) handleDeleteIdea(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.ownedIdea(w, r); !ok {
		return
	}
	if err := s.crafter.DeleteIdea(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ownedIdea(w http.ResponseWriter, r *http.Request) (*database.GeneratedIdea, bool) {
	idea, err := s.db.GetIdea(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if idea == nil || idea.ClientID != database.ClientOrDefault(chi.URLParam(r, "clientID")) {
		writeMessage(w, http.StatusNotFound, "idea not found")
		return nil, false
	}
	return idea, true
}

func intQuery(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
