package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/gtmcraft/internal/database"
)

// resource adapts one record type of the database to list/get/save/delete
// endpoints scoped by client.
type resource[T any] struct {
	list   func(clientID string) ([]T, error)
	get    func(id string) (*T, error)
	save   func(clientID string, rec *T) error
	delete func(id string) error
	owner  func(rec *T) string
	id     func(rec *T) string
}

func mountRecords[T any](r chi.Router, path string, res resource[T]) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			items, err := res.list(chi.URLParam(r, "clientID"))
			if err != nil {
				writeError(w, err)
				return
			}
			if items == nil {
				items = []T{}
			}
			writeJSON(w, http.StatusOK, items)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var rec T
			if !decodeJSON(w, r, &rec) {
				return
			}
			if id := res.id(&rec); id != "" {
				existing, err := res.get(id)
				if err != nil {
					writeError(w, err)
					return
				}
				if existing != nil && res.owner(existing) != database.ClientOrDefault(chi.URLParam(r, "clientID")) {
					writeMessage(w, http.StatusNotFound, "not found")
					return
				}
			}
			if err := res.save(chi.URLParam(r, "clientID"), &rec); err != nil {
				if errors.Is(err, database.ErrNotOwned) {
					writeMessage(w, http.StatusNotFound, "not found")
					return
				}
				writeMessage(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusCreated, rec)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			rec, ok := lookup(w, r, res)
			if ok {
				writeJSON(w, http.StatusOK, rec)
			}
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			if _, ok := lookup(w, r, res); !ok {
				return
			}
			if err := res.delete(chi.URLParam(r, "id")); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

// lookup loads the record named in the URL and checks it belongs to the
// client in the URL.
func lookup[T any](w http.ResponseWriter, r *http.Request, res resource[T]) (*T, bool) {
	rec, err := res.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if rec == nil || res.owner(rec) != database.ClientOrDefault(chi.URLParam(r, "clientID")) {
		writeMessage(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return rec, true
}

func (s *Server) icpResource() resource[database.ICPStoryScript] {
	return resource[database.ICPStoryScript]{
		list: s.db.GetICPsForClient,
		get:  s.db.GetICP,
		save: func(clientID string, rec *database.ICPStoryScript) error {
			rec.ClientID = clientID
			return s.db.SaveICP(rec)
		},
		delete: s.db.DeleteICP,
		owner:  func(rec *database.ICPStoryScript) string { return rec.ClientID },
		id:     func(rec *database.ICPStoryScript) string { return rec.ID },
	}
}

func (s *Server) authorResource() resource[database.Author] {
	return resource[database.Author]{
		list: s.db.GetAuthorsForClient,
		get:  s.db.GetAuthor,
		save: func(clientID string, rec *database.Author) error {
			rec.ClientID = clientID
			return s.db.SaveAuthor(rec)
		},
		delete: s.db.DeleteAuthor,
		owner:  func(rec *database.Author) string { return rec.ClientID },
		id:     func(rec *database.Author) string { return rec.ID },
	}
}

func (s *Server) storyResource() resource[database.CustomerSuccessStory] {
	return resource[database.CustomerSuccessStory]{
		list: s.db.GetStoriesForClient,
		get:  s.db.GetStory,
		save: func(clientID string, rec *database.CustomerSuccessStory) error {
			rec.ClientID = clientID
			return s.db.SaveStory(rec)
		},
		delete: s.db.DeleteStory,
		owner:  func(rec *database.CustomerSuccessStory) string { return rec.ClientID },
		id:     func(rec *database.CustomerSuccessStory) string { return rec.ID },
	}
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	pc, err := s.db.GetProductContext(chi.URLParam(r, "clientID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if pc == nil {
		writeMessage(w, http.StatusNotFound, "no product context")
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

func (s *Server) handleSaveContext(w http.ResponseWriter, r *http.Request) {
	var pc database.ProductContext
	if !decodeJSON(w, r, &pc) {
		return
	}
	pc.ClientID = chi.URLParam(r, "clientID")
	if err := s.db.SaveProductContext(&pc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

func (s *Server) handleDeleteContext(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteProductContext(chi.URLParam(r, "clientID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTriggers(w http.ResponseWriter, r *http.Request) {
	items, err := s.db.GetRecentTriggerCandidates(intQuery(r, "limit", 50))
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []database.TriggerCandidate{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ownedICP checks that the ICP in the URL belongs to the client in the URL.
func (s *Server) ownedICP(w http.ResponseWriter, r *http.Request) (*database.ICPStoryScript, bool) {
	icp, err := s.db.GetICP(chi.URLParam(r, "icpID"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if icp == nil || icp.ClientID != database.ClientOrDefault(chi.URLParam(r, "clientID")) {
		writeMessage(w, http.StatusNotFound, "ICP not found")
		return nil, false
	}
	return icp, true
}

// handleRankedTriggers lists the triggers triaged as relevant for an ICP,
// best fit first.
func (s *Server) handleRankedTriggers(w http.ResponseWriter, r *http.Request) {
	icp, ok := s.ownedICP(w, r)
	if !ok {
		return
	}
	items, err := s.db.GetRankedTriggers(icp.ID, intQuery(r, "limit", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []database.RankedTrigger{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleTriageTriggers(w http.ResponseWriter, r *http.Request) {
	icp, ok := s.ownedICP(w, r)
	if !ok {
		return
	}
	res, err := s.crafter.TriageTriggers(r.Context(), chi.URLParam(r, "clientID"), icp.ID, intQuery(r, "limit", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
