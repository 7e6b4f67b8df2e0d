package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/compose"
	"github.com/TobiSchelling/gtmcraft/internal/craft"
	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/drafts"
	"github.com/TobiSchelling/gtmcraft/internal/fetch"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

const maxUploadBytes = 10 << 20

var md = goldmark.New()

// craftFailure carries generated content whose storage failed, so the
// caller can still copy it.
type craftFailure struct {
	errorBody
	Content *database.GeneratedContent `json:"content"`
}

type formResponse struct {
	Form     craft.Form `json:"form"`
	Restored bool       `json:"restored"`
}

// kindForm decodes the request body as a form of the kind named in the URL.
func kindForm(w http.ResponseWriter, r *http.Request) (craft.Form, bool) {
	kind, err := prompt.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return craft.Form{}, false
	}
	form := craft.DefaultForm(kind)
	if !decodeJSON(w, r, &form) {
		return form, false
	}
	form.Kind = kind
	return form, true
}

// handleGetForm returns the defaults of a form with any saved draft laid
// over them.
func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	kind, err := prompt.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	form := craft.DefaultForm(kind)
	restored, err := drafts.Restore(s.db, craft.DraftKey(kind, chi.URLParam(r, "clientID")), &form)
	if err != nil && !errors.Is(err, drafts.ErrCorrupt) {
		writeError(w, err)
		return
	}
	form.Kind = kind
	writeJSON(w, http.StatusOK, formResponse{Form: form, Restored: restored})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	form, ok := kindForm(w, r)
	if !ok {
		return
	}
	text, err := s.crafter.Preview(chi.URLParam(r, "clientID"), form)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prompt": text})
}

func (s *Server) handleCraft(w http.ResponseWriter, r *http.Request) {
	form, ok := kindForm(w, r)
	if !ok {
		return
	}
	content, err := s.crafter.Craft(r.Context(), chi.URLParam(r, "clientID"), form)
	var persist *craft.PersistenceError
	if content != nil && errors.As(err, &persist) {
		zap.S().Errorf("Crafted content not saved: %v", err)
		writeJSON(w, http.StatusInternalServerError, craftFailure{
			errorBody: errorBody{Error: "content was generated but could not be saved"},
			Content:   content,
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, content)
}

// handleExtract accepts a multipart "file" upload and imports it as a
// customer success story.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "expected a multipart file field named \"file\"")
		return
	}
	defer file.Close()

	doc, err := fetch.ExtractReader(header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	story, err := s.crafter.ExtractStory(r.Context(), chi.URLParam(r, "clientID"), doc.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, story)
}

func (s *Server) handleFetchURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.fetcher.FetchURL(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		writeMessage(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func draftKey(r *http.Request) string {
	return drafts.Key(chi.URLParam(r, "feature"), chi.URLParam(r, "contentType"), chi.URLParam(r, "clientID"))
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	snap, err := drafts.Load(s.db, draftKey(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if snap == nil {
		writeMessage(w, http.StatusNotFound, "no draft")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !json.Valid(body) {
		writeMessage(w, http.StatusBadRequest, "draft state must be JSON")
		return
	}
	if err := drafts.Save(s.db, draftKey(r), json.RawMessage(body)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteDraft(draftKey(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListContents(w http.ResponseWriter, r *http.Request) {
	list, err := s.db.GetContentsForClient(chi.URLParam(r, "clientID"), intQuery(r, "limit", 50))
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []database.GeneratedContent{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) ownedContent(w http.ResponseWriter, r *http.Request) (*database.GeneratedContent, bool) {
	c, err := s.db.GetContent(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if c == nil || c.ClientID != database.ClientOrDefault(chi.URLParam(r, "clientID")) {
		writeMessage(w, http.StatusNotFound, "content not found")
		return nil, false
	}
	return c, true
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	if c, ok := s.ownedContent(w, r); ok {
		writeJSON(w, http.StatusOK, c)
	}
}

// handlePreviewContent renders a crafted content's markdown as HTML.
func (s *Server) handlePreviewContent(w http.ResponseWriter, r *http.Request) {
	c, ok := s.ownedContent(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(c.Output), &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.ownedContent(w, r); !ok {
		return
	}
	if err := s.db.DeleteContent(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport returns the client's workbook as markdown, or as JSON with
// counts when the client asks for it.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	wb, err := compose.NewComposer(s.db).ComposeWorkbook(chi.URLParam(r, "clientID"), intQuery(r, "limit", 50))
	if err != nil {
		writeError(w, err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, wb)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(wb.Markdown))
}
