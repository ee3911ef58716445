// Package api is the dashboard surface: JSON endpoints for managing the
// contact list and the book library, plus read-only exports. The
// conversational path never goes through here.
package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"

	"github.com/mrmicaiah/bethany/pkg/library"
	"github.com/mrmicaiah/bethany/pkg/network"
)

type Handler struct {
	logger   *log.Logger
	contacts *network.Service
	books    *library.Service
}

func NewRouter(logger *log.Logger, contacts *network.Service, books *library.Service) chi.Router {
	h := &Handler{logger: logger, contacts: contacts, books: books}

	r := chi.NewRouter()
	r.Get("/contacts", h.listContacts)
	r.Post("/contacts", h.addContact)
	r.Post("/contacts/{name}/touch", h.recordTouch)
	r.Get("/library", h.listBooks)
	r.Post("/library", h.addBook)
	r.Post("/library/{title}/progress", h.updateProgress)
	r.Post("/library/{title}/notes", h.addNote)
	return r
}

type addContactRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	CadenceDays  int    `json:"cadence_days"`
}

func (h *Handler) addContact(w http.ResponseWriter, req *http.Request) {
	var payload addContactRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || payload.Name == "" || payload.CadenceDays <= 0 {
		http.Error(w, "name and a positive cadence_days are required", http.StatusBadRequest)
		return
	}

	contact, err := h.contacts.AddContact(req.Context(), payload.Name, payload.Relationship, payload.CadenceDays)
	if err != nil {
		h.logger.Error("Failed to add contact", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, contact)
}

func (h *Handler) recordTouch(w http.ResponseWriter, req *http.Request) {
	name := pathParam(req, "name")
	if err := h.contacts.RecordTouch(req.Context(), name); err != nil {
		h.logger.Error("Failed to record touch", "name", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listContacts(w http.ResponseWriter, req *http.Request) {
	h.writeJSON(w, http.StatusOK, h.contacts.ListContacts(req.Context()))
}

type addBookRequest struct {
	Title       string `json:"title"`
	TargetWords int    `json:"target_words"`
}

func (h *Handler) addBook(w http.ResponseWriter, req *http.Request) {
	var payload addBookRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || payload.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	book, err := h.books.AddBook(req.Context(), payload.Title, payload.TargetWords)
	if err != nil {
		h.logger.Error("Failed to add book", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, book)
}

type updateProgressRequest struct {
	WordCount int            `json:"word_count"`
	Status    library.Status `json:"status"`
}

func (h *Handler) updateProgress(w http.ResponseWriter, req *http.Request) {
	title := pathParam(req, "title")
	var payload updateProgressRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := h.books.UpdateProgress(req.Context(), title, payload.WordCount, payload.Status); err != nil {
		h.logger.Error("Failed to update progress", "title", title, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addNoteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) addNote(w http.ResponseWriter, req *http.Request) {
	title := pathParam(req, "title")
	var payload addNoteRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || payload.Note == "" {
		http.Error(w, "note is required", http.StatusBadRequest)
		return
	}

	if err := h.books.AddNote(req.Context(), title, payload.Note); err != nil {
		h.logger.Error("Failed to add note", "title", title, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listBooks(w http.ResponseWriter, req *http.Request) {
	h.writeJSON(w, http.StatusOK, h.books.ListBooks(req.Context()))
}

// pathParam returns the unescaped URL parameter; titles and names carry
// spaces.
func pathParam(req *http.Request, key string) string {
	raw := chi.URLParam(req, key)
	if value, err := url.PathUnescape(raw); err == nil {
		return value
	}
	return raw
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
