package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pkeller/loregate/internal/core/api"
	"github.com/pkeller/loregate/internal/core/store"
	"github.com/pkeller/loregate/internal/lore"
	"github.com/pkeller/loregate/internal/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.svc.SessionCount(),
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req api.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	resp, err := s.svc.Scan(r.Context(), req)
	if err != nil {
		writeErr(w, statusFromError(err), "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.svc.ListBooks()
	if err != nil {
		writeErr(w, statusFromError(err), "listing books: %v", err)
		return
	}
	if books == nil {
		books = []store.BookInfo{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleSaveBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string          `json:"name"`
		Book json.RawMessage `json:"book"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.Name == "" {
		writeErr(w, http.StatusBadRequest, "'name' field is required")
		return
	}
	if len(req.Book) == 0 {
		writeErr(w, http.StatusBadRequest, "'book' field is required")
		return
	}

	book, err := lore.ParseBook(req.Book)
	if err != nil {
		writeErr(w, statusFromError(err), "%v", err)
		return
	}
	if err := s.svc.SaveBook(req.Name, book); err != nil {
		writeErr(w, statusFromError(err), "saving book: %v", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":    req.Name,
		"entries": book.Len(),
	})
}

// bookEnvelope flattens the book alongside its name in GET responses.
type bookEnvelope struct {
	Name string `json:"name"`
	*lore.Book
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	book, etag, err := s.svc.GetBook(name)
	if err != nil {
		writeErr(w, statusFromError(err), "%v", err)
		return
	}

	quoted := `"` + etag + `"`
	if r.Header.Get("If-None-Match") == quoted {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", quoted)
	writeJSON(w, http.StatusOK, bookEnvelope{Name: name, Book: book})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := s.svc.DeleteBook(name); err != nil {
		writeErr(w, statusFromError(err), "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var e lore.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	uid, err := s.svc.AddEntry(name, &e)
	if err != nil {
		writeErr(w, statusFromError(err), "%v", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"uid": string(uid)})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	uid, err := types.ParseEntryID(r.PathValue("uid"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "%v", err)
		return
	}

	if err := s.svc.DeleteEntry(name, uid); err != nil {
		writeErr(w, statusFromError(err), "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	groups, err := s.svc.Groups(name)
	if err != nil {
		writeErr(w, statusFromError(err), "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleSetGroup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	group := r.PathValue("group")

	var req struct {
		Disabled *bool `json:"disabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.Disabled == nil {
		writeErr(w, http.StatusBadRequest, "'disabled' field is required")
		return
	}

	affected, err := s.svc.SetGroupDisabled(name, group, *req.Disabled)
	if err != nil {
		writeErr(w, statusFromError(err), "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group":    group,
		"disabled": *req.Disabled,
		"affected": affected,
	})
}

// statusFromError translates service errors to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, types.ErrBookNotFound),
		errors.Is(err, types.ErrEntryNotFound),
		errors.Is(err, types.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrScanTextTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, api.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrInvalidBook),
		errors.Is(err, types.ErrInvalidEntry),
		errors.Is(err, types.ErrDuplicateEntry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, api.ErrSessionLimit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// writeErr writes a JSON error response.
func writeErr(w http.ResponseWriter, status int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, status, map[string]string{"error": msg})
}
