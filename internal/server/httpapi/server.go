// Package httpapi exposes the note-keeping services over a JSON HTTP API with
// cookie-based sessions.
package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/service"
)

// sessionCookie is the cookie carrying the opaque session token.
const sessionCookie = "sessionId"

// Server wires the application services into an HTTP handler.
type Server struct {
	log      *zap.Logger
	auth     service.AuthService
	sessions service.SessionService
	folders  service.FolderService
	notes    service.NoteService

	cookieTTL    time.Duration
	secureCookie bool
}

// New constructs the HTTP server around the given services.
func New(log *zap.Logger, auth service.AuthService, sessions service.SessionService,
	folders service.FolderService, notes service.NoteService,
	cookieTTL time.Duration, secureCookie bool) *Server {
	if cookieTTL <= 0 {
		cookieTTL = service.DefaultSessionTTL
	}
	return &Server{
		log:          log,
		auth:         auth,
		sessions:     sessions,
		folders:      folders,
		notes:        notes,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.log), Recoverer(s.log))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/verify-session", s.handleVerifySession)
			r.Post("/change-password", s.handleChangePassword)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Route("/api/folders", func(r chi.Router) {
			r.Get("/", s.handleListFolders)
			r.Post("/", s.handleCreateFolder)
			r.Put("/{id}", s.handleRenameFolder)
			r.Delete("/{id}", s.handleDeleteFolder)
		})
		r.Route("/api/notes", func(r chi.Router) {
			r.Get("/", s.handleListNotes)
			r.Post("/", s.handleCreateNote)
			r.Put("/{id}", s.handleUpdateNote)
			r.Delete("/{id}", s.handleDeleteNote)
		})
	})

	return r
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cookieTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// remoteIP extracts the peer address for login rate-limiting.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeValidation, "Invalid request body")
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeValidation, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := s.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	token, err := s.sessions.Create(r.Context(), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	s.setSessionCookie(w, token)
	writeData(w, http.StatusCreated, map[string]any{"user": id})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, remoteIP(r))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	token, err := s.sessions.Create(r.Context(), id)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	s.setSessionCookie(w, token)
	writeData(w, http.StatusOK, map[string]any{"user": id})
}

// handleLogout destroys the session if one is presented. It succeeds either
// way; an already-logged-out client gets the same answer.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context(), sessionToken(r)); err != nil {
		writeError(w, s.log, err)
		return
	}
	s.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (s *Server) handleVerifySession(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromCtx(r.Context())
	if !ok {
		writeError(w, s.log, errs.ErrUnauthenticated)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": id})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromCtx(r.Context())
	if !ok {
		writeError(w, s.log, errs.ErrUnauthenticated)
		return
	}
	var req struct {
		Email           string `json:"email"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		req.Email = id.Email
	}
	err := s.auth.ChangePassword(r.Context(), req.Email, req.CurrentPassword, req.NewPassword)
	if err != nil {
		// An unknown account is an email-field problem here, not a missing
		// resource.
		if errors.Is(err, errs.ErrNotFound) {
			writeErrorCode(w, http.StatusBadRequest, codeEmail, "No account found for this email")
			return
		}
		writeError(w, s.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed successfully")
}

type folderRequest struct {
	Name        string     `json:"name"`
	ParentID    *uuid.UUID `json:"parentId"`
	Description string     `json:"description"`
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	folders, err := s.folders.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"folders": folders})
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	var req folderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f, err := s.folders.Create(r.Context(), id.UserID, req.Name, req.ParentID, req.Description)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"folder": f})
}

func (s *Server) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	folderID, ok := parseID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	f, err := s.folders.Rename(r.Context(), id.UserID, folderID, req.Name)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"folder": f})
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	folderID, ok := parseID(w, r)
	if !ok {
		return
	}
	n, err := s.folders.Delete(r.Context(), id.UserID, folderID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		NotesDeleted int64  `json:"notesDeleted"`
	}{true, "Folder and its notes deleted", n})
}

type noteRequest struct {
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	FolderID *uuid.UUID `json:"folderId"`
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	notes, err := s.notes.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"notes": notes})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	var req noteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := s.notes.Create(r.Context(), id.UserID, req.Title, req.Body, req.FolderID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"note": n})
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	noteID, ok := parseID(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := s.notes.Update(r.Context(), id.UserID, noteID, req.Title, req.Body, req.FolderID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"note": n})
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	noteID, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.notes.Delete(r.Context(), id.UserID, noteID); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "Note deleted")
}
