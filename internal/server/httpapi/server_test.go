package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/model"
)

// memStore implements the four service interfaces in memory so the handler
// tests exercise the full HTTP contract without a database.
type memStore struct {
	users    map[string]*memUser // by email
	sessions map[string]uuid.UUID
	folders  map[uuid.UUID]*model.Folder
	notes    map[uuid.UUID]*model.Note

	loginErr error // forced login failure
}

type memUser struct {
	id       uuid.UUID
	email    string
	password string
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*memUser{},
		sessions: map[string]uuid.UUID{},
		folders:  map[uuid.UUID]*model.Folder{},
		notes:    map[uuid.UUID]*model.Note{},
	}
}

func (m *memStore) Register(_ context.Context, email, password string) (model.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return model.Identity{}, errs.NewValidation("email", "email is not valid")
	}
	if len(password) < 8 {
		return model.Identity{}, errs.NewValidation("password", "password must be at least 8 characters long")
	}
	if _, ok := m.users[email]; ok {
		return model.Identity{}, errs.ErrEmailTaken
	}
	u := &memUser{id: uuid.Must(uuid.NewV4()), email: email, password: password}
	m.users[email] = u
	return model.Identity{UserID: u.id, Email: u.email}, nil
}

func (m *memStore) LoginWithIP(_ context.Context, email, password, _ string) (model.Identity, error) {
	if m.loginErr != nil {
		return model.Identity{}, m.loginErr
	}
	u, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || u.password != password {
		return model.Identity{}, errs.ErrInvalidCredentials
	}
	return model.Identity{UserID: u.id, Email: u.email}, nil
}

func (m *memStore) ChangePassword(_ context.Context, email, current, next string) error {
	u, ok := m.users[email]
	if !ok {
		return errs.ErrNotFound
	}
	if u.password != current {
		return errs.ErrCurrentPassword
	}
	if len(next) < 8 {
		return errs.ErrWeakPassword
	}
	u.password = next
	return nil
}

func (m *memStore) Create(_ context.Context, id model.Identity) (string, error) {
	token := fmt.Sprintf("tok-%s-%d", id.UserID, len(m.sessions))
	m.sessions[token] = id.UserID
	return token, nil
}

func (m *memStore) Resolve(_ context.Context, token string) (model.Identity, error) {
	uid, ok := m.sessions[token]
	if !ok {
		return model.Identity{}, errs.ErrUnauthenticated
	}
	for _, u := range m.users {
		if u.id == uid {
			return model.Identity{UserID: u.id, Email: u.email}, nil
		}
	}
	return model.Identity{}, errs.ErrUnauthenticated
}

func (m *memStore) Destroy(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *memStore) List(_ context.Context, owner uuid.UUID) ([]model.Folder, error) {
	out := []model.Folder{}
	for _, f := range m.folders {
		if f.OwnerID == owner {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *memStore) CreateFolder(_ context.Context, owner uuid.UUID, name string, parentID *uuid.UUID, desc string) (*model.Folder, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) < 2 {
		return nil, errs.NewValidation("name", "folder name must be at least 2 characters long")
	}
	for _, f := range m.folders {
		if f.OwnerID == owner && f.Name == name {
			return nil, errs.ErrConflict
		}
	}
	f := &model.Folder{ID: uuid.Must(uuid.NewV4()), OwnerID: owner, Name: name, ParentID: parentID, Description: desc}
	m.folders[f.ID] = f
	return f, nil
}

func (m *memStore) Rename(_ context.Context, owner, folderID uuid.UUID, name string) (*model.Folder, error) {
	f, ok := m.folders[folderID]
	if !ok || f.OwnerID != owner {
		return nil, errs.ErrNotFound
	}
	f.Name = strings.ToLower(strings.TrimSpace(name))
	return f, nil
}

func (m *memStore) Delete(_ context.Context, owner, folderID uuid.UUID) (int64, error) {
	f, ok := m.folders[folderID]
	if !ok || f.OwnerID != owner {
		return 0, errs.ErrNotFound
	}
	var n int64
	for id, note := range m.notes {
		if note.FolderID != nil && *note.FolderID == folderID {
			delete(m.notes, id)
			n++
		}
	}
	delete(m.folders, folderID)
	return n, nil
}

// noteAPI adapts memStore to the note service interface; List collides with
// the folder one, so notes get their own receiver.
type noteAPI struct{ m *memStore }

func (a noteAPI) List(_ context.Context, owner uuid.UUID) ([]model.Note, error) {
	out := []model.Note{}
	for _, n := range a.m.notes {
		if n.OwnerID == owner {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (a noteAPI) Create(_ context.Context, owner uuid.UUID, title, body string, folderID *uuid.UUID) (*model.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errs.NewValidation("title", "note title is required")
	}
	if folderID != nil {
		f, ok := a.m.folders[*folderID]
		if !ok || f.OwnerID != owner {
			return nil, errs.ErrInvalidFolder
		}
	}
	n := &model.Note{ID: uuid.Must(uuid.NewV4()), OwnerID: owner, Title: title, Body: body, FolderID: folderID}
	a.m.notes[n.ID] = n
	return n, nil
}

func (a noteAPI) Update(_ context.Context, owner, noteID uuid.UUID, title, body string, folderID *uuid.UUID) (*model.Note, error) {
	n, ok := a.m.notes[noteID]
	if !ok || n.OwnerID != owner {
		return nil, errs.ErrNotFound
	}
	n.Title, n.Body, n.FolderID = title, body, folderID
	return n, nil
}

func (a noteAPI) Delete(_ context.Context, owner, noteID uuid.UUID) error {
	n, ok := a.m.notes[noteID]
	if !ok || n.OwnerID != owner {
		return errs.ErrNotFound
	}
	delete(a.m.notes, noteID)
	return nil
}

// folderAPI narrows memStore to the folder service interface.
type folderAPI struct{ m *memStore }

func (a folderAPI) List(ctx context.Context, owner uuid.UUID) ([]model.Folder, error) {
	return a.m.List(ctx, owner)
}
func (a folderAPI) Create(ctx context.Context, owner uuid.UUID, name string, parentID *uuid.UUID, desc string) (*model.Folder, error) {
	return a.m.CreateFolder(ctx, owner, name, parentID, desc)
}
func (a folderAPI) Rename(ctx context.Context, owner, folderID uuid.UUID, name string) (*model.Folder, error) {
	return a.m.Rename(ctx, owner, folderID, name)
}
func (a folderAPI) Delete(ctx context.Context, owner, folderID uuid.UUID) (int64, error) {
	return a.m.Delete(ctx, owner, folderID)
}

func newTestServer(t *testing.T) (*memStore, *httptest.Server) {
	t.Helper()
	m := newMemStore()
	srv := New(zap.NewNop(), m, m, folderAPI{m}, noteAPI{m}, time.Hour, false)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return m, ts
}

// client keeps the session cookie between requests, like a browser would.
type client struct {
	t  *testing.T
	ts *httptest.Server
	c  *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, ts: ts, c: &http.Client{Jar: jar}}
}

func (cl *client) do(method, path string, body any) (*http.Response, map[string]any) {
	cl.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(cl.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, cl.ts.URL+path, rd)
	require.NoError(cl.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := cl.c.Do(req)
	require.NoError(cl.t, err)
	defer resp.Body.Close()

	var parsed map[string]any
	require.NoError(cl.t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	_, ts := newTestServer(t)
	cl := newClient(t, ts)

	resp, body := cl.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "u@example.com", "password": "Passw0rd!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	var hasCookie bool
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			hasCookie = true
			assert.True(t, c.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		}
	}
	require.True(t, hasCookie, "session cookie not set")

	// The cookie authenticates subsequent requests.
	resp, body = cl.do(http.MethodGet, "/api/auth/verify-session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "u@example.com", user["email"])
}

func TestRegisterErrors(t *testing.T) {
	_, ts := newTestServer(t)
	cl := newClient(t, ts)

	resp, body := cl.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "not-an-email", "password": "Passw0rd!"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, codeValidation, body["errorCode"])

	cl.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "u@example.com", "password": "Passw0rd!"})
	resp, body = cl.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "u@example.com", "password": "Passw0rd!"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, codeEmail, body["errorCode"])
}

func TestLoginLogoutFlow(t *testing.T) {
	m, ts := newTestServer(t)
	cl := newClient(t, ts)

	cl.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "u@example.com", "password": "Passw0rd!"})
	resp, _ := cl.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// After logout the old session no longer verifies.
	resp, _ = cl.do(http.MethodGet, "/api/auth/verify-session", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := cl.do(http.MethodPost, "/api/auth/login",
		map[string]string{"email": "u@example.com", "password": "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["message"])

	resp, _ = cl.do(http.MethodPost, "/api/auth/login",
		map[string]string{"email": "u@example.com", "password": "Passw0rd!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = cl.do(http.MethodGet, "/api/auth/verify-session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Rate limiting surfaces as 429.
	m.loginErr = errs.ErrRateLimited
	resp, _ = cl.do(http.MethodPost, "/api/auth/login",
		map[string]string{"email": "u@example.com", "password": "Passw0rd!"})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestChangePasswordErrorCodes(t *testing.T) {
	_, ts := newTestServer(t)
	cl := newClient(t, ts)

	cl.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "u@example.com", "password": "Passw0rd!"})

	resp, body := cl.do(http.MethodPost, "/api/auth/change-password",
		map[string]string{"currentPassword": "wrong", "newPassword": "NewPassw0rd!"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, codeCurrentPassword, body["errorCode"])

	resp, body = cl.do(http.MethodPost, "/api/auth/change-password",
		map[string]string{"currentPassword": "Passw0rd!", "newPassword": "short"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, codeNewPassword, body["errorCode"])

	resp, body = cl.do(http.MethodPost, "/api/auth/change-password",
		map[string]string{"email": "nobody@example.com", "currentPassword": "Passw0rd!", "newPassword": "NewPassw0rd!"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, codeEmail, body["errorCode"])

	resp, _ = cl.do(http.MethodPost, "/api/auth/change-password",
		map[string]string{"currentPassword": "Passw0rd!", "newPassword": "NewPassw0rd!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	_, ts := newTestServer(t)
	cl := newClient(t, ts)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/folders/"},
		{http.MethodPost, "/api/folders/"},
		{http.MethodGet, "/api/notes/"},
		{http.MethodPost, "/api/notes/"},
		{http.MethodGet, "/api/auth/verify-session"},
	} {
		resp, body := cl.do(route.method, route.path, map[string]string{})
		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
		assert.Equal(t, false, body["success"])
	}
}

func TestFolderNoteLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	cl := newClient(t, ts)

	cl.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "u@example.com", "password": "Passw0rd!"})

	resp, body := cl.do(http.MethodPost, "/api/folders/",
		map[string]any{"name": "Work"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	folder := body["data"].(map[string]any)["folder"].(map[string]any)
	assert.Equal(t, "work", folder["name"])
	folderID := folder["id"].(string)

	resp, _ = cl.do(http.MethodPost, "/api/notes/",
		map[string]any{"title": "todo", "body": "buy milk", "folderId": folderID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = cl.do(http.MethodGet, "/api/notes/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notes := body["data"].(map[string]any)["notes"].([]any)
	require.Len(t, notes, 1)

	// Deleting the folder cascades and reports the note count.
	resp, body = cl.do(http.MethodDelete, "/api/folders/"+folderID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["notesDeleted"])

	resp, body = cl.do(http.MethodGet, "/api/notes/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	notes = body["data"].(map[string]any)["notes"].([]any)
	assert.Len(t, notes, 0)
}

func TestFolderErrors(t *testing.T) {
	_, ts := newTestServer(t)
	cl := newClient(t, ts)

	cl.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "u@example.com", "password": "Passw0rd!"})
	cl.do(http.MethodPost, "/api/folders/", map[string]any{"name": "work"})

	resp, _ := cl.do(http.MethodPost, "/api/folders/", map[string]any{"name": "work"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := cl.do(http.MethodDelete, "/api/folders/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, codeValidation, body["errorCode"])

	missing := uuid.Must(uuid.NewV4())
	resp, _ = cl.do(http.MethodDelete, "/api/folders/"+missing.String(), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOwnershipIsolationOverHTTP(t *testing.T) {
	_, ts := newTestServer(t)
	alice := newClient(t, ts)
	bob := newClient(t, ts)

	alice.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "alice@example.com", "password": "Passw0rd!"})
	bob.do(http.MethodPost, "/api/auth/register",
		map[string]string{"email": "bob@example.com", "password": "Passw0rd!"})

	_, body := alice.do(http.MethodPost, "/api/folders/", map[string]any{"name": "private"})
	folderID := body["data"].(map[string]any)["folder"].(map[string]any)["id"].(string)

	// Bob sees an empty list and cannot touch Alice's folder.
	_, body = bob.do(http.MethodGet, "/api/folders/", nil)
	assert.Len(t, body["data"].(map[string]any)["folders"].([]any), 0)

	resp, _ := bob.do(http.MethodDelete, "/api/folders/"+folderID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = bob.do(http.MethodPut, "/api/folders/"+folderID, map[string]any{"name": "mine"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Bob cannot file a note under Alice's folder.
	resp, _ = bob.do(http.MethodPost, "/api/notes/",
		map[string]any{"title": "sneaky", "body": "", "folderId": folderID})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
