package service

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/limiter"
	"github.com/mvolkov/notekeeper/internal/model"
	"github.com/mvolkov/notekeeper/internal/repository"
)

type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
	updateErr error

	touchCalls int
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrEmailTaken
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetActiveByEmail(_ context.Context, email string) (*model.User, error) {
	u, err := f.GetByEmail(context.Background(), email)
	if err != nil {
		return nil, err
	}
	if u.Status != model.StatusActive {
		return nil, errs.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetActiveByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id && u.Status == model.StatusActive {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash []byte) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, u := range f.byEmail {
		if u.ID == id {
			u.PasswordHash = append([]byte(nil), hash...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	f.touchCalls++
	for _, u := range f.byEmail {
		if u.ID == id {
			now := time.Now()
			u.LastLogin = &now
		}
	}
	return nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type fakeSessions struct {
	byToken map[string]*model.Session

	createErr error
	getErr    error
}

var _ repository.SessionRepository = (*fakeSessions)(nil)

func (f *fakeSessions) Create(_ context.Context, s *model.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byToken == nil {
		f.byToken = map[string]*model.Session{}
	}
	cpy := *s
	f.byToken[s.Token] = &cpy
	return nil
}

func (f *fakeSessions) Get(_ context.Context, token string) (*model.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.byToken[token]
	if !ok || s.Expired(time.Now()) {
		return nil, errs.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

func (f *fakeSessions) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for tok, s := range f.byToken {
		if s.Expired(now) {
			delete(f.byToken, tok)
			n++
		}
	}
	return n, nil
}

type fakeNotes struct {
	byID map[uuid.UUID]*model.Note

	createErr error
}

var _ repository.NoteRepository = (*fakeNotes)(nil)

func (f *fakeNotes) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Note, error) {
	out := []model.Note{}
	for _, n := range f.byID {
		if n.OwnerID == ownerID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotes) GetOwned(_ context.Context, ownerID, noteID uuid.UUID) (*model.Note, error) {
	n, ok := f.byID[noteID]
	if !ok || n.OwnerID != ownerID {
		return nil, errs.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (f *fakeNotes) Create(_ context.Context, n *model.Note) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byID == nil {
		f.byID = map[uuid.UUID]*model.Note{}
	}
	cpy := *n
	f.byID[n.ID] = &cpy
	return nil
}

func (f *fakeNotes) Update(_ context.Context, n *model.Note) error {
	cur, ok := f.byID[n.ID]
	if !ok || cur.OwnerID != n.OwnerID {
		return errs.ErrNotFound
	}
	cur.Title, cur.Body, cur.FolderID = n.Title, n.Body, n.FolderID
	return nil
}

func (f *fakeNotes) Delete(_ context.Context, ownerID, noteID uuid.UUID) error {
	n, ok := f.byID[noteID]
	if !ok || n.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	delete(f.byID, noteID)
	return nil
}

type fakeFolders struct {
	byID  map[uuid.UUID]*model.Folder
	notes *fakeNotes // cascade target

	createErr error
}

var _ repository.FolderRepository = (*fakeFolders)(nil)

func (f *fakeFolders) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Folder, error) {
	out := []model.Folder{}
	for _, fl := range f.byID {
		if fl.OwnerID == ownerID {
			out = append(out, *fl)
		}
	}
	return out, nil
}

func (f *fakeFolders) GetOwned(_ context.Context, ownerID, folderID uuid.UUID) (*model.Folder, error) {
	fl, ok := f.byID[folderID]
	if !ok || fl.OwnerID != ownerID {
		return nil, errs.ErrNotFound
	}
	c := *fl
	return &c, nil
}

func (f *fakeFolders) Create(_ context.Context, fl *model.Folder) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byID == nil {
		f.byID = map[uuid.UUID]*model.Folder{}
	}
	for _, cur := range f.byID {
		if cur.OwnerID == fl.OwnerID && strings.EqualFold(cur.Name, fl.Name) {
			return errs.ErrConflict
		}
	}
	cpy := *fl
	f.byID[fl.ID] = &cpy
	return nil
}

func (f *fakeFolders) UpdateName(_ context.Context, ownerID, folderID uuid.UUID, name string) error {
	fl, ok := f.byID[folderID]
	if !ok || fl.OwnerID != ownerID {
		return errs.ErrNotFound
	}
	for id, cur := range f.byID {
		if id != folderID && cur.OwnerID == ownerID && strings.EqualFold(cur.Name, name) {
			return errs.ErrConflict
		}
	}
	fl.Name = name
	return nil
}

func (f *fakeFolders) DeleteCascade(_ context.Context, ownerID, folderID uuid.UUID) (int64, error) {
	fl, ok := f.byID[folderID]
	if !ok || fl.OwnerID != ownerID {
		return 0, errs.ErrNotFound
	}
	var n int64
	if f.notes != nil {
		for id, note := range f.notes.byID {
			if note.OwnerID == ownerID && note.FolderID != nil && *note.FolderID == folderID {
				delete(f.notes.byID, id)
				n++
			}
		}
	}
	// Child folders survive with their parent reference cleared.
	for _, cur := range f.byID {
		if cur.OwnerID == ownerID && cur.ParentID != nil && *cur.ParentID == folderID {
			cur.ParentID = nil
		}
	}
	delete(f.byID, folderID)
	return n, nil
}
