package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/authcore-api/internal/domain"
	"github.com/njprem/authcore-api/internal/media"
)

// fakeUserRepo keeps users in memory and reports misses the way the postgres
// repository does.
type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID

	createErr      error
	findByEmailErr error
	updatePassErr  error

	createCalls         int
	updatePasswordCalls []uuid.UUID
	updateProfileCalls  []struct {
		id       uuid.UUID
		name     *string
		photoURL *string
	}
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: map[uuid.UUID]*domain.User{}, byEmail: map[string]uuid.UUID{}}
	for _, u := range users {
		clone := *u
		f.byID[u.ID] = &clone
		f.byEmail[u.Email] = u.ID
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[user.Email]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	clone := *user
	clone.ID = uuid.New()
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	f.byID[clone.ID] = &clone
	f.byEmail[clone.Email] = clone.ID
	out := clone
	return &out, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findByEmailErr != nil {
		return nil, f.findByEmailErr
	}
	id, ok := f.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *f.byID[id]
	return &out, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, name *string, photoURL *string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateProfileCalls = append(f.updateProfileCalls, struct {
		id       uuid.UUID
		name     *string
		photoURL *string
	}{id: id, name: name, photoURL: photoURL})
	u, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if name != nil {
		u.Name = *name
	}
	if photoURL != nil {
		u.PhotoURL = photoURL
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatePasswordCalls = append(f.updatePasswordCalls, id)
	if f.updatePassErr != nil {
		return f.updatePassErr
	}
	u, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = &passwordHash
	return nil
}

func (f *fakeUserRepo) get(id uuid.UUID) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		out := *u
		return &out
	}
	return nil
}

type fakePasswordResetRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.PasswordResetToken

	createErr error

	createCalls []struct {
		userID    uuid.UUID
		token     string
		expiresAt time.Time
	}
	markCalls   []uuid.UUID
	deleteCalls []struct {
		userID uuid.UUID
		keep   []uuid.UUID
	}
}

func newFakePasswordResetRepo() *fakePasswordResetRepo {
	return &fakePasswordResetRepo{records: map[uuid.UUID]*domain.PasswordResetToken{}}
}

func (f *fakePasswordResetRepo) Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, struct {
		userID    uuid.UUID
		token     string
		expiresAt time.Time
	}{userID: userID, token: token, expiresAt: expiresAt})
	if f.createErr != nil {
		return nil, f.createErr
	}
	record := &domain.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.records[record.ID] = record
	clone := *record
	return &clone, nil
}

func (f *fakePasswordResetRepo) FindActiveByToken(ctx context.Context, token string, now time.Time) (*domain.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.Token == token && record.Actionable(now) {
			clone := *record
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakePasswordResetRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls = append(f.markCalls, id)
	record, ok := f.records[id]
	if !ok || record.Used {
		return sql.ErrNoRows
	}
	record.Used = true
	return nil
}

func (f *fakePasswordResetRepo) DeleteByUser(ctx context.Context, userID uuid.UUID, keep ...uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, struct {
		userID uuid.UUID
		keep   []uuid.UUID
	}{userID: userID, keep: keep})
	for id, record := range f.records {
		if record.UserID != userID || containsUUID(keep, id) {
			continue
		}
		delete(f.records, id)
	}
	return nil
}

func (f *fakePasswordResetRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

type fakeLimiter struct {
	allow bool
	keys  []string
}

func (f *fakeLimiter) Allow(key string, max int, period time.Duration) bool {
	f.keys = append(f.keys, key)
	return f.allow
}

type fakeResetMailer struct {
	sent []struct {
		email string
		link  string
	}
	err error
}

func (f *fakeResetMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	f.sent = append(f.sent, struct {
		email string
		link  string
	}{email: email, link: link})
	return f.err
}

type fakeIdentityVerifier struct {
	identity *FederatedIdentity
	err      error
	calls    []string
}

func (f *fakeIdentityVerifier) Verify(ctx context.Context, assertion string) (*FederatedIdentity, error) {
	f.calls = append(f.calls, assertion)
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeStorage struct {
	uploaded []struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}
	url string
	err error
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	f.uploaded = append(f.uploaded, struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}{bucket: bucket, objectName: objectName, contentType: contentType, size: size})
	if f.err != nil {
		return "", f.err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "https://storage/" + objectName, nil
}

type fakeHTTPClient struct {
	resp     *http.Response
	err      error
	requests []*http.Request
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return nil, errors.New("no response configured")
	}
	return f.resp, nil
}

type stubImageProcessor struct {
	output      []byte
	contentType string
	err         error

	calls   int
	lastMax int
}

func (s *stubImageProcessor) Process(ctx context.Context, upload media.Upload, maxDimension int) (*media.Result, error) {
	s.calls++
	s.lastMax = maxDimension
	if s.err != nil {
		return nil, s.err
	}
	ct := s.contentType
	if ct == "" {
		ct = upload.ContentType
	}
	return &media.Result{
		Bytes:       append([]byte(nil), s.output...),
		ContentType: ct,
		Resized:     true,
	}, nil
}

type fakeProjectRepo struct {
	projects map[uuid.UUID]domain.Project
	err      error
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[uuid.UUID]domain.Project{}}
}

func (f *fakeProjectRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Project, 0)
	for _, p := range f.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (f *fakeProjectRepo) Upsert(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	if existing, ok := f.projects[project.ID]; ok && existing.OwnerID != project.OwnerID {
		return nil, sql.ErrNoRows
	}
	saved := *project
	saved.Data = append(json.RawMessage(nil), project.Data...)
	saved.UpdatedAt = time.Now()
	f.projects[saved.ID] = saved
	return &saved, nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	p, ok := f.projects[id]
	if !ok || p.OwnerID != ownerID {
		return sql.ErrNoRows
	}
	delete(f.projects, id)
	return nil
}
