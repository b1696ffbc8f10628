package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"task_manager/internal/auth"
	"task_manager/internal/models"
	"task_manager/internal/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeUsers is an in-memory UserDirectory that enforces unique username and email.
type fakeUsers struct {
	mu     sync.Mutex
	byName map[string]*models.User
	nextID int

	findErr   error
	insertErr error

	findCalls   int
	insertCalls int
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byName: map[string]*models.User{}} }

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Insert(_ context.Context, u models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	for _, existing := range f.byName {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, repository.ErrConflict
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	f.byName[u.Username] = &u
	cp := u
	return &cp, nil
}

// fakeTasks is an in-memory TaskRepo scoped by owner.
type fakeTasks struct {
	tasks  map[int]models.Task
	nextID int
	err    error

	gotStatus string
}

func newFakeTasks() *fakeTasks { return &fakeTasks{tasks: map[int]models.Task{}} }

func (f *fakeTasks) List(_ context.Context, ownerID int, status string) ([]models.Task, error) {
	f.gotStatus = status
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Task
	for id := 1; id <= f.nextID; id++ {
		t, ok := f.tasks[id]
		if ok && t.OwnerID == ownerID && (status == "" || t.Status == status) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) Get(_ context.Context, ownerID, id int) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTasks) Create(_ context.Context, t models.Task) (*models.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	t.ID = f.nextID
	t.CreatedAt = time.Now().UTC()
	f.tasks[t.ID] = t
	return &t, nil
}

func (f *fakeTasks) Update(_ context.Context, t models.Task) (*models.Task, error) {
	cur, ok := f.tasks[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return nil, repository.ErrNotFound
	}
	t.CreatedAt = cur.CreatedAt
	f.tasks[t.ID] = t
	return &t, nil
}

func (f *fakeTasks) Delete(_ context.Context, ownerID, id int) error {
	cur, ok := f.tasks[id]
	if !ok || cur.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

// fakeActivity captures appended events and List parameters.
type fakeActivity struct {
	mu        sync.Mutex
	appended  []models.ActivityEvent
	appendErr error

	gotUserID int
	gotFrom   time.Time
	gotTo     time.Time
	gotType   string
	events    []models.ActivityEvent
	listErr   error
	calls     int
}

func (f *fakeActivity) Append(_ context.Context, e models.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeActivity) List(_ context.Context, userID int, from, to time.Time, typ string) ([]models.ActivityEvent, error) {
	f.calls++
	f.gotUserID, f.gotFrom, f.gotTo, f.gotType = userID, from, to, typ
	return f.events, f.listErr
}

func (f *fakeActivity) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

func newTestTokens(now func() time.Time) *auth.TokenManager {
	opts := []auth.TokenOption{}
	if now != nil {
		opts = append(opts, auth.WithClock(now))
	}
	m, err := auth.NewTokenManager(auth.TokenConfig{Secret: []byte(testSecret), Algorithm: "HS256", TTL: auth.DefaultTokenTTL}, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func newTestAuthService(users *fakeUsers, act *fakeActivity, now func() time.Time) (*AuthService, *auth.TokenManager) {
	tokens := newTestTokens(now)
	return NewAuthService(users, auth.NewHasher(bcrypt.MinCost), tokens, newRecorder(act, nil), nil), tokens
}
