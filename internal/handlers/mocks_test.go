package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"task_manager/internal/auth"
	"task_manager/internal/models"
	"task_manager/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	mu sync.Mutex

	registerToken string
	registerErr   error
	loginToken    string
	loginErr      error

	// users maps tokens to identities for Authenticate
	users   map[string]*models.User
	authErr error

	lastRegister  service.RegisterInput
	lastLoginUser string
	lastLoginPass string
	authenticateN int
}

func (m *mockAuth) Register(_ context.Context, in service.RegisterInput) (string, error) {
	m.lastRegister = in
	return m.registerToken, m.registerErr
}

func (m *mockAuth) Login(_ context.Context, username, password string) (string, error) {
	m.lastLoginUser = username
	m.lastLoginPass = password
	return m.loginToken, m.loginErr
}

func (m *mockAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authenticateN++
	if m.authErr != nil {
		return nil, m.authErr
	}
	if token == "" {
		return nil, &auth.UnauthorizedError{Reason: auth.ReasonMissingToken}
	}
	u, ok := m.users[token]
	if !ok {
		return nil, &auth.UnauthorizedError{Reason: auth.ReasonInvalidToken}
	}
	return u, nil
}

type mockTasks struct {
	mu sync.Mutex

	list      []models.Task
	listErr   error
	listCalls int
	task      *models.Task
	err       error

	lastOwner  int
	lastID     int
	lastInput  service.TaskInput
	lastStatus string
}

func (m *mockTasks) ListTasks(_ context.Context, ownerID int, status string) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	m.lastOwner, m.lastStatus = ownerID, status
	return m.list, m.listErr
}

func (m *mockTasks) GetTask(_ context.Context, ownerID, id int) (*models.Task, error) {
	m.lastOwner, m.lastID = ownerID, id
	return m.task, m.err
}

func (m *mockTasks) CreateTask(_ context.Context, ownerID int, in service.TaskInput) (*models.Task, error) {
	m.lastOwner, m.lastInput = ownerID, in
	return m.task, m.err
}

func (m *mockTasks) UpdateTask(_ context.Context, ownerID, id int, in service.TaskInput) (*models.Task, error) {
	m.lastOwner, m.lastID, m.lastInput = ownerID, id, in
	return m.task, m.err
}

func (m *mockTasks) DeleteTask(_ context.Context, ownerID, id int) error {
	m.lastOwner, m.lastID = ownerID, id
	return m.err
}

func (m *mockTasks) calls() (int, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.lastStatus
}

func (m *mockAuth) resolutions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticateN
}

type mockActivity struct {
	resp     []models.ActivityEvent
	err      error
	lastUser int
	lastF    service.LogFilter
}

func (m *mockActivity) ListActivity(_ context.Context, userID int, f service.LogFilter) ([]models.ActivityEvent, error) {
	m.lastUser, m.lastF = userID, f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

var alice = &models.User{ID: 1, Username: "alice", Email: "a@x.com", IsActive: true}

func newMockService(tasks *mockTasks, act *mockActivity) (*service.Service, *mockAuth) {
	a := &mockAuth{users: map[string]*models.User{"good": alice}}
	if tasks == nil {
		tasks = &mockTasks{}
	}
	if act == nil {
		act = &mockActivity{}
	}
	return &service.Service{Authorization: a, Tasks: tasks, ActivityLog: act}, a
}

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil, opts...).InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
