package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppm-intake-be/internal/dto"
	"ppm-intake-be/internal/pkg/serverutils"
	"ppm-intake-be/pkg/intake/session"
)

const testSecret = "controller-secret"

type fakeIntakeService struct {
	mu         sync.Mutex
	lastID     string
	lastSearch *dto.SearchRequest
	lastQuery  *dto.HistoryQuery
	cleared    []string
	clearedAll int
	err        error
}

func (f *fakeIntakeService) remember(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastID = id
}

func (f *fakeIntakeService) CreateSession(context.Context) (*dto.CreateSessionResponse, error) {
	return &dto.CreateSessionResponse{SessionID: "s-1", CreatedAt: time.Now(), Message: session.Greeting}, f.err
}

func (f *fakeIntakeService) SendMessage(_ context.Context, id string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	f.remember(id)
	if f.err != nil {
		return nil, f.err
	}
	next := "c1"
	return &dto.SendMessageResponse{
		SessionID:     id,
		Response:      "got " + req.Message,
		CollectedInfo: map[string]string{"u1": req.Message, "c1": "", "u2": "", "c2": ""},
		NextField:     &next,
	}, nil
}

func (f *fakeIntakeService) GetHistory(_ context.Context, id string, q *dto.HistoryQuery) (*dto.ConversationHistoryResponse, error) {
	f.mu.Lock()
	f.lastID = id
	f.lastQuery = q
	f.mu.Unlock()
	return &dto.ConversationHistoryResponse{SessionID: id, Conversations: []dto.ConversationDTO{}}, f.err
}

func (f *fakeIntakeService) GetCollectedInfo(_ context.Context, id string) (*dto.CollectedInfoResponse, error) {
	f.remember(id)
	return &dto.CollectedInfoResponse{SessionID: id}, f.err
}

func (f *fakeIntakeService) GetCompletionStatus(_ context.Context, id string) (*dto.CompletionStatusResponse, error) {
	f.remember(id)
	return &dto.CompletionStatusResponse{SessionID: id, TotalRequired: 4, Progress: "0/4 fields collected"}, f.err
}

func (f *fakeIntakeService) GetStatus(_ context.Context, id string) (*dto.SessionStatusResponse, error) {
	f.remember(id)
	return &dto.SessionStatusResponse{SessionID: id, State: string(session.StatusActive)}, f.err
}

func (f *fakeIntakeService) Search(_ context.Context, id string, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	f.mu.Lock()
	f.lastID = id
	f.lastSearch = req
	f.mu.Unlock()
	return &dto.SearchResponse{SessionID: id, Query: req.Query}, f.err
}

func (f *fakeIntakeService) CloseSession(_ context.Context, id string) error {
	f.remember(id)
	return f.err
}

func (f *fakeIntakeService) ClearConversations(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, id)
	return f.err
}

func (f *fakeIntakeService) ClearAllConversations(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearedAll++
	return f.err
}

func (f *fakeIntakeService) ActiveSessions() int { return 0 }

func newTestApp(svc *fakeIntakeService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewIntakeController(svc).RegisterRoutes(api)
	NewAdminController(svc, testSecret).RegisterRoutes(api)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, header http.Header) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestCreateSessionRoute(t *testing.T) {
	app := newTestApp(&fakeIntakeService{})

	resp, body := doJSON(t, app, "POST", "/api/chat/sessions", "", nil)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "s-1", data["session_id"])
	assert.Equal(t, session.Greeting, data["message"])
}

func TestSendMessageRoute(t *testing.T) {
	svc := &fakeIntakeService{}
	app := newTestApp(svc)

	resp, body := doJSON(t, app, "POST", "/api/chat/sessions/abc/messages", `{"message":"Stanford"}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc", svc.lastID)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "got Stanford", data["response"])
	assert.Equal(t, "c1", data["next_field"])
	assert.Equal(t, false, data["is_cached"])
}

func TestSendMessageRejectsBadInput(t *testing.T) {
	app := newTestApp(&fakeIntakeService{})

	resp, body := doJSON(t, app, "POST", "/api/chat/sessions/abc/messages", `{"message":""}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, _ = doJSON(t, app, "POST", "/api/chat/sessions/abc/messages", `{not json`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReadRoutes(t *testing.T) {
	svc := &fakeIntakeService{}
	app := newTestApp(svc)

	for _, path := range []string{"messages", "info", "completion", "status"} {
		t.Run(path, func(t *testing.T) {
			resp, body := doJSON(t, app, "GET", "/api/chat/sessions/xyz/"+path, "", nil)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "xyz", svc.lastID)
		})
	}
}

func TestHistoryRoutePaging(t *testing.T) {
	svc := &fakeIntakeService{}
	app := newTestApp(svc)

	resp, _ := doJSON(t, app, "GET", "/api/chat/sessions/xyz/messages?limit=10&offset=20", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.lastQuery)
	assert.Equal(t, dto.HistoryQuery{Limit: 10, Offset: 20}, *svc.lastQuery)

	resp, _ = doJSON(t, app, "GET", "/api/chat/sessions/xyz/messages", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.HistoryQuery{}, *svc.lastQuery)

	resp, _ = doJSON(t, app, "GET", "/api/chat/sessions/xyz/messages?limit=500", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/chat/sessions/xyz/messages?offset=-1", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSearchRoute(t *testing.T) {
	svc := &fakeIntakeService{}
	app := newTestApp(svc)

	resp, _ := doJSON(t, app, "POST", "/api/chat/sessions/xyz/search", `{"query":"stanford","limit":3}`, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.lastSearch)
	assert.Equal(t, 3, svc.lastSearch.Limit)

	resp, _ = doJSON(t, app, "POST", "/api/chat/sessions/xyz/search", `{"query":"stanford","limit":100}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCloseSessionRoute(t *testing.T) {
	svc := &fakeIntakeService{}
	app := newTestApp(svc)

	resp, body := doJSON(t, app, "DELETE", "/api/chat/sessions/xyz", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "xyz", svc.lastID)
}

func TestServiceFailureIsServerError(t *testing.T) {
	app := newTestApp(&fakeIntakeService{err: errors.New("index offline")})

	resp, body := doJSON(t, app, "GET", "/api/chat/sessions/xyz/messages", "", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "index offline", body["message"])
}

func bearer(t *testing.T, role string) http.Header {
	t.Helper()
	token, err := serverutils.SignToken(testSecret, jwt.MapClaims{
		"user_id": "ops",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	svc := &fakeIntakeService{}
	app := newTestApp(svc)

	resp, _ := doJSON(t, app, "DELETE", "/api/admin/conversations", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/api/admin/conversations", "", bearer(t, "user"))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, svc.clearedAll)

	resp, _ = doJSON(t, app, "DELETE", "/api/admin/conversations", "", bearer(t, serverutils.RoleAdmin))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.clearedAll)

	resp, _ = doJSON(t, app, "DELETE", "/api/admin/conversations/abc", "", bearer(t, serverutils.RoleAdmin))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"abc"}, svc.cleared)
}
