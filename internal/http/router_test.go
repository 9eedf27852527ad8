package httpx

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"iter"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iranadryan/task-manager/internal/avatar"
	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
	"github.com/iranadryan/task-manager/internal/repository/memory"
	"github.com/iranadryan/task-manager/internal/service/account"
	"github.com/iranadryan/task-manager/internal/service/auth"
	"github.com/iranadryan/task-manager/internal/service/session"
	"github.com/iranadryan/task-manager/internal/service/task"
	"github.com/iranadryan/task-manager/internal/ws"
	"github.com/iranadryan/task-manager/pkg/config"
)

type testEnv struct {
	server *httptest.Server
	hub    *ws.Hub
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, store repository.Store) testEnv {
	t.Helper()
	cfg := config.APIConfig{JWTSecret: "router-test", BcryptCost: bcrypt.MinCost}
	logger := newLogger()
	hub := ws.NewHub()
	tasks := task.New(store, NewEventPublisher(hub, logger), logger)
	sessions := session.New(store, store, logger, cfg)
	router := NewRouter(logger, Services{
		Accounts: account.New(store, store, store, tasks, avatar.NewRepositoryStore(store), nil, logger, cfg),
		Sessions: sessions,
		Guard:    auth.New(sessions, logger),
		Tasks:    tasks,
	}, hub, prometheus.NewRegistry(), store.Ping)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})
	return testEnv{server: server, hub: hub}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) json(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (e testEnv) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return response{status: res.StatusCode, header: res.Header, body: data}
}

type authResult struct {
	User  map[string]any `json:"user"`
	Token string         `json:"token"`
}

func (e testEnv) register(t *testing.T, name, email string) authResult {
	t.Helper()
	res := e.do(t, http.MethodPost, "/users", "", map[string]any{
		"name": name, "email": email, "password": "MyPass777!",
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var out authResult
	res.json(t, &out)
	require.NotEmpty(t, out.Token)
	return out
}

func (e testEnv) createTask(t *testing.T, token, description string, completed bool) map[string]any {
	t.Helper()
	res := e.do(t, http.MethodPost, "/tasks", token, map[string]any{"description": description, "completed": completed})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var out map[string]any
	res.json(t, &out)
	return out
}

func TestRegisterLoginAndSessions(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")

	assert.Equal(t, "lucas@example.com", lucas.User["email"])
	assert.NotContains(t, lucas.User, "password")
	assert.NotContains(t, lucas.User, "password_hash")
	assert.NotContains(t, lucas.User, "sessions")

	res := env.do(t, http.MethodPost, "/users", "", map[string]any{
		"name": "Other", "email": "LUCAS@example.com", "password": "MyPass777!",
	})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = env.do(t, http.MethodPost, "/users/login", "", map[string]any{"email": "lucas@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = env.do(t, http.MethodPost, "/users/login", "", map[string]any{"email": "nobody@example.com", "password": "MyPass777!"})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = env.do(t, http.MethodPost, "/users/login", "", map[string]any{"email": "lucas@example.com", "password": "MyPass777!"})
	require.Equal(t, http.StatusOK, res.status)
	var laptop authResult
	res.json(t, &laptop)
	assert.NotEqual(t, lucas.Token, laptop.Token)

	res = env.do(t, http.MethodGet, "/users/me", lucas.Token, nil)
	require.Equal(t, http.StatusOK, res.status)
	var me map[string]any
	res.json(t, &me)
	assert.Equal(t, lucas.User["id"], me["id"])

	res = env.do(t, http.MethodPost, "/users/logout", lucas.Token, nil)
	assert.Equal(t, http.StatusNoContent, res.status)
	res = env.do(t, http.MethodGet, "/users/me", lucas.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	res = env.do(t, http.MethodGet, "/users/me", laptop.Token, nil)
	assert.Equal(t, http.StatusOK, res.status)

	res = env.do(t, http.MethodPost, "/users/logout-all", laptop.Token, nil)
	assert.Equal(t, http.StatusNoContent, res.status)
	res = env.do(t, http.MethodGet, "/users/me", laptop.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestUnauthenticatedRequests(t *testing.T) {
	env := newTestEnv(t, memory.New())
	for _, tc := range []struct{ method, path, token string }{
		{http.MethodGet, "/users/me", ""},
		{http.MethodGet, "/tasks", ""},
		{http.MethodPost, "/tasks", "garbage"},
		{http.MethodPost, "/users/logout", "a.b.c"},
	} {
		res := env.do(t, tc.method, tc.path, tc.token, nil)
		assert.Equal(t, http.StatusUnauthorized, res.status, tc.path)
		assert.JSONEq(t, `{"error":"please authenticate"}`, string(res.body))
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")

	res := env.do(t, http.MethodPatch, "/users/me", lucas.Token, `{"name":"Lucas S","age":31}`)
	require.Equal(t, http.StatusOK, res.status)
	var me map[string]any
	res.json(t, &me)
	assert.Equal(t, "Lucas S", me["name"])
	assert.EqualValues(t, 31, me["age"])

	res = env.do(t, http.MethodPatch, "/users/me", lucas.Token, `{"name":"Hacker","location":"x"}`)
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = env.do(t, http.MethodPatch, "/users/me", lucas.Token, `not json`)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = env.do(t, http.MethodGet, "/users/me", lucas.Token, nil)
	res.json(t, &me)
	assert.Equal(t, "Lucas S", me["name"])
}

func TestTaskOwnershipBetweenAccounts(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")
	pedro := env.register(t, "Pedro", "pedro@example.com")

	first := env.createTask(t, lucas.Token, "First task", false)
	env.createTask(t, lucas.Token, "Second task", true)
	env.createTask(t, pedro.Token, "Pedro task", true)
	assert.Equal(t, lucas.User["id"], first["owner_id"])
	id := first["id"].(string)

	res := env.do(t, http.MethodGet, "/tasks/"+id, pedro.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	res = env.do(t, http.MethodPatch, "/tasks/"+id, pedro.Token, `{"completed":true}`)
	assert.Equal(t, http.StatusNotFound, res.status)
	res = env.do(t, http.MethodDelete, "/tasks/"+id, pedro.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.status)

	res = env.do(t, http.MethodGet, "/tasks/"+id, lucas.Token, nil)
	require.Equal(t, http.StatusOK, res.status)
	var got map[string]any
	res.json(t, &got)
	assert.Equal(t, false, got["completed"])

	res = env.do(t, http.MethodGet, "/tasks?completed=true", lucas.Token, nil)
	require.Equal(t, http.StatusOK, res.status)
	var list []map[string]any
	res.json(t, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Second task", list[0]["description"])

	res = env.do(t, http.MethodGet, "/tasks?sort=description:desc&limit=1&skip=0", lucas.Token, nil)
	res.json(t, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Second task", list[0]["description"])

	res = env.do(t, http.MethodPatch, "/tasks/"+id, lucas.Token, `{"completed":true}`)
	require.Equal(t, http.StatusOK, res.status)
	res = env.do(t, http.MethodDelete, "/tasks/"+id, lucas.Token, nil)
	require.Equal(t, http.StatusOK, res.status)
	res = env.do(t, http.MethodGet, "/tasks/"+id, lucas.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestTaskValidation(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")
	pedro := env.register(t, "Pedro", "pedro@example.com")
	id := env.createTask(t, lucas.Token, "Mine", false)["id"].(string)

	res := env.do(t, http.MethodPost, "/tasks", lucas.Token, map[string]any{"description": "x", "owner_id": pedro.User["id"]})
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = env.do(t, http.MethodPost, "/tasks", lucas.Token, `{"completed":true}`)
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = env.do(t, http.MethodPatch, "/tasks/"+id, lucas.Token, `{"description":"new","owner_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, res.status)

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		res = env.do(t, method, "/tasks/not-a-uuid", lucas.Token, `{"completed":true}`)
		assert.Equal(t, http.StatusBadRequest, res.status, method)
	}

	res = env.do(t, http.MethodGet, "/tasks/"+id, lucas.Token, nil)
	var got map[string]any
	res.json(t, &got)
	assert.Equal(t, "Mine", got["description"])
}

func TestDeleteAccountCascades(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")
	id := env.createTask(t, lucas.Token, "Mine", false)["id"].(string)

	res := env.do(t, http.MethodDelete, "/users/me", lucas.Token, nil)
	require.Equal(t, http.StatusOK, res.status)
	var removed map[string]any
	res.json(t, &removed)
	assert.Equal(t, lucas.User["id"], removed["id"])

	res = env.do(t, http.MethodGet, "/tasks/"+id, lucas.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	again := env.register(t, "Lucas", "lucas@example.com")
	res = env.do(t, http.MethodGet, "/tasks", again.Token, nil)
	assert.JSONEq(t, `[]`, string(res.body))
}

func multipartAvatar(t *testing.T, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e testEnv) upload(t *testing.T, token, filename string, data []byte) int {
	t.Helper()
	body, contentType := multipartAvatar(t, filename, data)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/users/me/avatar", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := e.server.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	return res.StatusCode
}

func TestAvatarEndpoints(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")
	id := lucas.User["id"].(string)

	res := env.do(t, http.MethodGet, "/users/"+id+"/avatar", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 500, 300))))

	assert.Equal(t, http.StatusBadRequest, env.upload(t, lucas.Token, "profile.pdf", img.Bytes()))
	assert.Equal(t, http.StatusBadRequest, env.upload(t, lucas.Token, "profile.png", []byte("plain text")))
	assert.Equal(t, http.StatusBadRequest, env.upload(t, lucas.Token, "profile.png", make([]byte, avatar.MaxUploadBytes+1)))
	require.Equal(t, http.StatusOK, env.upload(t, lucas.Token, "profile.png", img.Bytes()))

	res = env.do(t, http.MethodGet, "/users/"+id+"/avatar", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "image/png", res.header.Get("Content-Type"))
	cfg, err := png.DecodeConfig(bytes.NewReader(res.body))
	require.NoError(t, err)
	assert.Equal(t, avatar.Size, cfg.Width)
	assert.Equal(t, avatar.Size, cfg.Height)

	res = env.do(t, http.MethodDelete, "/users/me/avatar", lucas.Token, nil)
	assert.Equal(t, http.StatusOK, res.status)
	res = env.do(t, http.MethodGet, "/users/"+id+"/avatar", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestTaskEventsOverSSE(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")
	pedro := env.register(t, "Pedro", "pedro@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/tasks/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+lucas.Token)
	res, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	ownerID := lucas.User["id"].(string)
	require.Eventually(t, func() bool { return env.hub.Subscribers(ownerID) == 1 }, time.Second, 5*time.Millisecond)

	env.createTask(t, pedro.Token, "not for lucas", false)
	env.createTask(t, lucas.Token, "for lucas", false)

	reader := bufio.NewReader(res.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "), line)

	var event struct {
		Type string         `json:"type"`
		Task map[string]any `json:"task"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &event))
	assert.Equal(t, string(task.EventCreated), event.Type)
	assert.Equal(t, "for lucas", event.Task["description"])
}

func TestTaskEventsOverWebSocket(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/tasks"
	header := http.Header{"Authorization": {"Bearer " + lucas.Token}}
	conn, res, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)

	ownerID := lucas.User["id"].(string)
	require.Eventually(t, func() bool { return env.hub.Subscribers(ownerID) == 1 }, time.Second, 5*time.Millisecond)

	created := env.createTask(t, lucas.Token, "live", false)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type string         `json:"type"`
		Task map[string]any `json:"task"`
	}
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, string(task.EventCreated), event.Type)
	assert.Equal(t, created["id"], event.Task["id"])

	_, _, err = websocket.DefaultDialer.Dial(url, nil)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
}

func TestWebSocketStreamEndsWithSession(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/tasks"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + lucas.Token}})
	require.NoError(t, err)
	defer conn.Close()
	ownerID := lucas.User["id"].(string)
	require.Eventually(t, func() bool { return env.hub.Subscribers(ownerID) == 1 }, time.Second, 5*time.Millisecond)

	res := env.do(t, http.MethodPost, "/users/logout-all", lucas.Token, nil)
	require.Equal(t, http.StatusNoContent, res.status)
	res = env.do(t, http.MethodPost, "/users/login", "", map[string]any{"email": "lucas@example.com", "password": "MyPass777!"})
	require.Equal(t, http.StatusOK, res.status)
	var fresh authResult
	res.json(t, &fresh)

	env.createTask(t, fresh.Token, "private after logout", false)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.Error(t, err, "revoked stream delivered %s", payload)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "stream should be closed, not left idle")
	}
	require.Eventually(t, func() bool { return env.hub.Subscribers(ownerID) == 0 }, time.Second, 5*time.Millisecond)
}

func TestSSEStreamEndsWithSession(t *testing.T) {
	env := newTestEnv(t, memory.New())
	lucas := env.register(t, "Lucas", "lucas@example.com")

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/tasks/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+lucas.Token)
	res, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	ownerID := lucas.User["id"].(string)
	require.Eventually(t, func() bool { return env.hub.Subscribers(ownerID) == 1 }, time.Second, 5*time.Millisecond)

	out := env.do(t, http.MethodPost, "/users/logout", lucas.Token, nil)
	require.Equal(t, http.StatusNoContent, out.status)
	other := env.do(t, http.MethodPost, "/users/login", "", map[string]any{"email": "lucas@example.com", "password": "MyPass777!"})
	require.Equal(t, http.StatusOK, other.status)
	var fresh authResult
	other.json(t, &fresh)
	env.createTask(t, fresh.Token, "private after logout", false)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "private after logout")
}

// stalledWriter is a response writer whose peer never reads.
type stalledWriter struct {
	header  http.Header
	release chan struct{}
}

func (w *stalledWriter) Header() http.Header { return w.header }
func (w *stalledWriter) WriteHeader(int)     {}
func (w *stalledWriter) Flush()              {}

func (w *stalledWriter) Write([]byte) (int, error) {
	<-w.release
	return 0, io.ErrClosedPipe
}

func TestStalledStreamDoesNotBlockOtherAccounts(t *testing.T) {
	env := newTestEnv(t, memory.New())
	slow := env.register(t, "Slow", "slow@example.com")
	victim := env.register(t, "Victim", "victim@example.com")

	stalled := &stalledWriter{header: http.Header{}, release: make(chan struct{})}
	defer close(stalled.release)
	slowID := slow.User["id"].(string)
	env.hub.Register(slowID, ws.NewSSEClient(stalled, newLogger()))

	statuses := make(chan int, 1)
	go func() {
		for i := 0; i < 40; i++ {
			env.do(t, http.MethodPost, "/tasks", slow.Token, map[string]any{"description": "flood", "completed": false})
		}
		statuses <- env.do(t, http.MethodPost, "/tasks", victim.Token, map[string]any{"description": "victim task", "completed": false}).status
	}()

	select {
	case status := <-statuses:
		assert.Equal(t, http.StatusCreated, status)
	case <-time.After(10 * time.Second):
		t.Fatal("task writes blocked behind a stalled event stream")
	}
	require.Eventually(t, func() bool { return env.hub.Subscribers(slowID) == 0 }, time.Second, 5*time.Millisecond)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, memory.New())

	res := env.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	var health map[string]any
	res.json(t, &health)
	assert.Equal(t, "ok", health["status"])

	res = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, string(res.body), "task_manager_api_http_requests_total")
	assert.Contains(t, string(res.body), `route="GET /healthz"`)
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) ListTasks(context.Context, string, domain.TaskQuery) iter.Seq2[domain.Task, error] {
	return func(yield func(domain.Task, error) bool) {
		yield(domain.Task{}, errors.New("pq: connection to 10.0.0.7 refused"))
	}
}

func (brokenStore) Ping(context.Context) error {
	return errors.New("pq: connection to 10.0.0.7 refused")
}

func TestStoreErrorsAreNotLeaked(t *testing.T) {
	env := newTestEnv(t, brokenStore{memory.New()})
	lucas := env.register(t, "Lucas", "lucas@example.com")

	res := env.do(t, http.MethodGet, "/tasks", lucas.Token, nil)
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.JSONEq(t, `{"error":"internal error"}`, string(res.body))

	res = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.status)
	assert.NotContains(t, string(res.body), "10.0.0.7")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("name", "is required"), http.StatusBadRequest},
		{session.ErrInvalidToken, http.StatusUnauthorized},
		{account.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
