package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/gateway/internal/config"
	"github.com/xiaot623/gogo/gateway/internal/domain"
	"github.com/xiaot623/gogo/gateway/internal/policy"
	"github.com/xiaot623/gogo/gateway/internal/repository"
	"github.com/xiaot623/gogo/gateway/internal/service"
	"github.com/xiaot623/gogo/gateway/tests/helpers"
)

func newTestHandler(t *testing.T, runner *helpers.FakeRunner) (*Handler, repository.Store) {
	t.Helper()
	db := helpers.NewTestSQLiteStore(t)
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	svc := service.New(db, runner, policyEngine, config.Default(), nil)
	return NewHandler(svc, nil), db
}

func newTestServer(t *testing.T, runner *helpers.FakeRunner) (*echo.Echo, repository.Store) {
	t.Helper()
	h, db := newTestHandler(t, runner)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, db
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, helpers.NewFakeRunner())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/plain")
}

func TestCreateSession(t *testing.T) {
	e, _ := newTestServer(t, helpers.NewFakeRunner())

	rec := do(e, http.MethodPost, "/api/sessions", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created domain.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "New Chat", created.Name)

	rec = do(e, http.MethodPost, "/api/sessions", `{"id":"s1","name":"Work"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"s1","name":"Work"}`, rec.Body.String())

	// Existing id keeps its name.
	rec = do(e, http.MethodPost, "/api/sessions", `{"id":"s1","name":"Other"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"s1","name":"Work"}`, rec.Body.String())
}

func TestCreateSessionMalformedBody(t *testing.T) {
	e, _ := newTestServer(t, helpers.NewFakeRunner())

	rec := do(e, http.MethodPost, "/api/sessions", `{"id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessions(t *testing.T) {
	e, _ := newTestServer(t, helpers.NewFakeRunner(helpers.Success("ok", "tok")))

	rec := do(e, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	do(e, http.MethodPost, "/api/sessions", `{"id":"a"}`)
	do(e, http.MethodPost, "/api/chat", `{"prompt":"hello","sessionId":"b"}`)

	rec = do(e, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0]["id"])
	assert.Equal(t, "hello", list[0]["name"])
	assert.EqualValues(t, 2, list[0]["messageCount"])
	assert.Contains(t, list[0], "createdAt")
	assert.Equal(t, "a", list[1]["id"])
	assert.EqualValues(t, 0, list[1]["messageCount"])
}

func TestDeleteSessionIsIdempotent(t *testing.T) {
	e, db := newTestServer(t, helpers.NewFakeRunner())
	do(e, http.MethodPost, "/api/sessions", `{"id":"s1"}`)

	for range 2 {
		rec := do(e, http.MethodDelete, "/api/sessions/s1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	}

	session, err := db.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestRenameSession(t *testing.T) {
	e, db := newTestServer(t, helpers.NewFakeRunner())
	do(e, http.MethodPost, "/api/sessions", `{"id":"s1"}`)

	rec := do(e, http.MethodPatch, "/api/sessions/s1", `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	session, err := db.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", session.Name)
}

func TestRenameSessionErrors(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t, helpers.NewFakeRunner())

	req := httptest.NewRequest(http.MethodPatch, "/api/sessions/missing", bytes.NewBufferString(`{"name":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("missing")

	require.NoError(t, h.RenameSession(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A rename never creates the session.
	session, err := db.GetSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, session)

	req = httptest.NewRequest(http.MethodPatch, "/api/sessions/missing", bytes.NewBufferString(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("missing")

	require.NoError(t, h.RenameSession(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSessionMessages(t *testing.T) {
	e, _ := newTestServer(t, helpers.NewFakeRunner(helpers.Success("hi there", "tok")))

	rec := do(e, http.MethodGet, "/api/sessions/s1/messages", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	do(e, http.MethodPost, "/api/chat", `{"prompt":"hello","sessionId":"s1"}`)

	rec = do(e, http.MethodGet, "/api/sessions/s1/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Messages, 2)
	assert.Equal(t, domain.MessageRoleUser, body.Messages[0].Role)
	assert.Equal(t, "hello", body.Messages[0].Content)
	assert.Equal(t, domain.MessageRoleAssistant, body.Messages[1].Role)
	assert.Equal(t, "hi there", body.Messages[1].Content)
}

func TestChat(t *testing.T) {
	runner := helpers.NewFakeRunner(
		helpers.Success("first answer", "tok-1"),
		helpers.Success("second answer", "tok-2"),
	)
	e, _ := newTestServer(t, runner)

	rec := do(e, http.MethodPost, "/api/chat", `{"prompt":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var first domain.ChatResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, "first answer", first.Result)
	assert.NotEmpty(t, first.SessionID)
	assert.NotContains(t, rec.Body.String(), "tok-1")

	rec = do(e, http.MethodPost, "/api/chat", `{"prompt":"again","sessionId":"`+first.SessionID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessionId":"`+first.SessionID+`","result":"second answer"}`, rec.Body.String())

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "tok-1", calls[1].Token)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		runner *helpers.FakeRunner
		body   string
		status int
		want   string
	}{
		{
			name:   "missing prompt",
			runner: helpers.NewFakeRunner(),
			body:   `{"sessionId":"s1"}`,
			status: http.StatusBadRequest,
			want:   `{"error":"prompt is required"}`,
		},
		{
			name:   "malformed body",
			runner: helpers.NewFakeRunner(),
			body:   `not json`,
			status: http.StatusBadRequest,
			want:   `{"error":"invalid request body"}`,
		},
		{
			name:   "auth failure",
			runner: helpers.NewFakeRunner(helpers.Failure(1, "Invalid API key")),
			body:   `{"prompt":"hi"}`,
			status: http.StatusUnauthorized,
			want:   `{"error":"Invalid API key"}`,
		},
		{
			name: "auth failure with clean exit",
			runner: helpers.NewFakeRunner(&domain.InvocationResult{
				Stdout: `{"is_error":true,"result":"OAuth token has expired"}`,
			}),
			body:   `{"prompt":"hi"}`,
			status: http.StatusUnauthorized,
			want:   `{"error":"OAuth token has expired"}`,
		},
		{
			name:   "process failure",
			runner: helpers.NewFakeRunner(helpers.Failure(3, "rate limited")),
			body:   `{"prompt":"hi"}`,
			status: http.StatusBadGateway,
			want:   `{"error":"rate limited","exitCode":3}`,
		},
		{
			name:   "process failure without output",
			runner: helpers.NewFakeRunner(helpers.Failure(1, "")),
			body:   `{"prompt":"hi"}`,
			status: http.StatusBadGateway,
			want:   `{"error":"agent process failed","exitCode":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestServer(t, tt.runner)
			rec := do(e, http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestChatFailureRecordedInHistory(t *testing.T) {
	e, db := newTestServer(t, helpers.NewFakeRunner(helpers.Failure(2, "boom")))

	rec := do(e, http.MethodPost, "/api/chat", `{"prompt":"hi","sessionId":"s1"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	messages, err := db.GetMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.MessageRoleError, messages[1].Role)
}

func TestWriteErrorLogsUnexpectedErrors(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(nil, slog.New(slog.NewJSONHandler(&logs, nil)))

	tests := []struct {
		name   string
		err    error
		status int
		want   string
		logged bool
	}{
		{
			name:   "unexpected error",
			err:    errors.New("disk full"),
			status: http.StatusInternalServerError,
			want:   `{"error":"internal error"}`,
			logged: true,
		},
		{
			name:   "session not found",
			err:    domain.ErrSessionNotFound,
			status: http.StatusNotFound,
			want:   `{"error":"` + domain.ErrSessionNotFound.Error() + `"}`,
		},
		{
			name:   "policy error",
			err:    &domain.PolicyError{Reason: "too big"},
			status: http.StatusBadRequest,
			want:   `{"error":"` + (&domain.PolicyError{Reason: "too big"}).Error() + `"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/sessions", nil), rec)

			require.NoError(t, h.writeError(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
			if tt.logged {
				assert.Contains(t, logs.String(), `"msg":"request failed"`)
				assert.Contains(t, logs.String(), "disk full")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}
