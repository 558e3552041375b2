package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/handler/dto"
	"github.com/niolikon/taskboard/internal/metrics"
	"github.com/niolikon/taskboard/internal/middleware"
	"github.com/niolikon/taskboard/internal/model"
	"github.com/niolikon/taskboard/internal/repository"
	"github.com/niolikon/taskboard/internal/service"
)

var testAuthOptions = auth.SystemOptions{
	Secret:    "handler-test-secret",
	Issuer:    "taskboard",
	Audience:  "taskboard-api",
	Algorithm: "HS256",
	TTL:       time.Hour,
}

var quickHash = auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// testApp is the full router over in-memory stores.
type testApp struct {
	t       *testing.T
	handler http.Handler
	metrics *metrics.InMemoryRecorder
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := discardLogger()
	recorder := metrics.NewInMemory()
	advice := middleware.NewAdvice(logger)

	users := repository.NewMemoryUsers()
	tokens, err := auth.NewTokenFactory(testAuthOptions)
	require.NoError(t, err)
	verifier, err := auth.NewSystemVerifier(testAuthOptions)
	require.NoError(t, err)

	tasks := service.NewSecuredCrudService[string, *model.Task, dto.TaskInput, dto.TaskOutput](
		"tasks",
		repository.NewSecuredMemory[string, *model.Task]("task", model.NewTaskID, users),
		dto.TaskMapper{},
		recorder,
	).WithQueryFilter(service.TaskDoneFilter)
	labels := service.NewCrudService[int64, *model.Label, dto.LabelInput, dto.LabelOutput](
		"labels",
		repository.NewMemory[int64, *model.Label]("label", repository.Int64Sequence()),
		dto.LabelMapper{},
		recorder,
	)

	taskHandler := NewSecuredCrudHandler[string, dto.TaskInput, dto.TaskOutput](
		ResourceConfig[string]{BasePath: "/api/tasks", ParseID: ParseTaskID, Advice: advice}, tasks)
	labelHandler := NewCrudHandler[int64, dto.LabelInput, dto.LabelOutput](
		ResourceConfig[int64]{BasePath: "/api/labels", ParseID: ParseInt64ID, Advice: advice}, labels)

	router := NewRouter(RouterConfig{
		Logger:   logger,
		Security: middleware.DefaultSecurityConfig(),
		CORS:     middleware.DefaultCORSConfig(),
		Authenticate: middleware.Authenticate(middleware.AuthenticateConfig{
			Logger:   logger,
			Verifier: verifier,
			Metrics:  recorder,
			Advice:   advice,
		}),
		Health:  NewHealthHandler(logger),
		Metrics: NewMetricsHandler(recorder),
		Auth:    NewAuthHandler(service.NewSystemAuthService(users, tokens).WithHasher(quickHash), advice, logger),
		Resources: []Resource{
			{Path: "/api/tasks", Routes: taskHandler.Routes},
			{Path: "/api/labels", Routes: labelHandler.Routes},
		},
	})

	return &testApp{t: t, handler: router, metrics: recorder}
}

// do sends body (marshalled unless it is a string) with an optional bearer token.
func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// login registers username and returns an access token.
func (a *testApp) login(username string) string {
	a.t.Helper()

	creds := map[string]string{"username": username, "password": "correct horse battery"}
	rec := a.do(http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/auth/token", "", creds)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var token auth.Token
	decode(a.t, rec, &token)
	require.NotEmpty(a.t, token.AccessToken)
	return token.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

// requireError checks the uniform error body.
func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body dto.ErrorResponse
	decode(t, rec, &body)
	require.Equal(t, msg, body.Error)
	require.Equal(t, status, body.Code)
}
