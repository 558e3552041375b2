package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/stretchr/testify/require"
)

var specPath = filepath.Join("..", "..", "docs", "api", "openapi.yaml")

// loadSpec loads and validates the OpenAPI document, served from baseURL.
func loadSpec(t *testing.T, baseURL string) routers.Router {
	t.Helper()

	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromFile(specPath)
	require.NoError(t, err, "load OpenAPI spec")
	require.NoError(t, spec.Validate(context.Background()), "validate OpenAPI spec")

	spec.Servers = openapi3.Servers{{URL: baseURL}}
	router, err := gorillamux.NewRouter(spec)
	require.NoError(t, err, "build router from spec")
	return router
}

// contractClient sends requests to a live server and checks every response
// against the document.
type contractClient struct {
	t      *testing.T
	base   string
	router routers.Router
}

func (c *contractClient) call(method, path, token, body string) (int, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	route, pathParams, err := c.router.FindRoute(req)
	require.NoError(c.t, err, "%s %s is not documented", method, path)

	err = openapi3filter.ValidateResponse(context.Background(), &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   io.NopCloser(bytes.NewReader(raw)),
	})
	require.NoError(c.t, err, "%s %s answered %d: %s", method, path, resp.StatusCode, raw)
	return resp.StatusCode, raw
}

func TestContract_ResponsesMatchDocument(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.handler)
	defer srv.Close()

	c := &contractClient{t: t, base: srv.URL, router: loadSpec(t, srv.URL)}

	status, _ := c.call(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, status)
	status, _ = c.call(http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, status)

	creds := `{"username":"frank","password":"long-enough-pw"}`
	status, _ = c.call(http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, status)
	status, _ = c.call(http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusConflict, status)
	status, _ = c.call(http.MethodPost, "/api/auth/token", "", `{"username":"frank","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, status)

	status, raw := c.call(http.MethodPost, "/api/auth/token", "", creds)
	require.Equal(t, http.StatusOK, status)
	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(raw, &token))
	bearer := token.AccessToken

	status, _ = c.call(http.MethodGet, "/api/tasks", "", "")
	require.Equal(t, http.StatusUnauthorized, status)

	status, raw = c.call(http.MethodPost, "/api/tasks", bearer, `{"title":"contract","due_at":"2026-12-24T18:00:00Z"}`)
	require.Equal(t, http.StatusCreated, status)
	var task struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &task))

	status, _ = c.call(http.MethodPost, "/api/tasks", bearer, `{"done":true}`)
	require.Equal(t, http.StatusBadRequest, status)
	status, _ = c.call(http.MethodGet, "/api/tasks?done=false", bearer, "")
	require.Equal(t, http.StatusOK, status)
	status, _ = c.call(http.MethodGet, "/api/tasks/"+task.ID, bearer, "")
	require.Equal(t, http.StatusOK, status)
	status, _ = c.call(http.MethodPut, "/api/tasks/"+task.ID, bearer, `{"done":true,"due_at":null}`)
	require.Equal(t, http.StatusOK, status)
	status, _ = c.call(http.MethodGet, "/api/tasks/not-an-id", bearer, "")
	require.Equal(t, http.StatusNotFound, status)
	status, _ = c.call(http.MethodDelete, "/api/tasks/"+task.ID, bearer, "")
	require.Equal(t, http.StatusNoContent, status)
	status, _ = c.call(http.MethodGet, "/api/tasks/"+task.ID, bearer, "")
	require.Equal(t, http.StatusNotFound, status)

	status, _ = c.call(http.MethodPost, "/api/labels", bearer, `{"name":"docs","color":"#00ff00"}`)
	require.Equal(t, http.StatusCreated, status)
	status, _ = c.call(http.MethodGet, "/api/labels", bearer, "")
	require.Equal(t, http.StatusOK, status)
	status, _ = c.call(http.MethodPut, "/api/labels/1", bearer, `{"color":""}`)
	require.Equal(t, http.StatusOK, status)
	status, _ = c.call(http.MethodGet, "/api/labels/99", bearer, "")
	require.Equal(t, http.StatusNotFound, status)
	status, _ = c.call(http.MethodDelete, "/api/labels/1", bearer, "")
	require.Equal(t, http.StatusNoContent, status)

	status, _ = c.call(http.MethodPost, "/api/auth/logout", "", "")
	require.Equal(t, http.StatusNoContent, status)
}
