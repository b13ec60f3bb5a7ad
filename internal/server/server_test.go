package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sw33tLie/shopwatch/pkg/polling"
)

type runnerFunc func(ctx context.Context) (*polling.Result, error)

func (f runnerFunc) Run(ctx context.Context) (*polling.Result, error) { return f(ctx) }

func do(t *testing.T, h http.Handler, req *http.Request) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestRunReturnsMessage(t *testing.T) {
	calls := 0
	s := New(runnerFunc(func(context.Context) (*polling.Result, error) {
		calls++
		return &polling.Result{RunID: "abc", Message: polling.MsgNoChanges}, nil
	}), "", "")

	res, body := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, polling.MsgNoChanges, body)
	require.Equal(t, "abc", res.Header.Get("X-Run-Id"))
	require.Equal(t, 1, calls)
}

func TestRunErrorIs500(t *testing.T) {
	s := New(runnerFunc(func(context.Context) (*polling.Result, error) {
		return nil, errors.New("availableItems not found")
	}), "", "")

	res, body := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Contains(t, body, "availableItems not found")
}

func TestRepoRedirect(t *testing.T) {
	s := New(runnerFunc(func(context.Context) (*polling.Result, error) {
		t.Fatal("runner must not be called")
		return nil, nil
	}), "user", "pass")

	res, _ := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/repo", nil))
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.Equal(t, RepoURL, res.Header.Get("Location"))
}

func TestBasicAuth(t *testing.T) {
	s := New(runnerFunc(func(context.Context) (*polling.Result, error) {
		return &polling.Result{Message: "ok"}, nil
	}), "user", "pass")
	h := s.Handler()

	res, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("user", "wrong")
	res, _ = do(t, h, req)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("user", "pass")
	res, body := do(t, h, req)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", body)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s := New(runnerFunc(func(context.Context) (*polling.Result, error) {
		return &polling.Result{}, nil
	}), "", "")
	h := s.Handler()

	res, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = do(t, h, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}
