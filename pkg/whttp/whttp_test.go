package whttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendHTTPRequestTitleAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != UserAgent {
			t.Errorf("unexpected user agent %q", got)
		}
		if got := r.Header.Get("X-Test"); got != "yes" {
			t.Errorf("custom header missing, got %q", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, "<html><head><title>\n  The Shop\r\n</title></head><body></body></html>")
	}))
	defer srv.Close()

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Headers: []WHTTPHeader{{Name: "X-Test", Value: "yes"}},
	}, nil)
	if err != nil {
		t.Fatalf("SendHTTPRequest: %v", err)
	}
	if !res.OK() {
		t.Fatalf("expected 2xx, got %d", res.StatusCode)
	}
	if res.HTTPTitle != "The Shop" {
		t.Fatalf("unexpected title %q", res.HTTPTitle)
	}
}

func TestSendHTTPRequestPostsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	}))
	defer srv.Close()

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{
		Method: http.MethodPost,
		URL:    srv.URL,
		Body:   []byte(`{"text":"hi"}`),
	}, nil)
	if err != nil {
		t.Fatalf("SendHTTPRequest: %v", err)
	}
	if res.BodyString != `{"text":"hi"}` {
		t.Fatalf("unexpected echo %q", res.BodyString)
	}
	if res.HTTPTitle != "" {
		t.Fatalf("title should only be sniffed for html, got %q", res.HTTPTitle)
	}
}

func TestSendHTTPRequestNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient("", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.RetryWaitMin = time.Millisecond
	client.RetryWaitMax = time.Millisecond

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{Method: http.MethodGet, URL: srv.URL}, client)
	if err != nil {
		t.Fatalf("SendHTTPRequest: %v", err)
	}
	if res.OK() || res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	if _, err := NewClient("://bad", nil); err == nil {
		t.Fatalf("expected error for malformed proxy")
	}
}
