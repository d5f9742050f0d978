package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/emojimake/videokit/internal/apierr"
)

type fakeTokens struct {
	token   string
	valid   bool
	expired int
}

func (f *fakeTokens) Token() (string, bool) { return f.token, f.valid }
func (f *fakeTokens) MarkExpired()          { f.expired++ }

func newTestClient(baseURL string, tokens TokenSource) *Client {
	return New(Options{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Tokens:  tokens,
		Logger:  zerolog.Nop(),
	})
}

func TestNoSessionSkipsNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeTokens{valid: false})
	_, apiErr := c.Send(context.Background(), http.MethodPost, "/api/v1/video/create", nil, true, EncodingMultipart)

	if !apierr.IsAuthExpired(apiErr) {
		t.Fatalf("expected auth-expired, got %v", apiErr)
	}
	if hits != 0 {
		t.Errorf("request without a session must not reach the network, got %d hits", hits)
	}
}

func TestMultipartEncodingAndAuthHeader(t *testing.T) {
	var gotAuth string
	var gotFields map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("body is not multipart: %v", err)
		}
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		w.Write([]byte(`{"code":200,"data":{"job_id":"job_1"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeTokens{token: "tok", valid: true})
	fields := Fields{
		"type":       "image_to_video",
		"prompt":     "wave hello",
		"img_base64": []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
	}
	env, apiErr := c.Send(context.Background(), http.MethodPost, "/api/v1/video/create", fields, true, EncodingMultipart)
	if apiErr != nil {
		t.Fatalf("send failed: %v", apiErr)
	}
	if !env.Success() {
		t.Error("envelope should report success")
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotFields["prompt"] != "wave hello" {
		t.Errorf("prompt field = %q", gotFields["prompt"])
	}
	if !strings.HasPrefix(gotFields["img_base64"], "data:image/png;base64,") {
		t.Errorf("binary field must travel as a base64 data URI, got %q", gotFields["img_base64"])
	}
}

func TestSuccessSentinels(t *testing.T) {
	for _, code := range []int{0, 200} {
		body, _ := json.Marshal(map[string]any{"code": code, "message": "ok"})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(body)
		}))
		c := newTestClient(srv.URL, &fakeTokens{})
		env, apiErr := c.Send(context.Background(), http.MethodPost, "/x", Fields{"a": "b"}, false, EncodingMultipart)
		srv.Close()
		if apiErr != nil {
			t.Fatalf("code %d should be success, got %v", code, apiErr)
		}
		if env.Code != code {
			t.Errorf("envelope code = %d, want %d", env.Code, code)
		}
	}
}

func TestAuthExpiredPhraseNotifiesTokenSource(t *testing.T) {
	for _, msg := range []string{"Invalid or expired JWT", "Missing or malformed JWT"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":1,"message":"` + msg + `"}`))
		}))
		tokens := &fakeTokens{token: "tok", valid: true}
		c := newTestClient(srv.URL, tokens)
		_, apiErr := c.Send(context.Background(), http.MethodGet, "/x", nil, true, EncodingNone)
		srv.Close()

		if !apierr.IsAuthExpired(apiErr) {
			t.Fatalf("%q must map to auth-expired, got %v", msg, apiErr)
		}
		if apiErr.Detail != "session is invalid or has expired" {
			t.Errorf("detail = %q", apiErr.Detail)
		}
		if tokens.expired != 1 {
			t.Errorf("MarkExpired called %d times, want 1", tokens.expired)
		}
	}
}

func TestKnownPhrasesMapped(t *testing.T) {
	cases := []struct {
		serverMsg string
		want      string
	}{
		{"Invalid phone number format", "phone number format is invalid"},
		{"user with this phone number already exists", "this phone number is already registered"},
		{"invalid phone or password", "incorrect phone number or password"},
	}
	for _, tc := range cases {
		serverMsg, want := tc.serverMsg, tc.want
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":1,"message":"` + serverMsg + `"}`))
		}))
		tokens := &fakeTokens{}
		c := newTestClient(srv.URL, tokens)
		_, apiErr := c.Send(context.Background(), http.MethodPost, "/x", Fields{"a": "b"}, false, EncodingMultipart)
		srv.Close()

		if apiErr == nil || apiErr.Kind != apierr.KindServerMessage {
			t.Fatalf("%q: expected server-message error, got %v", serverMsg, apiErr)
		}
		if apiErr.Detail != want {
			t.Errorf("%q mapped to %q, want %q", serverMsg, apiErr.Detail, want)
		}
		if tokens.expired != 0 {
			t.Errorf("%q must not raise the expiry signal", serverMsg)
		}
	}
}

func TestUnknownMessagePassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":500,"message":"job not found"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeTokens{})
	_, apiErr := c.Send(context.Background(), http.MethodGet, "/x", nil, false, EncodingNone)
	if apiErr == nil || apiErr.Kind != apierr.KindServerMessage {
		t.Fatalf("expected server-message error, got %v", apiErr)
	}
	if apiErr.Detail != "job not found" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestErrorFieldUsedWhenMessageAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Prompt is required"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeTokens{})
	_, apiErr := c.Send(context.Background(), http.MethodPost, "/x", Fields{"a": "b"}, false, EncodingMultipart)
	if apiErr == nil || apiErr.Detail != "Prompt is required" {
		t.Fatalf("expected bare error field to surface, got %v", apiErr)
	}
}

func TestUnparseableBodies(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>gateway error</html>"))
		}))
		defer srv.Close()

		c := newTestClient(srv.URL, &fakeTokens{})
		_, apiErr := c.Send(context.Background(), http.MethodGet, "/x", nil, false, EncodingNone)
		if apiErr == nil || apiErr.Kind != apierr.KindHTTPStatus {
			t.Fatalf("expected http-status error, got %v", apiErr)
		}
		if apiErr.Status != http.StatusBadGateway {
			t.Errorf("status = %d", apiErr.Status)
		}
	})

	t.Run("2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		c := newTestClient(srv.URL, &fakeTokens{})
		_, apiErr := c.Send(context.Background(), http.MethodGet, "/x", nil, false, EncodingNone)
		if apiErr == nil || apiErr.Kind != apierr.KindParseFailure {
			t.Fatalf("expected parse-failure error, got %v", apiErr)
		}
	})
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(url, &fakeTokens{})
	_, apiErr := c.Send(context.Background(), http.MethodGet, "/x", nil, false, EncodingNone)
	if apiErr == nil || apiErr.Kind != apierr.KindNetwork {
		t.Fatalf("expected network error, got %v", apiErr)
	}
}

func TestInsecureTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	c := New(Options{
		BaseURL:            srv.URL,
		Timeout:            5 * time.Second,
		InsecureSkipVerify: true,
		Tokens:             &fakeTokens{},
		Logger:             zerolog.Nop(),
	})
	if _, apiErr := c.Send(context.Background(), http.MethodGet, "/x", nil, false, EncodingNone); apiErr != nil {
		t.Fatalf("self-signed certificate should be accepted: %v", apiErr)
	}
}

func TestImageDataURI(t *testing.T) {
	uri := ImageDataURI([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("uri = %q", uri)
	}
}
