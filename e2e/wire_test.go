package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// Raw HTTP checks of the envelope shapes the production service emits.
// The SDK-level tests above only see the decoded form; these pin the
// wire format itself.

func multipartBody(t *testing.T, fields map[string]string) (io.Reader, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close form: %v", err)
	}
	return buf, w.FormDataContentType()
}

func doForm(t *testing.T, app *fiber.App, path, token string, fields map[string]string) map[string]any {
	t.Helper()
	body, contentType := multipartBody(t, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("response is not JSON: %v\nbody: %s", err, raw)
	}
	return out
}

func loginToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	doForm(t, app, "/api/v1/users/register", "", map[string]string{
		"phone": testPhone, "password": testPassword,
	})
	out := doForm(t, app, "/api/v1/users/login", "", map[string]string{
		"phone": testPhone, "password": testPassword,
	})
	data, _ := out["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("login response carries no token: %v", out)
	}
	return token
}

func TestUserEndpointsUseCodeZero(t *testing.T) {
	app := setupApp(t)
	out := doForm(t, app, "/api/v1/users/register", "", map[string]string{
		"phone": testPhone, "password": testPassword,
	})
	if code, _ := out["code"].(float64); code != 0 {
		t.Errorf("register code = %v, want 0", out["code"])
	}
}

func TestVideoEndpointsUseCode200(t *testing.T) {
	app := setupApp(t)
	token := loginToken(t, app)

	out := doForm(t, app, "/api/v1/video/create", token, map[string]string{
		"type": "text_to_video", "prompt": "a cat surfing", "size": "624*624",
	})
	if code, _ := out["code"].(float64); code != 200 {
		t.Errorf("create code = %v, want 200", out["code"])
	}
	data, _ := out["data"].(map[string]any)
	if jobID, _ := data["job_id"].(string); jobID == "" {
		t.Errorf("create response carries no job id: %v", out)
	}
}

func TestCreateValidationUsesBareErrorField(t *testing.T) {
	app := setupApp(t)
	token := loginToken(t, app)

	cases := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{
			"bad type",
			map[string]string{"type": "bogus", "prompt": "p"},
			"Invalid type. Must be 'text_to_video' or 'image_to_video'",
		},
		{
			"missing prompt",
			map[string]string{"type": "text_to_video"},
			"Prompt is required",
		},
		{
			"missing size",
			map[string]string{"type": "text_to_video", "prompt": "p"},
			"Size is required for text_to_video",
		},
		{
			"missing resolution",
			map[string]string{"type": "image_to_video", "prompt": "p"},
			"Resolution is required for image_to_video",
		},
		{
			"missing image",
			map[string]string{"type": "image_to_video", "prompt": "p", "resolution": "480P"},
			"img_base64 is required for image_to_video",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := doForm(t, app, "/api/v1/video/create", token, tc.fields)
			if out["error"] != tc.want {
				t.Errorf("error = %v, want %q", out["error"], tc.want)
			}
			if _, hasMsg := out["message"]; hasMsg {
				t.Errorf("validation rejections use the bare error field, got %v", out)
			}
		})
	}
}

func TestMissingJobAnswersCode500Unknown(t *testing.T) {
	app := setupApp(t)
	token := loginToken(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/video/query/job_nope", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	// HTTP 200 despite the failure; the envelope carries the error.
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if code, _ := out["code"].(float64); code != 500 {
		t.Errorf("code = %v, want 500", out["code"])
	}
	data, _ := out["data"].(map[string]any)
	if data["status"] != "UNKNOWN" {
		t.Errorf("status = %v, want UNKNOWN", data["status"])
	}
}

func TestAuthRejectionWording(t *testing.T) {
	app := setupApp(t)

	out := doForm(t, app, "/api/v1/video/create", "", map[string]string{
		"type": "text_to_video", "prompt": "p", "size": "624*624",
	})
	if out["message"] != "Missing or malformed JWT" {
		t.Errorf("no-token message = %v", out["message"])
	}

	out = doForm(t, app, "/api/v1/video/create", "garbage-token", map[string]string{
		"type": "text_to_video", "prompt": "p", "size": "624*624",
	})
	if out["message"] != "Invalid or expired JWT" {
		t.Errorf("bad-token message = %v", out["message"])
	}
}
