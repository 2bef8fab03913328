package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	cmd := Prepare()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--base-url", srv.URL, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGetPrintsIndentedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lifeform/" || r.URL.Query().Get("kind") != "fungus" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if got := r.Header.Get("X-Trace"); got != "abc" {
			t.Errorf("X-Trace = %q", got)
		}
		_, _ = w.Write([]byte(`{"name":"mycelium"}`))
	}))
	defer srv.Close()

	out, err := run(t, srv, "-H", "X-Trace: abc", "get", "/lifeform/", "-q", "kind=fungus")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != "{\n  \"name\": \"mycelium\"\n}\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPostSendsInlineJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{"echo": body["x"]})
	}))
	defer srv.Close()

	out, err := run(t, srv, "post", "/echo/", `{"x":1}`)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !strings.Contains(out, `"echo": 1`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPostReadsDataFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{"y":"z"}` {
			t.Errorf("body = %s", raw)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "body.json")
	if err := os.WriteFile(file, []byte(`{"y": "z"}`), 0o644); err != nil {
		t.Fatalf("write body: %v", err)
	}
	if _, err := run(t, srv, "post", "/x/", "--data-file", file); err != nil {
		t.Fatalf("post: %v", err)
	}
}

func TestRequestErrorSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad tank id"}`))
	}))
	defer srv.Close()

	_, err := run(t, srv, "request", "delete", "/tank/9/")
	if err == nil || err.Error() != "bad tank id" {
		t.Fatalf("expected server message, got %v", err)
	}
}

func TestReadingsWind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wind/" || r.URL.Query().Get("num_records") != "3" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = w.Write([]byte(`[{"timestamp":"2025-05-01T10:00:00","status":1}]`))
	}))
	defer srv.Close()

	out, err := run(t, srv, "readings", "wind", "-n", "3")
	if err != nil {
		t.Fatalf("readings: %v", err)
	}
	if !strings.Contains(out, `"status": 1`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCameraStartSendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/camera/control/2/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("action") != "start" {
			t.Errorf("action = %q (%v)", r.PostForm.Get("action"), err)
		}
		_, _ = w.Write([]byte(`{"status":"started"}`))
	}))
	defer srv.Close()

	out, err := run(t, srv, "camera", "start", "2")
	if err != nil {
		t.Fatalf("camera start: %v", err)
	}
	if !strings.Contains(out, `"started"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMapWritesFile(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "habitat.png")
	if _, err := run(t, srv, "map", "-o", dest); err != nil {
		t.Fatalf("map: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil || !bytes.Equal(got, png) {
		t.Fatalf("map file mismatch: %v", err)
	}
}

func TestParseHeadersRejectsMalformed(t *testing.T) {
	if _, err := parseHeaders([]string{"no-colon"}); err == nil {
		t.Fatalf("expected error for header without colon")
	}
	h, err := parseHeaders([]string{"Authorization: Bearer x:y"})
	if err != nil || h["Authorization"] != "Bearer x:y" {
		t.Fatalf("unexpected parse result %v (%v)", h, err)
	}
}

func TestInvalidCameraID(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	if _, err := run(t, srv, "camera", "status", "abc"); err == nil {
		t.Fatalf("expected invalid id error")
	}
}

func TestPostWithoutBodySendsEmptyObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if string(raw) != `{}` {
			t.Errorf("body = %q", raw)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := run(t, srv, "post", "/x/"); err != nil {
		t.Fatalf("post: %v", err)
	}
}

func TestRequestRejectsDataOnGet(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := run(t, srv, "request", "get", "/x/", "-d", `{"a":1}`)
	if err == nil || !strings.Contains(err.Error(), "GET") {
		t.Fatalf("expected --data rejection, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("request should not reach the server")
	}
}

func TestMapForwardsHeaderFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer t" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "habitat.png")
	if _, err := run(t, srv, "-H", "Authorization: Bearer t", "map", "-o", dest); err != nil {
		t.Fatalf("map: %v", err)
	}
}
