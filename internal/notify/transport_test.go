package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/google/uuid"
)

func testNotification() Notification {
	return Notification{
		ID:         uuid.MustParse("d46e465b-d358-4d32-83d4-df660ff614dd"),
		Kind:       KindFailed,
		Provider:   models.ProviderGitHub,
		PipelineID: "github_42",
		Pipeline:   "CI",
		BuildID:    "github_1000",
		Status:     models.BuildStatusFailure,
		Title:      "CI failed",
		Message:    "Build #1000 on main",
		Time:       time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestHTTPTransport(t *testing.T) {
	var receivedBody []byte
	var receivedHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeader = r.Header.Get("X-Token")
		body, _ := io.ReadAll(r.Body)
		receivedBody = body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	transport := NewHTTPTransport(HTTPTransportConfig{
		URL:     server.URL,
		Headers: map[string]string{"X-Token": "secret"},
	})

	if err := transport.Emit(context.Background(), testNotification()); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if receivedHeader != "secret" {
		t.Errorf("X-Token = %q, want secret", receivedHeader)
	}

	var parsed Notification
	if err := json.Unmarshal(receivedBody, &parsed); err != nil {
		t.Fatalf("unmarshal received body: %v", err)
	}
	if parsed.Kind != KindFailed || parsed.BuildID != "github_1000" {
		t.Errorf("unexpected notification %+v", parsed)
	}
}

func TestHTTPTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewHTTPTransport(HTTPTransportConfig{URL: server.URL}).Emit(context.Background(), testNotification())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("error = %v, want to contain 502", err)
	}
}

func TestFileTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.ndjson")

	transport, err := NewFileTransport(path)
	if err != nil {
		t.Fatalf("create file transport: %v", err)
	}

	first := testNotification()
	second := testNotification()
	second.Kind = KindSucceeded

	for _, n := range []Notification{first, second} {
		if err := transport.Emit(context.Background(), n); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	if err := transport.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var parsed Notification
	if err := json.Unmarshal([]byte(lines[1]), &parsed); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if parsed.Kind != KindSucceeded {
		t.Errorf("line 2 kind = %v, want succeeded", parsed.Kind)
	}
}

type recordingTransport struct {
	notifications chan Notification
	err           error
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{notifications: make(chan Notification, 10)}
}

func (t *recordingTransport) Emit(_ context.Context, n Notification) error {
	t.notifications <- n
	return t.err
}

func (t *recordingTransport) Close() error { return nil }

func TestCompositeTransportAggregatesErrors(t *testing.T) {
	t1 := newRecordingTransport()
	t1.err = errors.New("t1 failed")
	t2 := newRecordingTransport()
	t2.err = errors.New("t2 failed")

	err := NewCompositeTransport(t1, t2).Emit(context.Background(), testNotification())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "t1 failed") || !strings.Contains(err.Error(), "t2 failed") {
		t.Errorf("error should contain both failures: %v", err)
	}
	if len(t1.notifications) != 1 || len(t2.notifications) != 1 {
		t.Errorf("every transport should receive the notification")
	}
}

func TestBuildTransport(t *testing.T) {
	if _, err := BuildTransport(Config{Transport: "http"}); err == nil || !strings.Contains(err.Error(), "CIMON_NOTIFYWEBHOOKURL") {
		t.Errorf("error = %v, want mention of CIMON_NOTIFYWEBHOOKURL", err)
	}
	if _, err := BuildTransport(Config{Transport: "file"}); err == nil {
		t.Error("expected error for missing file path")
	}
	if _, err := BuildTransport(Config{Transport: "pager"}); err == nil {
		t.Error("expected error for unsupported transport")
	}

	tr, name, err := Build(
		Config{Transport: "console"},
		Config{Transport: "file", FilePath: filepath.Join(t.TempDir(), "n.ndjson")},
		Config{Transport: "HTTP", URL: "http://localhost:9/hook", Headers: "X-A=1, X-B = 2"},
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer tr.Close()
	if name != "console+file+http" {
		t.Errorf("name = %q", name)
	}
}

func TestParseHeaders(t *testing.T) {
	headers := parseHeaders("Authorization=Bearer x, X-Empty, X-Team = ci")
	if len(headers) != 2 || headers["Authorization"] != "Bearer x" || headers["X-Team"] != "ci" {
		t.Errorf("unexpected headers %v", headers)
	}
}
