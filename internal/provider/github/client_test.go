package github_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/provider"
	"github.com/caesium-cloud/cimon/internal/provider/github"
)

var cred = &provider.Credential{Provider: models.ProviderGitHub, AccessToken: "ghp_test"}

func TestListRunsSendsAuthAndPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/hello/actions/runs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_test" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q", got)
		}
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("per_page") != "10" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"total_count":1,"workflow_runs":[{"id":7,"status":"completed","conclusion":"success","workflow_id":3,"run_attempt":2}]}`))
	}))
	defer srv.Close()

	c := github.New(srv.URL, nil)
	page, err := c.ListRuns(context.Background(), cred, "octo", "hello", github.RunQuery{Page: 2, PerPage: 10})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(page.Runs) != 1 || page.Runs[0].ID != 7 || *page.Runs[0].Conclusion != "success" {
		t.Fatalf("unexpected runs %+v", page.Runs)
	}
}

func TestDispatchWorkflowBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/octo/hello/actions/workflows/3/dispatches" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body github.DispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Ref != "main" || body.Inputs["env"] != "staging" {
			t.Errorf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := github.New(srv.URL, nil)
	err := c.DispatchWorkflow(context.Background(), cred, "octo", "hello", 3, github.DispatchRequest{
		Ref:    "main",
		Inputs: map[string]any{"env": "staging"},
	})
	if err != nil {
		t.Fatalf("DispatchWorkflow: %v", err)
	}
}

func TestRerunAndCancelPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := github.New(srv.URL, nil)
	if err := c.RerunRun(context.Background(), cred, "octo", "hello", 9); err != nil {
		t.Fatalf("RerunRun: %v", err)
	}
	if err := c.CancelRun(context.Background(), cred, "octo", "hello", 9); err != nil {
		t.Fatalf("CancelRun: %v", err)
	}

	want := []string{
		"POST /repos/octo/hello/actions/runs/9/rerun",
		"POST /repos/octo/hello/actions/runs/9/cancel",
	}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}

func TestErrorMapping(t *testing.T) {
	for status, check := range map[int]func(error) bool{
		http.StatusUnauthorized: func(err error) bool { _, ok := err.(*provider.AuthError); return ok },
		http.StatusNotFound:     func(err error) bool { _, ok := err.(*provider.NotFoundError); return ok },
		http.StatusTooManyRequests: func(err error) bool {
			_, ok := err.(*provider.RateLimitError)
			return ok
		},
		http.StatusInternalServerError: func(err error) bool {
			pe, ok := err.(*provider.ProviderError)
			return ok && pe.Status == 500 && pe.Body == "boom"
		},
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("boom"))
		}))

		_, err := github.New(srv.URL, nil).CurrentUser(context.Background(), cred)
		srv.Close()
		if err == nil || !check(err) {
			t.Errorf("status %d: unexpected error %T %v", status, err, err)
		}
	}
}

func TestRunLogsFlattensArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range []struct{ name, body string }{
		{"2_test.txt", "ok\n"},
		{"1_build.txt", "compiling"},
	} {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write([]byte(f.body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/hello/actions/runs/5/logs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	logs, err := github.New(srv.URL, nil).RunLogs(context.Background(), cred, "octo", "hello", 5)
	if err != nil {
		t.Fatalf("RunLogs: %v", err)
	}
	want := "==> 1_build.txt <==\ncompiling\n==> 2_test.txt <==\nok\n"
	if logs != want {
		t.Fatalf("logs = %q, want %q", logs, want)
	}
}
