package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mindscribe/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Available {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Available {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Available {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckStagingSpace(t *testing.T) {
	result := CheckStagingSpace(t.TempDir())
	if result.Detail == "" {
		t.Fatal("expected free-space detail")
	}
}

func TestCheckBaseline_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckBaseline(context.Background(), config.Baseline{URL: srv.URL})
	if !result.Available {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckBaseline_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := CheckBaseline(context.Background(), config.Baseline{URL: srv.URL})
	if result.Available {
		t.Fatal("expected failure for unhealthy service")
	}
}

func TestCheckBaseline_MissingURL(t *testing.T) {
	result := CheckBaseline(context.Background(), config.Baseline{})
	if result.Available {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckBinariesMissing(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "Nonexistent", Command: "definitely-not-a-binary-xyz"}})
	if len(results) != 1 || results[0].Available {
		t.Fatalf("expected unavailable result, got %+v", results)
	}
}

func TestRunAllSkipsBaselineWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.LibraryDir = t.TempDir()
	cfg.Baseline.URL = ""
	results := RunAll(context.Background(), &cfg)
	for _, result := range results {
		if result.Name == "Baseline transcription service" {
			t.Fatal("expected baseline check to be skipped without a URL")
		}
	}
}
