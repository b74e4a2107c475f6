package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hession/slotmate/internal/config"
)

func TestLogConfigInfo(t *testing.T) {
	// Test with full API token (> 8 chars)
	cfg := &config.Config{
		Plasmic: config.PlasmicConfig{
			ProjectID:      "proj123",
			APIToken:       "test-api-token-12345",
			BaseURL:        "https://codegen.plasmic.app/api/v1/loader/html",
			TimeoutSeconds: 30,
		},
	}

	// Should not panic
	logConfigInfo(cfg)
}

func TestLogConfigInfo_ShortAPIToken(t *testing.T) {
	cfg := &config.Config{
		Plasmic: config.PlasmicConfig{
			ProjectID: "proj123",
			APIToken:  "short",
			BaseURL:   "https://codegen.plasmic.app/api/v1/loader/html",
		},
	}

	// Should not panic
	logConfigInfo(cfg)
}

func TestLogConfigInfo_EmptyAPIToken(t *testing.T) {
	cfg := &config.Config{}

	// Should not panic
	logConfigInfo(cfg)
}

func TestVersion(t *testing.T) {
	if version != "0.1.0" {
		t.Errorf("Expected version '0.1.0', got '%s'", version)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if got := out.String(); got != "slotmate v0.1.0\n" {
		t.Errorf("unexpected output %q", got)
	}
}

// setEnv points the command at a fresh config dir and the given endpoint
func setEnv(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvProjectID, "proj123")
	t.Setenv(config.EnvAPIToken, "secret")
	t.Setenv(config.EnvBaseURL, baseURL)
	t.Setenv(config.EnvLogLevel, "debug")
	return filepath.Join(dir, "config")
}

func TestReplaceCommand(t *testing.T) {
	var gotPath, gotToken, gotHydrate string
	codegen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("x-plasmic-api-project-tokens")
		gotHydrate = r.URL.Query().Get("hydrate")
		_, _ = w.Write([]byte(`{"html":"<div>ok</div>"}`))
	}))
	defer codegen.Close()

	configDir := setEnv(t, codegen.URL)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config-dir", configDir, "replace", "Banner", "hero", "Hi", "--no-hydrate", "--json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if gotPath != "/proj123/Banner" {
		t.Errorf("path = %q", gotPath)
	}
	if gotToken != "proj123:secret" {
		t.Errorf("token header = %q", gotToken)
	}
	if gotHydrate != "" {
		t.Errorf("hydrate should be omitted, got %q", gotHydrate)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{
		`{"type":"component","content":"Banner"}`,
		`{"type":"slot","content":"hero"}`,
		`{"type":"html","content":"<div>ok</div>"}`,
		`{"message":"Replaced slot \"hero\" in component \"Banner\".","html":"<div>ok</div>"}`,
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %s, want %s", i, lines[i], want[i])
		}
	}
}

func TestReplaceCommand_FailureExitCode(t *testing.T) {
	codegen := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}))
	defer codegen.Close()

	configDir := setEnv(t, codegen.URL)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config-dir", configDir, "replace", "Banner", "hero", "Hi"})

	err := cmd.Execute()
	var ee exitError
	if !errors.As(err, &ee) || ee.code != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(out.String(), "Plasmic API error: 404 not found") {
		t.Errorf("missing error output:\n%s", out.String())
	}
}

func TestReplaceCommand_MissingCredentials(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvProjectID, "proj123")
	t.Setenv(config.EnvAPIToken, "")
	t.Setenv(config.EnvBaseURL, "https://example.com")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config-dir", filepath.Join(dir, "config"), "replace", "Banner", "hero", "Hi"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), config.EnvAPIToken) {
		t.Fatalf("expected error naming %s, got %v", config.EnvAPIToken, err)
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, "config")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config-dir", configDir, "config", "init"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(configDir, "config.yaml")); err != nil {
		t.Fatalf("config.yaml not written: %v", err)
	}

	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config-dir", configDir, "config", "init"})
	if err := cmd.Execute(); err == nil {
		t.Error("second init should refuse to overwrite")
	}
}
