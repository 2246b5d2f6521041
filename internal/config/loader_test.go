package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("APPENDIX_TEST_KEY", "secret")
	cases := []struct {
		in, want string
	}{
		{"key: ${APPENDIX_TEST_KEY}", "key: secret"},
		{"key: ${APPENDIX_TEST_KEY:fallback}", "key: secret"},
		{"key: ${APPENDIX_TEST_MISSING:fallback}", "key: fallback"},
		{"key: ${APPENDIX_TEST_MISSING:}", "key: "},
		{"key: ${APPENDIX_TEST_MISSING}", "key: ${APPENDIX_TEST_MISSING}"},
	}
	for _, tc := range cases {
		if got := expandEnv(tc.in); got != tc.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadFromMergesEnvFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APPENDIX_TEST_GEMINI_KEY", "k-123")
	writeFile(t, dir, "config.yaml", `
llm:
  default_provider: gemini
  providers:
    gemini:
      type: gemini
      api_key: ${APPENDIX_TEST_GEMINI_KEY}
      model: gemini-3-flash-preview
      temperature: 0.1
`)
	writeFile(t, dir, "config.test.yaml", `
sessions:
  ttl: 10m
`)

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	p, ok := cfg.LLM.Provider("")
	if !ok || p.APIKey != "k-123" || p.Temperature == nil || *p.Temperature != 0.1 {
		t.Fatalf("provider = %+v, ok=%v", p, ok)
	}
	if cfg.Sessions.TTL != 10*time.Minute {
		t.Errorf("sessions.ttl = %v", cfg.Sessions.TTL)
	}
	if cfg.Generation.MaxConcurrent != 4 {
		t.Errorf("generation.max_concurrent default = %d", cfg.Generation.MaxConcurrent)
	}
	if cfg.Extraction.MaxUploadBytes != 20<<20 {
		t.Errorf("extraction.max_upload_bytes default = %d", cfg.Extraction.MaxUploadBytes)
	}
}

func TestLoadFromRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	writeFile(t, dir, "config.yaml", `
llm:
  default_provider: missing
  providers:
    gemini:
      type: gemini
`)
	if _, err := LoadFrom(dir); err == nil {
		t.Fatal("expected error for undefined default provider")
	}
}

func TestLoadFromRejectsUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	writeFile(t, dir, "config.yaml", `
llm:
  default_provider: local
  providers:
    local:
      type: ollama
`)
	if _, err := LoadFrom(dir); err == nil {
		t.Fatal("expected error for unsupported provider type")
	}
}

func TestLoadFromKeepsExplicitZeroTemperature(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	writeFile(t, dir, "config.yaml", `
llm:
  default_provider: gemini
  providers:
    gemini:
      type: gemini
      temperature: 0
    openai:
      type: openai
`)
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if p := cfg.LLM.Providers["gemini"]; p.Temperature == nil || *p.Temperature != 0 {
		t.Fatalf("gemini temperature = %v, want explicit 0", p.Temperature)
	}
	if p := cfg.LLM.Providers["openai"]; p.Temperature != nil {
		t.Fatalf("openai temperature = %v, want unset", *p.Temperature)
	}
}
