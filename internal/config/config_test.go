package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENROUTER_API_KEY", "OPENROUTER_BASE_URL", "GEMINI_API_KEY", "GOOGLE_API_KEY", "GEMINI_BASE_URL",
		"IMITGAME_NUM_TURNS", "IMITGAME_VOTE_MODE", "IMITGAME_STORAGE_PATH", "IMITGAME_LOG_LEVEL",
		"IMITGAME_LOG_FORMAT", "IMITGAME_HTTP_ADDR", "IMITGAME_SHUFFLE", "REQUEST_TIMEOUT", "LLM_MAX_RETRIES",
	} {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "imitgame.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.NumTurns != 3 || cfg.VoteMode != "peer" || cfg.LabelPrefix != "Actor" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxTokens != 512 || cfg.LLMMaxRetries != 2 || cfg.RequestTimeout != 180*time.Second {
		t.Fatalf("unexpected transport defaults: %+v", cfg)
	}
	if !filepath.IsAbs(cfg.StoragePath) {
		t.Fatalf("storage path should be absolute, got %q", cfg.StoragePath)
	}
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
num_turns: 0
vote_mode: Judge
judge: gemini:prefill:gemini-2.5-pro
exclude_sentinels: true
exclude_human_target: true
shuffle_order: true
request_timeout: 45s
llm_max_retries: 0
presets:
  duo: ["openai/gpt-5.1-chat", " ", "human", "human"]
default_preset: duo
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.NumTurns != 0 {
		t.Fatalf("expected explicit num_turns=0, got %d", cfg.NumTurns)
	}
	if cfg.VoteMode != "judge" || cfg.Judge != "gemini:prefill:gemini-2.5-pro" {
		t.Fatalf("unexpected voting config: %+v", cfg)
	}
	if !cfg.ExcludeSentinels || !cfg.ShuffleOrder || cfg.ExcludeSelfVotes || !cfg.ExcludeHumanTarget {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if cfg.RequestTimeout != 45*time.Second || cfg.LLMMaxRetries != 0 {
		t.Fatalf("unexpected transport config: %+v", cfg)
	}
	got := cfg.Presets["duo"]
	if len(got) != 2 || got[0] != "openai/gpt-5.1-chat" || got[1] != "human" {
		t.Fatalf("unexpected preset: %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.NumTurns != 3 {
		t.Fatalf("expected default num_turns, got %d", cfg.NumTurns)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMITGAME_NUM_TURNS", "5")
	t.Setenv("IMITGAME_SHUFFLE", "yes")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("LLM_MAX_RETRIES", "10")
	path := writeYAML(t, "num_turns: 2\nshuffle_order: false\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.NumTurns != 5 || !cfg.ShuffleOrder {
		t.Fatalf("env should win over yaml: %+v", cfg)
	}
	if cfg.GeminiAPIKey != "google-key" {
		t.Fatalf("GOOGLE_API_KEY should take precedence, got %q", cfg.GeminiAPIKey)
	}
	if cfg.LLMMaxRetries != 6 {
		t.Fatalf("expected retries clamped to 6, got %d", cfg.LLMMaxRetries)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"vote mode":   "vote_mode: jury\n",
		"turns":       "num_turns: -1\n",
		"timeout":     "request_timeout: soon\n",
		"log format":  "log_format: xml\n",
		"empty set":   "presets:\n  none: []\n",
	}
	for name, content := range cases {
		if _, err := Load(writeYAML(t, content)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("OPENROUTER_API_KEY=from-file\nIMITGAME_HTTP_ADDR=:9999\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	// Empty values count as set for godotenv, so drop the cleared key first.
	os.Unsetenv("IMITGAME_HTTP_ADDR")
	t.Cleanup(func() { os.Unsetenv("IMITGAME_HTTP_ADDR") })
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("OPENROUTER_API_KEY"); got != "from-env" {
		t.Fatalf("existing variable overwritten: %q", got)
	}
	if got := os.Getenv("IMITGAME_HTTP_ADDR"); got != ":9999" {
		t.Fatalf("expected value from .env, got %q", got)
	}
	if err := loadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}
