package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_SECRET", "env-secret")
	t.Setenv("SILICONFLOW_API_KEY", "k1, k2")

	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: sqlite
reddit:
  client_id: abc
  subreddits: [laptops, monitors]
  max_posts: 50
intent:
  min_intent: HIGH
  min_confidence: 0.75
  pacing_ms: 250
messaging:
  transport: telegram
  cooldown_hours: 12
`)

	cfg := LoadFrom(path)

	if cfg.Server.Port != 9090 || cfg.Server.Addr != ":9090" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "data/reddit_intent.db" {
		t.Errorf("db = %s %s", cfg.DB.Driver, cfg.DB.Path)
	}
	if cfg.Reddit.ClientID != "abc" || cfg.Reddit.ClientSecret != "env-secret" {
		t.Errorf("reddit credentials = %q %q", cfg.Reddit.ClientID, cfg.Reddit.ClientSecret)
	}
	if len(cfg.Reddit.Subreddits) != 2 || cfg.Reddit.MaxPosts != 50 {
		t.Errorf("reddit = %+v", cfg.Reddit)
	}
	if len(cfg.Reddit.Keywords) != len(defaultKeywords) {
		t.Errorf("keywords should default, got %v", cfg.Reddit.Keywords)
	}
	if cfg.Intent.MinIntent != "HIGH" || cfg.Intent.MinConfidence != 0.75 || cfg.Intent.PacingMs != 250 {
		t.Errorf("intent = %+v", cfg.Intent)
	}
	if !cfg.Intent.IncludeResources {
		t.Error("include_resources should default to true")
	}
	if len(cfg.LLM.APIKeys) != 2 || cfg.LLM.APIKeys[1] != "k2" || cfg.LLM.Provider != "siliconflow" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Messaging.Transport != "telegram" || cfg.Messaging.CooldownHours != 12 {
		t.Errorf("messaging = %+v", cfg.Messaging)
	}
	if cfg.Scheduler.IntervalMinutes != 30 || cfg.Scheduler.CheckIntervalSec != 60 {
		t.Errorf("scheduler = %+v", cfg.Scheduler)
	}
}

func TestLoadFromExplicitFalse(t *testing.T) {
	path := writeConfig(t, "intent:\n  include_resources: false\n")
	if cfg := LoadFrom(path); cfg.Intent.IncludeResources {
		t.Error("explicit include_resources: false was overridden")
	}
}

func TestLoadFromMissingFileUsesEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g1")
	t.Setenv("DM_COOLDOWN_HOURS", "48")

	cfg := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))

	if cfg.Server.Port != 7070 || cfg.Messaging.CooldownHours != 48 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.LLM.APIKeys) != 1 || cfg.LLM.APIKeys[0] != "g1" {
		t.Errorf("api keys = %v", cfg.LLM.APIKeys)
	}
	if cfg.Intent.MinIntent != "MEDIUM" || cfg.Intent.MinConfidence != 0.6 || !cfg.Intent.IncludeResources {
		t.Errorf("intent defaults = %+v", cfg.Intent)
	}
	if cfg.Reddit.APIURL != "https://oauth.reddit.com" || cfg.Reddit.RateLimitSec != 2 {
		t.Errorf("reddit defaults = %+v", cfg.Reddit)
	}
}

func TestMySQLDSN(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
  host: db.local
  port: 3306
  username: u
  password: p
  database: intents
  parse_time: true
`)
	cfg := LoadFrom(path)
	want := "u:p@tcp(db.local:3306)/intents?charset=utf8mb4&parseTime=true"
	if cfg.DB.DSN != want {
		t.Errorf("DSN = %q, want %q", cfg.DB.DSN, want)
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	got := splitList(" a, ,b ,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitList = %v", got)
	}
}
