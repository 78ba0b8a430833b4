package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dungeongen.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Generation != dungeon.DefaultParams() {
		t.Errorf("expected default generation params, got %+v", cfg.Generation)
	}
	if cfg.Storage.Enabled {
		t.Error("expected storage to be disabled by default")
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.Storage.Driver)
	}
	if len(cfg.Server.WebSocket.AllowedOrigins) != 0 {
		t.Errorf("expected empty allowed origins by default, got %v", cfg.Server.WebSocket.AllowedOrigins)
	}
	if cfg.Server.WebSocket.MaxMessageSize != 4096 {
		t.Errorf("expected max message size 4096, got %d", cfg.Server.WebSocket.MaxMessageSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for missing file, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config for missing file, got nil")
	}
	if cfg.Generation.Seed != 1234 {
		t.Errorf("expected default seed, got %d", cfg.Generation.Seed)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
generation:
  map_width: 64
  map_height: 48
  min_partition_size: 5
  seed: 99
  place_goal_far_from_spawn: false
storage:
  enabled: true
  driver: postgres
  postgres:
    host: db.internal
    port: 5433
    conn_max_lifetime: 2m
server:
  listen: ":8080"
  websocket:
    allowed_origins:
      - "https://example.com"
      - "http://localhost:3000"
    max_message_size: 8192
logging:
  level: DEBUG
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := cfg.Generation
	if g.MapWidth != 64 || g.MapHeight != 48 || g.MinPartitionSize != 5 || g.Seed != 99 {
		t.Errorf("generation not loaded: %+v", g)
	}
	if g.PlaceGoalFarFromSpawn {
		t.Error("expected place_goal_far_from_spawn false")
	}
	// Unset keys keep their defaults
	if g.MaxRoomSize != 10 || g.LootBasePerRoom != 1.5 {
		t.Errorf("expected defaults for unset keys, got max_room_size=%d loot_base=%g", g.MaxRoomSize, g.LootBasePerRoom)
	}

	if !cfg.Storage.Enabled || cfg.Storage.Driver != "postgres" {
		t.Errorf("storage not loaded: %+v", cfg.Storage)
	}
	if cfg.Storage.Postgres.Host != "db.internal" || cfg.Storage.Postgres.Port != 5433 {
		t.Errorf("postgres not loaded: %+v", cfg.Storage.Postgres)
	}
	if cfg.Storage.Postgres.ConnMaxLifetime != 2*time.Minute {
		t.Errorf("expected 2m lifetime, got %v", cfg.Storage.Postgres.ConnMaxLifetime)
	}
	if cfg.Storage.Postgres.SSLMode != "disable" {
		t.Errorf("expected default sslmode, got %q", cfg.Storage.Postgres.SSLMode)
	}

	if cfg.Server.Listen != ":8080" {
		t.Errorf("expected listen :8080, got %q", cfg.Server.Listen)
	}
	if len(cfg.Server.WebSocket.AllowedOrigins) != 2 {
		t.Errorf("expected 2 allowed origins, got %d", len(cfg.Server.WebSocket.AllowedOrigins))
	}
	if cfg.Server.WebSocket.MaxMessageSize != 8192 {
		t.Errorf("expected max message size 8192, got %d", cfg.Server.WebSocket.MaxMessageSize)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "generation: [not, a, map")

	cfg, err := LoadConfig(path)
	if err == nil {
		t.Error("expected parse error")
	}
	if cfg == nil || cfg.Generation.Seed != 1234 {
		t.Error("expected defaults on parse error")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DUNGEON_SEED", "4321")
	t.Setenv("DUNGEON_RANDOM_SEED", "true")
	t.Setenv("DUNGEON_DB_DRIVER", "SQLite")
	t.Setenv("DUNGEON_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("DUNGEON_LISTEN", "127.0.0.1:9000")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Generation.Seed != 4321 || !cfg.Generation.RandomSeed {
		t.Errorf("seed overrides not applied: %+v", cfg.Generation)
	}
	if !cfg.Storage.Enabled || cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLitePath != "/tmp/x.db" {
		t.Errorf("storage overrides not applied: %+v", cfg.Storage)
	}
	if cfg.Server.Listen != "127.0.0.1:9000" {
		t.Errorf("listen override not applied: %q", cfg.Server.Listen)
	}
}

func TestLoadConfig_BadSeedEnv(t *testing.T) {
	t.Setenv("DUNGEON_SEED", "twelve")

	if _, err := LoadConfig(""); err == nil {
		t.Error("expected error for non-numeric DUNGEON_SEED")
	}
}

func TestLoadConfig_NonFiniteLoot(t *testing.T) {
	for _, value := range []string{".nan", ".inf", "-.inf"} {
		path := writeConfig(t, "generation:\n  loot_small_room_multiplier: "+value+"\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("%s: unexpected load error: %v", value, err)
		}
		if err := cfg.Validate(); !errors.Is(err, dungeon.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", value, err)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generation.MinPartitionSize = 0
	if err := cfg.Validate(); !errors.Is(err, dungeon.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Storage.Enabled = true
	cfg.Storage.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported driver")
	}

	// Driver is ignored while storage is off
	cfg.Storage.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsOriginAllowed_EmptyList_SameOrigin(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{},
	}

	// Same origin (no Origin header)
	if !cfg.IsOriginAllowed("", "localhost:4000") {
		t.Error("expected empty origin to be allowed (same-origin)")
	}

	// Same origin (matching host)
	if !cfg.IsOriginAllowed("http://localhost:4000", "localhost:4000") {
		t.Error("expected matching origin to be allowed (same-origin)")
	}

	// Different origin should be rejected
	if cfg.IsOriginAllowed("http://evil.com", "localhost:4000") {
		t.Error("expected different origin to be rejected (same-origin policy)")
	}
}

func TestIsOriginAllowed_Wildcard(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{"*"},
	}

	if !cfg.IsOriginAllowed("http://anything.com", "localhost:4000") {
		t.Error("expected wildcard to allow any origin")
	}
	if !cfg.IsOriginAllowed("", "localhost:4000") {
		t.Error("expected wildcard to allow empty origin")
	}
}

func TestIsOriginAllowed_ExactMatch(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{
			"https://example.com",
			"http://localhost:3000",
		},
	}

	if !cfg.IsOriginAllowed("https://example.com", "localhost:4000") {
		t.Error("expected exact match to be allowed")
	}
	if !cfg.IsOriginAllowed("http://localhost:3000", "localhost:4000") {
		t.Error("expected exact match to be allowed")
	}
	if cfg.IsOriginAllowed("http://evil.com", "localhost:4000") {
		t.Error("expected non-matching origin to be rejected")
	}
	// Partial match should not work
	if cfg.IsOriginAllowed("https://example.com:8080", "localhost:4000") {
		t.Error("expected partial match to be rejected")
	}
}

func TestIsSameOrigin(t *testing.T) {
	tests := []struct {
		origin      string
		requestHost string
		expected    bool
	}{
		{"", "localhost:4000", true},                       // No origin header
		{"http://localhost:4000", "localhost:4000", true},  // HTTP match
		{"https://localhost:4000", "localhost:4000", true}, // HTTPS match
		{"http://localhost:4000/", "localhost:4000", true}, // Trailing slash
		{"http://example.com", "localhost:4000", false},    // Different host
		{"http://localhost:3000", "localhost:4000", false}, // Different port
		{"ws://localhost:4000", "localhost:4000", true},    // WebSocket scheme
	}

	for _, tt := range tests {
		result := isSameOrigin(tt.origin, tt.requestHost)
		if result != tt.expected {
			t.Errorf("isSameOrigin(%q, %q) = %v, want %v",
				tt.origin, tt.requestHost, result, tt.expected)
		}
	}
}
