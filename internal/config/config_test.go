package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gridwar/server/internal/factory"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[logging]\nlevel = \"debug\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Match.Rows != 30 || len(cfg.Match.Players) != 2 {
		t.Errorf("match defaults lost: %+v", cfg.Match)
	}
	if cfg.Journal.FlushInterval != time.Second {
		t.Errorf("flush interval = %v", cfg.Journal.FlushInterval)
	}
	if cfg.Server.StartTime == 0 {
		t.Errorf("start time not set")
	}
}

func TestLoadMatchPlayers(t *testing.T) {
	body := `
[match]
rows = 12
cols = 12

[[match.players]]
name = "alice"
user_id = "u-1"
kind = "human"
corner = "bottom_left"

[[match.players]]
name = "cpu"
kind = "ai"
corner = "top_right"

[journal]
flush_interval = "250ms"
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	spec, err := cfg.Match.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.Rows != 12 || len(spec.Players) != 2 {
		t.Fatalf("spec = %+v", spec)
	}
	if spec.Players[0].Corner != factory.BottomLeft || spec.Players[1].Corner != factory.TopRight {
		t.Errorf("corners = %s, %s", spec.Players[0].Corner, spec.Players[1].Corner)
	}
	if spec.Players[1].Kind != factory.KindAI || spec.Players[1].UserID != "" {
		t.Errorf("ai player = %+v", spec.Players[1])
	}
	if cfg.Journal.FlushInterval != 250*time.Millisecond {
		t.Errorf("flush interval = %v", cfg.Journal.FlushInterval)
	}
}

func TestLoadRejectsBadMatch(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown corner", "[[match.players]]\nname = \"a\"\nkind = \"ai\"\ncorner = \"centre\"\n", "unknown corner"},
		{"single player", "[[match.players]]\nname = \"a\"\nkind = \"ai\"\ncorner = \"top_left\"\n", "2 to 4 players"},
		{"shared user id", "[[match.players]]\nname = \"a\"\nuser_id = \"u\"\nkind = \"human\"\ncorner = \"top_left\"\n" +
			"[[match.players]]\nname = \"b\"\nuser_id = \"u\"\nkind = \"human\"\ncorner = \"bottom_right\"\n", "share user id"},
		{"bad toml", "[match\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Errorf("Load of missing file succeeded")
	}
}
