package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/1broseidon/snaptile/internal/config"
	"github.com/1broseidon/snaptile/internal/geom"
)

func TestParseRects(t *testing.T) {
	tests := []struct {
		in      string
		want    []geom.Rect
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "0,0,500,800", want: []geom.Rect{{Width: 500, Height: 800}}},
		{in: " 0, 0, 500, 800 ; 500,0,500,400;", want: []geom.Rect{
			{Width: 500, Height: 800},
			{X: 500, Width: 500, Height: 400},
		}},
		{in: "0,0,500", wantErr: true},
		{in: "0,0,a,800", wantErr: true},
		{in: "0,0,0,800", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseRects(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseRects(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRects(%q): %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseRects(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlanFreeSpace(t *testing.T) {
	cfg := config.DefaultConfig()
	work := geom.Rect{Width: 1000, Height: 800}

	report := planFreeSpace(cfg, work, []geom.Rect{{Width: 500, Height: 800}})
	want := geom.Rect{X: 500, Width: 500, Height: 800}
	if report.Free == nil || *report.Free != want {
		t.Fatalf("free = %v, want %v", report.Free, want)
	}
	if !reflect.DeepEqual(report.Regions, []geom.Rect{want}) {
		t.Fatalf("regions = %v", report.Regions)
	}

	// Two separate holes are ambiguous.
	report = planFreeSpace(cfg, work, []geom.Rect{{X: 300, Width: 400, Height: 800}})
	if report.Free != nil {
		t.Fatalf("free = %v, want none", *report.Free)
	}
	if len(report.Regions) != 2 {
		t.Fatalf("regions = %v, want 2", report.Regions)
	}
}

func stubEnv(t *testing.T, env map[string]string) {
	t.Helper()
	prev := lookupEnvFn
	lookupEnvFn = func(key string) string { return env[key] }
	t.Cleanup(func() { lookupEnvFn = prev })
}

func stubSockets(t *testing.T, names ...string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	prev := readDirFn
	readDirFn = func(string) ([]os.DirEntry, error) { return os.ReadDir(dir) }
	t.Cleanup(func() { readDirFn = prev })
}

func TestX11Env(t *testing.T) {
	home := t.TempDir()
	xauth := filepath.Join(home, ".Xauthority")
	if err := os.WriteFile(xauth, nil, 0o600); err != nil {
		t.Fatalf("write Xauthority: %v", err)
	}

	t.Run("environment wins", func(t *testing.T) {
		stubEnv(t, map[string]string{"DISPLAY": ":1", "XAUTHORITY": "/run/auth"})
		cfg := config.DefaultConfig()
		cfg.Display = ":5"
		display, auth, err := x11Env(cfg)
		if err != nil || display != ":1" || auth != "/run/auth" {
			t.Fatalf("x11Env = %q, %q, %v", display, auth, err)
		}
	})

	t.Run("config fills the gaps", func(t *testing.T) {
		stubEnv(t, map[string]string{"HOME": home})
		cfg := config.DefaultConfig()
		cfg.Display = ":5"
		display, auth, err := x11Env(cfg)
		if err != nil || display != ":5" || auth != xauth {
			t.Fatalf("x11Env = %q, %q, %v", display, auth, err)
		}
	})

	t.Run("highest socket", func(t *testing.T) {
		stubEnv(t, map[string]string{})
		stubSockets(t, "X0", "X2", "Xfoo", "other")
		display, _, err := x11Env(config.DefaultConfig())
		if err != nil || display != ":2" {
			t.Fatalf("x11Env display = %q, %v; want :2", display, err)
		}
	})

	t.Run("no display", func(t *testing.T) {
		stubEnv(t, map[string]string{})
		prev := readDirFn
		readDirFn = func(string) ([]os.DirEntry, error) { return nil, errors.New("missing") }
		t.Cleanup(func() { readDirFn = prev })
		if _, _, err := x11Env(config.DefaultConfig()); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestRunConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("gap_size: 4\nfavorite_layout: halves\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(bad, []byte("gap_size: -1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if rc := runConfig([]string{"validate", "--path", good}); rc != 0 {
		t.Fatalf("validate good rc=%d, want 0", rc)
	}
	if rc := runConfig([]string{"validate", "--path", bad}); rc != 1 {
		t.Fatalf("validate bad rc=%d, want 1", rc)
	}
	if rc := runConfig([]string{"nope"}); rc != 2 {
		t.Fatalf("unknown subcommand rc=%d, want 2", rc)
	}
}

func TestRunTileRejectsBadArguments(t *testing.T) {
	if rc := runTile(nil); rc != 2 {
		t.Fatalf("no position rc=%d, want 2", rc)
	}
	if rc := runTile([]string{"middle"}); rc != 2 {
		t.Fatalf("unknown position rc=%d, want 2", rc)
	}
	if rc := runFocus([]string{"sideways"}); rc != 2 {
		t.Fatalf("unknown direction rc=%d, want 2", rc)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := slogLevel(in); got != want {
			t.Errorf("slogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
