package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"centrifuge/internal/cachestore"
	"centrifuge/internal/config"
	"centrifuge/internal/services"
	"centrifuge/internal/testsupport"
	"centrifuge/internal/validation"
)

const cleanName = "Artist - 1999 - Title [VBR]"

type cliEnv struct {
	base       string
	configPath string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("LASTFM_API_KEY", "")
	configPath := filepath.Join(base, "centrifuge.toml")
	content := fmt.Sprintf("[paths]\ncache_dir = %q\n\n[cache]\nbackend = \"json\"\npath = %q\n\n[logging]\nlevel = \"error\"\n",
		filepath.Join(base, "cache"), filepath.Join(base, "cache", "cache.json"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliEnv{base: base, configPath: configPath}
}

func (e *cliEnv) dir(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.base, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	return path
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var configFlag, logLevelFlag string
	ctx := newCommandContext(&configFlag, &logLevelFlag)
	ctx.newOracle = func(*config.Config, cachestore.Store, *slog.Logger) (validation.Oracle, func() error, error) {
		return testsupport.NewFakeOracle(), func() error { return nil }, nil
	}
	cmd := newRootCommandWith(ctx)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommandPrintsViolations(t *testing.T) {
	env := setupCLIEnv(t)
	scan := env.dir(t, "music")
	dir := filepath.Join(scan, "album")
	testsupport.WriteAlbum(t, dir, "Artist", "Title", "1999", 2, "cli")

	out, err := env.run(t, "validate", "--show-violations", scan)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "1 violations: "+dir) {
		t.Fatalf("missing summary line:\n%s", out)
	}
	if !strings.Contains(out, "- folder-name: ") {
		t.Fatalf("missing violation detail:\n%s", out)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("validate touched the release: %v", err)
	}
}

func TestFixCommandPlacesRelease(t *testing.T) {
	env := setupCLIEnv(t)
	scan := env.dir(t, "incoming")
	library := env.dir(t, "library")
	dir := filepath.Join(scan, "album")
	testsupport.WriteAlbum(t, dir, "Artist", "Title", "1999", 2, "cli-fix")

	out, err := env.run(t, "fix", "--move-fixed-to", library, "--show-violations", scan)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !strings.Contains(out, "1 -> 0 violations: "+dir) {
		t.Fatalf("missing summary line:\n%s", out)
	}
	if !strings.Contains(out, "Before:") || !strings.Contains(out, "After:") {
		t.Fatalf("missing before/after sections:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(library, cleanName)); err != nil {
		t.Fatalf("release not placed: %v", err)
	}
}

func TestFixCommandJSONReport(t *testing.T) {
	env := setupCLIEnv(t)
	scan := env.dir(t, "incoming")
	testsupport.WriteAlbum(t, filepath.Join(scan, "album"), "Artist", "Title", "1999", 1, "cli-json")

	out, err := env.run(t, "fix", "--dry-run", "--json", scan)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	var report struct {
		Releases []struct {
			Path        string `json:"path"`
			FixApplied  bool   `json:"fix_applied"`
			Destination string `json:"destination"`
			Decision    string `json:"decision"`
		} `json:"releases"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(report.Releases) != 1 {
		t.Fatalf("expected 1 release, got %s", out)
	}
	got := report.Releases[0]
	if got.FixApplied || got.Destination != filepath.Join(scan, cleanName) || got.Decision != "skip" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if _, err := os.Stat(filepath.Join(scan, "album")); err != nil {
		t.Fatalf("dry run renamed the release: %v", err)
	}
}

func TestFixCommandConfigurationErrors(t *testing.T) {
	env := setupCLIEnv(t)
	scan := env.dir(t, "incoming")
	library := env.dir(t, "library")
	invalid := env.dir(t, "invalid")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown code", []string{"--move-invalid", "bogus", "--move-invalid-to", invalid}},
		{"code without directory", []string{"--move-invalid", "missing-tracks"}},
		{"exclusive move flags", []string{"--move-fixed", "--move-fixed-to", library}},
		{"missing destination", []string{"--move-fixed-to", filepath.Join(env.base, "nowhere")}},
		{"missing duplicate directory", []string{"--move-duplicate-to", filepath.Join(env.base, "nowhere")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"fix"}, tt.args...)
			_, err := env.run(t, append(args, scan)...)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestReleasesCommandListsDirectories(t *testing.T) {
	env := setupCLIEnv(t)
	scan := env.dir(t, "music")
	first := filepath.Join(scan, cleanName)
	testsupport.WriteAlbum(t, first, "Artist", "Title", "1999", 2, "list-a")
	testsupport.WriteAlbum(t, filepath.Join(scan, "other"), "Other", "Record", "2001", 1, "list-b")

	out, err := env.run(t, "releases", scan)
	if err != nil {
		t.Fatalf("releases: %v", err)
	}
	if !strings.HasPrefix(out, "Found release directories:\n"+first+"\n") || !strings.HasSuffix(out, "Total: 2\n") {
		t.Fatalf("unexpected listing:\n%s", out)
	}

	out, err = env.run(t, "releases", "--table", scan)
	if err != nil {
		t.Fatalf("releases --table: %v", err)
	}
	if !strings.Contains(out, "Record") || !strings.Contains(out, "VBR") {
		t.Fatalf("unexpected table:\n%s", out)
	}
}

func TestCacheCommands(t *testing.T) {
	env := setupCLIEnv(t)
	out, err := env.run(t, "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	if !strings.Contains(out, "Lookups:   0") {
		t.Fatalf("unexpected stats:\n%s", out)
	}
	out, err = env.run(t, "cache", "forget", "Artist", "Title")
	if err != nil {
		t.Fatalf("cache forget: %v", err)
	}
	if !strings.Contains(out, "No cached lookup") {
		t.Fatalf("unexpected forget output:\n%s", out)
	}
	if out, err = env.run(t, "cache", "clear"); err != nil || !strings.Contains(out, "Cache cleared") {
		t.Fatalf("cache clear: %v\n%s", err, out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLIEnv(t)
	target := filepath.Join(env.base, "new", "config.toml")
	out, err := env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if _, err := env.run(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "backend = 'json'") && !strings.Contains(out, `backend = "json"`) {
		t.Fatalf("unexpected config:\n%s", out)
	}
}
