package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/r9s-ai/xcompile/pkg/generator"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "xcompile.yaml")
	// #nosec G306 -- test data file.
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
jobs:
  - source: bindings/ui.arrow
    host: hosts/window.yaml
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Server.Listen != ":3310" {
		t.Fatalf("default listen=%q", cfg.Server.Listen)
	}
	if cfg.Server.ReadTimeoutMs != 30000 || cfg.Server.WriteTimeoutMs != 30000 {
		t.Fatalf("default timeouts=%d,%d", cfg.Server.ReadTimeoutMs, cfg.Server.WriteTimeoutMs)
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Fatalf("default max_body_bytes=%d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Watch.Enabled {
		t.Fatalf("watch.enabled default should be false")
	}
	if cfg.Watch.DebounceMs != 300 {
		t.Fatalf("watch.debounce_ms default=%d", cfg.Watch.DebounceMs)
	}
	if !cfg.Logging.AccessLog {
		t.Fatalf("access_log default should be true")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Color != "auto" {
		t.Fatalf("logging defaults=%+v", cfg.Logging)
	}
	if cfg.Output.Dir != "./gen" {
		t.Fatalf("output.dir default=%q", cfg.Output.Dir)
	}

	job := cfg.Jobs[0]
	if job.Name != "ui" {
		t.Fatalf("job name default=%q", job.Name)
	}
	if len(job.Targets) != 1 || job.Targets[0] != "csharp" {
		t.Fatalf("job targets default=%v", job.Targets)
	}
	if job.OutputDir != "./gen" {
		t.Fatalf("job output_dir default=%q", job.OutputDir)
	}
	if got, want := cfg.Resolve(job.Source), filepath.Join(filepath.Dir(path), "bindings", "ui.arrow"); got != want {
		t.Fatalf("Resolve=%q want=%q", got, want)
	}
	if got := cfg.Resolve("/abs/host.yaml"); got != "/abs/host.yaml" {
		t.Fatalf("Resolve(abs)=%q", got)
	}
}

func TestLoad_AccessLogExplicitFalse(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  access_log: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Logging.AccessLog {
		t.Fatalf("explicit access_log=false should be kept")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
output:
  targets: [go]
jobs:
  - name: main-window
    source: ui.arrow
    host: window.go
    host_type: Window
  - name: panel
    source: panel.xbind
    host: Panel.java
    targets: [java]
`)
	t.Setenv("XCOMPILE_OUTPUT_DIR", "/tmp/out")
	t.Setenv("XCOMPILE_TARGETS", "ts,cs")
	t.Setenv("XCOMPILE_JOB_MAIN_WINDOW_TARGETS", "java")
	t.Setenv("XCOMPILE_JOB_PANEL_TARGETS", "")
	t.Setenv("XCOMPILE_WATCH_ENABLED", "on")
	t.Setenv("XCOMPILE_WATCH_DEBOUNCE_MS", "450")
	t.Setenv("XCOMPILE_LISTEN", ":9999")
	t.Setenv("XCOMPILE_READ_TIMEOUT_MS", "1234")
	t.Setenv("XCOMPILE_WRITE_TIMEOUT_MS", "bogus")
	t.Setenv("XCOMPILE_LOG_LEVEL", "debug")
	t.Setenv("XCOMPILE_ACCESS_LOG", "0")
	t.Setenv("XCOMPILE_LOG_COLOR", "never")
	t.Setenv("XCOMPILE_ACCESS_LOG_PATH", "/var/log/xcompile/access.log")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Output.Dir != "/tmp/out" {
		t.Fatalf("output.dir not overridden: %q", cfg.Output.Dir)
	}
	targets, err := generator.ParseTargets(cfg.Output.Targets)
	if err != nil || len(targets) != 2 || targets[0] != generator.TypeScript || targets[1] != generator.CSharp {
		t.Fatalf("output.targets not overridden: %v err=%v", cfg.Output.Targets, err)
	}
	mw, ok := cfg.Job("main-window")
	if !ok {
		t.Fatalf("job main-window missing")
	}
	if got, _ := mw.ParsedTargets(); len(got) != 1 || got[0] != generator.Java {
		t.Fatalf("main-window targets=%v", mw.Targets)
	}
	if mw.OutputDir != "/tmp/out" {
		t.Fatalf("main-window output_dir=%q", mw.OutputDir)
	}
	panel, _ := cfg.Job("panel")
	if got, _ := panel.ParsedTargets(); len(got) != 2 || got[0] != generator.TypeScript {
		t.Fatalf("panel targets should fall back to output.targets, got %v", panel.Targets)
	}
	if !cfg.Watch.Enabled || cfg.Watch.DebounceMs != 450 {
		t.Fatalf("watch not overridden: %+v", cfg.Watch)
	}
	if cfg.Server.Listen != ":9999" || cfg.Server.ReadTimeoutMs != 1234 || cfg.Server.WriteTimeoutMs != 30000 {
		t.Fatalf("server not overridden: %+v", cfg.Server)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.AccessLog || cfg.Logging.Color != "never" ||
		cfg.Logging.AccessLogPath != "/var/log/xcompile/access.log" {
		t.Fatalf("logging not overridden: %+v", cfg.Logging)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"unknown output target": "output:\n  targets: [rust]\n",
		"missing source":        "jobs:\n  - name: a\n    host: h.yaml\n",
		"missing host":          "jobs:\n  - name: a\n    source: a.arrow\n",
		"duplicate job":         "jobs:\n  - {name: a, source: a.arrow, host: h.yaml}\n  - {name: a, source: b.arrow, host: h.yaml}\n",
		"unknown job target":    "jobs:\n  - {name: a, source: a.arrow, host: h.yaml, targets: [cobol]}\n",
		"bad level":             "logging:\n  level: loud\n",
		"bad color":             "logging:\n  color: sometimes\n",
		"bad yaml":              "jobs: [\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfigFile(t, content)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_WatchDebounceFromEnv(t *testing.T) {
	t.Setenv("XCOMPILE_WATCH_ENABLED", "true")
	t.Setenv("XCOMPILE_WATCH_DEBOUNCE_MS", "0")
	if _, err := Load(writeConfigFile(t, "{}\n")); err == nil {
		t.Fatalf("expected error for watch.debounce_ms=0")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Listen != ":3310" || cfg.Output.Dir != "./gen" || len(cfg.Jobs) != 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, ok := cfg.Job("x"); ok {
		t.Fatalf("unexpected job")
	}
}
