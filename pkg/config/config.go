package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/r9s-ai/xcompile/pkg/generator"
)

const (
	defaultListen         = ":3310"
	defaultTimeoutMs      = 30000
	defaultDebounceMs     = 300
	defaultOutputDir      = "./gen"
	defaultLogLevel       = "info"
	defaultLogColor       = "auto"
	defaultServerMaxBytes = 1 << 20
)

// Job is one configured compile: a binding source, the host it binds to and
// where the generated files go.
type Job struct {
	Name       string   `yaml:"name"`
	Language   string   `yaml:"language"`
	Source     string   `yaml:"source"`
	Host       string   `yaml:"host"`
	HostType   string   `yaml:"host_type"`
	Targets    []string `yaml:"targets"`
	OutputName string   `yaml:"output_name"`
	OutputDir  string   `yaml:"output_dir"`
}

// ParsedTargets returns the job targets in order without duplicates.
func (j Job) ParsedTargets() ([]generator.Target, error) {
	return generator.ParseTargets(j.Targets)
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	AccessLog bool   `yaml:"access_log"`
	// AccessLogPath appends access lines to a file; empty writes to stdout.
	AccessLogPath string `yaml:"access_log_path"`
	// AccessLogFormat is a "$var" template; empty uses the built-in format.
	AccessLogFormat string `yaml:"access_log_format"`
	Color           string `yaml:"color"`

	accessLogSet bool `yaml:"-"`
}

func (c *LoggingConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawLogging struct {
		Level           string `yaml:"level"`
		AccessLog       bool   `yaml:"access_log"`
		AccessLogPath   string `yaml:"access_log_path"`
		AccessLogFormat string `yaml:"access_log_format"`
		Color           string `yaml:"color"`
	}
	var raw rawLogging
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.Level = raw.Level
	c.AccessLog = raw.AccessLog
	c.AccessLogPath = raw.AccessLogPath
	c.AccessLogFormat = raw.AccessLogFormat
	c.Color = raw.Color
	c.accessLogSet = false

	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if strings.TrimSpace(value.Content[i].Value) == "access_log" {
			c.accessLogSet = true
		}
	}
	return nil
}

type Config struct {
	Output struct {
		Dir     string   `yaml:"dir"`
		Targets []string `yaml:"targets"`
	} `yaml:"output"`

	Jobs []Job `yaml:"jobs"`

	// Watch recompiles jobs when their source or host file changes.
	Watch struct {
		Enabled    bool `yaml:"enabled"`
		DebounceMs int  `yaml:"debounce_ms"`
	} `yaml:"watch"`

	Server struct {
		Listen         string `yaml:"listen"`
		ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
		WriteTimeoutMs int    `yaml:"write_timeout_ms"`
		// MaxBodyBytes caps POST /v1/compile request bodies.
		MaxBodyBytes int64 `yaml:"max_body_bytes"`
	} `yaml:"server"`

	Logging LoggingConfig `yaml:"logging"`

	// BaseDir is the directory relative job paths are resolved against.
	BaseDir string `yaml:"-"`
}

// Load reads a YAML config file. Relative job paths resolve against the
// directory holding the file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is provided by trusted config/flag.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return Parse(b, filepath.Dir(abs))
}

// Parse decodes a config document and applies defaults, env overrides and
// validation, like Load.
func Parse(b []byte, baseDir string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.BaseDir = baseDir
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	applyJobDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default is the configuration used when no config file is given.
func Default() *Config {
	var cfg Config
	cfg.BaseDir = "."
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		cfg.BaseDir = "."
	}
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if len(cfg.Output.Targets) == 0 {
		cfg.Output.Targets = []string{generator.CSharp.String()}
	}
	if cfg.Watch.DebounceMs <= 0 {
		cfg.Watch.DebounceMs = defaultDebounceMs
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = defaultListen
	}
	if cfg.Server.ReadTimeoutMs <= 0 {
		cfg.Server.ReadTimeoutMs = defaultTimeoutMs
	}
	if cfg.Server.WriteTimeoutMs <= 0 {
		cfg.Server.WriteTimeoutMs = defaultTimeoutMs
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = defaultServerMaxBytes
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if !cfg.Logging.accessLogSet {
		cfg.Logging.AccessLog = true
	}
	if cfg.Logging.Color == "" {
		cfg.Logging.Color = defaultLogColor
	}
}

func applyEnvOverrides(cfg *Config) {
	applyEnvOutputOverrides(cfg)
	applyEnvServerOverrides(cfg)
	applyEnvLoggingOverrides(cfg)
}

// applyJobDefaults fills job fields from output.* once env overrides are in.
func applyJobDefaults(cfg *Config) {
	for i := range cfg.Jobs {
		j := &cfg.Jobs[i]
		j.Name = strings.TrimSpace(j.Name)
		if j.Name == "" && strings.TrimSpace(j.Source) != "" {
			j.Name = strings.TrimSuffix(filepath.Base(j.Source), filepath.Ext(j.Source))
		}
		if len(j.Targets) == 0 {
			j.Targets = append([]string(nil), cfg.Output.Targets...)
		}
		if strings.TrimSpace(j.OutputDir) == "" {
			j.OutputDir = cfg.Output.Dir
		}
	}
	applyJobTargetEnvOverrides(cfg)
}

func applyEnvOutputOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("XCOMPILE_OUTPUT_DIR")); v != "" {
		cfg.Output.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("XCOMPILE_TARGETS")); v != "" {
		cfg.Output.Targets = []string{v}
	}
	cfg.Watch.Enabled = envBool("XCOMPILE_WATCH_ENABLED", cfg.Watch.Enabled)
	if n, ok := envInt("XCOMPILE_WATCH_DEBOUNCE_MS"); ok {
		cfg.Watch.DebounceMs = n
	}
}

func applyEnvServerOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("XCOMPILE_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if n, ok := envInt("XCOMPILE_READ_TIMEOUT_MS"); ok && n > 0 {
		cfg.Server.ReadTimeoutMs = n
	}
	if n, ok := envInt("XCOMPILE_WRITE_TIMEOUT_MS"); ok && n > 0 {
		cfg.Server.WriteTimeoutMs = n
	}
}

func applyEnvLoggingOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("XCOMPILE_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	cfg.Logging.AccessLog = envBool("XCOMPILE_ACCESS_LOG", cfg.Logging.AccessLog)
	if v := strings.TrimSpace(os.Getenv("XCOMPILE_ACCESS_LOG_PATH")); v != "" {
		cfg.Logging.AccessLogPath = v
	}
	if v := os.Getenv("XCOMPILE_ACCESS_LOG_FORMAT"); strings.TrimSpace(v) != "" {
		cfg.Logging.AccessLogFormat = v
	}
	if v := strings.TrimSpace(os.Getenv("XCOMPILE_LOG_COLOR")); v != "" {
		cfg.Logging.Color = v
	}
}

var envJobTargetsPattern = regexp.MustCompile(`^XCOMPILE_JOB_([A-Z0-9_]+)_TARGETS$`)

// applyJobTargetEnvOverrides lets XCOMPILE_JOB_<NAME>_TARGETS=go,ts replace
// the targets of the job named <name> ('-' written as '_'). An empty value
// restores output.targets.
func applyJobTargetEnvOverrides(cfg *Config) {
	if cfg == nil || len(cfg.Jobs) == 0 {
		return
	}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		m := envJobTargetsPattern.FindStringSubmatch(strings.TrimSpace(parts[0]))
		if m == nil {
			continue
		}
		v := strings.TrimSpace(parts[1])
		for i := range cfg.Jobs {
			if envJobKey(cfg.Jobs[i].Name) != m[1] {
				continue
			}
			if v == "" {
				cfg.Jobs[i].Targets = append([]string(nil), cfg.Output.Targets...)
				continue
			}
			cfg.Jobs[i].Targets = []string{v}
		}
	}
}

func envJobKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func validate(cfg *Config) error {
	if _, err := generator.ParseTargets(cfg.Output.Targets); err != nil {
		return fmt.Errorf("output.targets: %w", err)
	}
	seen := map[string]bool{}
	for i, j := range cfg.Jobs {
		if j.Name == "" {
			return fmt.Errorf("jobs[%d].name is required", i)
		}
		if seen[j.Name] {
			return fmt.Errorf("jobs[%d]: duplicate job name %q", i, j.Name)
		}
		seen[j.Name] = true
		if strings.TrimSpace(j.Source) == "" {
			return fmt.Errorf("jobs[%d] (%s): source is required", i, j.Name)
		}
		if strings.TrimSpace(j.Host) == "" {
			return fmt.Errorf("jobs[%d] (%s): host is required", i, j.Name)
		}
		ts, err := j.ParsedTargets()
		if err != nil {
			return fmt.Errorf("jobs[%d] (%s).targets: %w", i, j.Name, err)
		}
		if len(ts) == 0 {
			return fmt.Errorf("jobs[%d] (%s).targets must not be empty", i, j.Name)
		}
	}
	if cfg.Watch.Enabled && cfg.Watch.DebounceMs <= 0 {
		return errors.New("watch.debounce_ms must be > 0 when watch.enabled=true")
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug|info|warn|error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("logging.color must be one of auto|always|never, got %q", cfg.Logging.Color)
	}
	return nil
}

// Resolve returns p as an absolute path, resolved against BaseDir when
// relative.
func (c *Config) Resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	base := "."
	if c != nil && strings.TrimSpace(c.BaseDir) != "" {
		base = c.BaseDir
	}
	return filepath.Join(base, p)
}

// Job returns the job named name.
func (c *Config) Job(name string) (Job, bool) {
	if c == nil {
		return Job{}, false
	}
	for _, j := range c.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}
