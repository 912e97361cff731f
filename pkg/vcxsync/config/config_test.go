package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/vcxsync/pkg/vcxsync/filter"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// isolate points every config lookup at a fresh temp home.
func isolate(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("VCXSYNC_OUTPUT", "")
	return tempDir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadViper(viper.New(), "")
	if err != nil {
		t.Fatalf("LoadViper() error = %v", err)
	}

	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Output, DefaultOutput)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.Logging.Path != "" {
		t.Errorf("Logging.Path = %q, want empty", cfg.Logging.Path)
	}
	if cfg.Watch.Debounce != DefaultDebounce {
		t.Errorf("Watch.Debounce = %v, want %v", cfg.Watch.Debounce, DefaultDebounce)
	}
	if len(cfg.Exclude) != 0 {
		t.Errorf("Exclude = %v, want empty", cfg.Exclude)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty", cfg.File)
	}
	if got := cfg.Logging.Components["watcher"]; got != "warn" {
		t.Errorf("Logging.Components[watcher] = %q, want warn", got)
	}
	if !reflect.DeepEqual(cfg.CategoryRules(), filter.DefaultCategoryRules()) {
		t.Errorf("CategoryRules() = %v, want defaults", cfg.CategoryRules())
	}
}

func TestLoad_FromFile(t *testing.T) {
	tempDir := isolate(t)
	configDir := filepath.Join(tempDir, ".config", "vcxsync")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configContent := `
exclude:
  - third_party
  - .*\.bak
categories:
  compile: ["*.cpp", "*.ixx"]
output: json
logging:
  level: debug
  path: ~/logs/vcxsync.log
  components:
    scanner: debug
watch:
  debounce: 2s
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadViper(viper.New(), "")
	if err != nil {
		t.Fatalf("LoadViper() error = %v", err)
	}

	if want := []string{"third_party", `.*\.bak`}; !reflect.DeepEqual(cfg.Exclude, want) {
		t.Errorf("Exclude = %v, want %v", cfg.Exclude, want)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if want := filepath.Join(tempDir, "logs", "vcxsync.log"); cfg.Logging.Path != want {
		t.Errorf("Logging.Path = %q, want %q", cfg.Logging.Path, want)
	}
	if cfg.Logging.Components["scanner"] != "debug" {
		t.Errorf("Logging.Components[scanner] = %q, want debug", cfg.Logging.Components["scanner"])
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Watch.Debounce = %v, want 2s", cfg.Watch.Debounce)
	}
	if cfg.File != configPath {
		t.Errorf("File = %q, want %q", cfg.File, configPath)
	}

	rules := cfg.CategoryRules()
	if want := []string{"*.cpp", "*.ixx"}; !reflect.DeepEqual(rules[filter.CategoryCompile], want) {
		t.Errorf("compile rules = %v, want %v", rules[filter.CategoryCompile], want)
	}
	if want := filter.DefaultCategoryRules()[filter.CategoryInclude]; !reflect.DeepEqual(rules[filter.CategoryInclude], want) {
		t.Errorf("include rules = %v, want defaults %v", rules[filter.CategoryInclude], want)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	tempDir := isolate(t)

	path := filepath.Join(tempDir, "custom.yaml")
	if err := os.WriteFile(path, []byte("output: plain\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadViper(viper.New(), path)
	if err != nil {
		t.Fatalf("LoadViper() error = %v", err)
	}
	if cfg.Output != "plain" {
		t.Errorf("Output = %q, want plain", cfg.Output)
	}

	if _, err := LoadViper(viper.New(), filepath.Join(tempDir, "missing.yaml")); err == nil {
		t.Error("LoadViper() with a missing explicit file should fail")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	tempDir := isolate(t)
	configDir := filepath.Join(tempDir, ".config", "vcxsync")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("output: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadViper(viper.New(), "")
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("LoadViper() error = %v, want read failure", err)
	}
}

func TestLoad_XDGConfigHome(t *testing.T) {
	tempDir := isolate(t)
	xdgDir := filepath.Join(tempDir, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdgDir)

	configDir := filepath.Join(xdgDir, "vcxsync")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("output: yaml\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadViper(viper.New(), "")
	if err != nil {
		t.Fatalf("LoadViper() error = %v", err)
	}
	if cfg.Output != "yaml" {
		t.Errorf("Output = %q, want yaml", cfg.Output)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("VCXSYNC_OUTPUT", "json")
	t.Setenv("VCXSYNC_WATCH_DEBOUNCE", "1s")

	cfg, err := LoadViper(viper.New(), "")
	if err != nil {
		t.Fatalf("LoadViper() error = %v", err)
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json", cfg.Output)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Watch.Debounce = %v, want 1s", cfg.Watch.Debounce)
	}
}

func TestLoadViper_FlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv("VCXSYNC_OUTPUT", "json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "")
	if err := flags.Parse([]string{"--output", "plain"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	v := viper.New()
	if err := v.BindPFlag("output", flags.Lookup("output")); err != nil {
		t.Fatalf("BindPFlag() error = %v", err)
	}

	cfg, err := LoadViper(v, "")
	if err != nil {
		t.Fatalf("LoadViper() error = %v", err)
	}
	if cfg.Output != "plain" {
		t.Errorf("Output = %q, want plain", cfg.Output)
	}
}

func TestConfigDir(t *testing.T) {
	tests := []struct {
		name          string
		xdgConfigHome string
		want          func(home string) string
	}{
		{
			name: "home fallback",
			want: func(home string) string { return filepath.Join(home, ".config", "vcxsync") },
		},
		{
			name:          "xdg config home",
			xdgConfigHome: "/custom/config",
			want:          func(string) string { return filepath.Join("/custom/config", "vcxsync") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConfigHome)

			got, err := ConfigDir()
			if err != nil {
				t.Fatalf("ConfigDir() error = %v", err)
			}
			if want := tt.want(home); got != want {
				t.Errorf("ConfigDir() = %q, want %q", got, want)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	tempDir := isolate(t)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if want := filepath.Join(tempDir, ".config", "vcxsync", "config.yaml"); path != want {
		t.Errorf("WriteDefault() path = %q, want %q", path, want)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.yaml" {
		t.Errorf("config directory holds %v, want only config.yaml", entries)
	}

	cfg, err := LoadViper(viper.New(), "")
	if err != nil {
		t.Fatalf("LoadViper() after WriteDefault error = %v", err)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
	if !reflect.DeepEqual(cfg.CategoryRules(), filter.DefaultCategoryRules()) {
		t.Errorf("CategoryRules() = %v, want defaults", cfg.CategoryRules())
	}
	if cfg.Watch.Debounce != DefaultDebounce {
		t.Errorf("Watch.Debounce = %v, want %v", cfg.Watch.Debounce, DefaultDebounce)
	}

	// An existing file is never overwritten.
	if err := os.WriteFile(path, []byte("output: plain\n"), 0o644); err != nil {
		t.Fatalf("failed to overwrite config: %v", err)
	}
	if _, err := WriteDefault(); err != nil {
		t.Fatalf("second WriteDefault() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "output: plain\n" {
		t.Errorf("config was overwritten: %q", data)
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	tests := []struct {
		in   string
		want string
	}{
		{in: "/abs/path", want: "/abs/path"},
		{in: "relative", want: "relative"},
		{in: "~/logs/a.log", want: filepath.Join(home, "logs", "a.log")},
	}

	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Fatalf("ExpandPath(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLogPath(t *testing.T) {
	if got := DefaultLogPath(); filepath.Base(got) != "vcxsync.log" || filepath.Base(filepath.Dir(got)) != "vcxsync" {
		t.Errorf("DefaultLogPath() = %q", got)
	}
}
