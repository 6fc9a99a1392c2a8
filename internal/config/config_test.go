package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/khanglvm/moodbrain/internal/storage"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	if len(cfg.Labels) != 7 {
		t.Errorf("expected 7 default labels, got %v", cfg.Labels)
	}
	if cfg.Corpus.Path != DefaultCorpusPath {
		t.Errorf("unexpected corpus path %q", cfg.Corpus.Path)
	}
	if cfg.Feedback.Backend != storage.BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.Feedback.Backend)
	}
	if cfg.Feedback.QueueSize != DefaultQueueSize {
		t.Errorf("expected queue size %d, got %d", DefaultQueueSize, cfg.Feedback.QueueSize)
	}
	if cfg.Training.RetrainMode != "manual" {
		t.Errorf("expected manual retrain mode, got %q", cfg.Training.RetrainMode)
	}
	if cfg.CacheTTL() != 300*time.Second {
		t.Errorf("expected 300s cache TTL, got %v", cfg.CacheTTL())
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
		got, err := GetDefaultConfigPath()
		if err != nil {
			t.Fatal(err)
		}
		if got != "/tmp/custom.yaml" {
			t.Errorf("expected env path, got %q", got)
		}
	})

	t.Run("home default", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		t.Setenv("HOME", "/home/tester")
		got, err := GetDefaultConfigPath()
		if err != nil {
			t.Fatal(err)
		}
		if got != filepath.Join("/home/tester", ".moodbrain.json") {
			t.Errorf("unexpected default path %q", got)
		}
	})
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := map[string]string{
		"~":                  "/home/tester",
		"~/corpus.json":      "/home/tester/corpus.json",
		"/abs/corpus.json":   "/abs/corpus.json",
		"relative/file.json": "relative/file.json",
		"~other/file":        "~other/file",
	}
	for in, want := range tests {
		got, err := ExpandPath(in)
		if err != nil {
			t.Fatalf("ExpandPath(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfig_CacheTTLZeroDisables(t *testing.T) {
	cfg := NewConfig()
	zero := 0
	cfg.Cache.TTLSeconds = &zero
	if cfg.CacheTTL() != 0 {
		t.Errorf("expected zero TTL, got %v", cfg.CacheTTL())
	}
}

func TestConfig_StorageOptions(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := NewConfig()

	opts, err := cfg.StorageOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.SQLitePath != "/home/tester/.moodbrain/feedback.db" {
		t.Errorf("expected expanded sqlite path, got %q", opts.SQLitePath)
	}
	if opts.Backend != storage.BackendSQLite {
		t.Errorf("unexpected backend %q", opts.Backend)
	}
}

func TestLoadFrom_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	jsonData := `{"labels": ["happy", "sad"], "feedback": {"backend": "memory"}, "cache": {"ttlSeconds": 0}}`
	if err := os.WriteFile(jsonPath, []byte(jsonData), 0644); err != nil {
		t.Fatal(err)
	}

	yamlPath := filepath.Join(dir, "config.yaml")
	yamlData := "labels: [happy, sad]\nfeedback:\n  backend: memory\ncache:\n  ttlSeconds: 0\n"
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			cfg, err := LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom failed: %v", err)
			}
			if len(cfg.Labels) != 2 {
				t.Errorf("expected 2 labels, got %v", cfg.Labels)
			}
			if cfg.Feedback.Backend != storage.BackendMemory {
				t.Errorf("expected memory backend, got %q", cfg.Feedback.Backend)
			}
			if cfg.CacheTTL() != 0 {
				t.Errorf("explicit ttlSeconds 0 must survive defaults, got %v", cfg.CacheTTL())
			}
			if cfg.Feedback.QueueSize != DefaultQueueSize {
				t.Errorf("expected default queue size, got %d", cfg.Feedback.QueueSize)
			}
			if cfg.Log.Level != DefaultLogLevel {
				t.Errorf("expected default log level, got %q", cfg.Log.Level)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := NewConfig()
			cfg.Training.RetrainMode = "after-update"
			cfg.Training.UpdateSchedule = "30m"
			cfg.Metrics.Addr = ":9090"
			if err := Save(cfg, path); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom failed: %v", err)
			}
			if loaded.Training.RetrainMode != "after-update" || loaded.Training.UpdateSchedule != "30m" {
				t.Errorf("training section lost: %+v", loaded.Training)
			}
			if loaded.Metrics.Addr != ":9090" {
				t.Errorf("metrics addr lost: %q", loaded.Metrics.Addr)
			}
			if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
				t.Error("temp file must not remain after save")
			}
		})
	}
}

func TestSave_CreatesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	first := NewConfig()
	if err := Save(first, path); err != nil {
		t.Fatal(err)
	}
	second := NewConfig()
	second.Log.Level = "debug"
	if err := Save(second, path); err != nil {
		t.Fatal(err)
	}

	bak, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if strings.Contains(string(bak), `"debug"`) {
		t.Error("backup must hold the previous config")
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := NewConfig()
	cfg.Feedback.Backend = "redis"

	err := Save(cfg, path)
	if _, ok := err.(*InvalidConfigError); !ok {
		t.Fatalf("expected InvalidConfigError, got %T: %v", err, err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("invalid config must not be written")
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, created, err := LoadOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("expected config to be created")
	}
	if cfg.Feedback.Backend != storage.BackendSQLite {
		t.Errorf("expected default config, got %+v", cfg.Feedback)
	}

	_, created, err = LoadOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second call must load the existing file")
	}
}

func TestLoadOrCreate_KeepsParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadOrCreate(path); err == nil {
		t.Fatal("expected parse error")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{broken" {
		t.Error("broken config must not be overwritten")
	}
}
