/*
Package config handles loading and saving moodbrain configuration.

Configuration is stored in ~/.moodbrain.json by default; MOODBRAIN_CONFIG or
the --config flag select another file. Files ending in .yaml or .yml are read
and written as YAML, everything else as JSON.

Schema:

	{
	  "labels": ["angry", "anxious", "calm", "happy", "love", "sad", "tired"],
	  "corpus": {"path": "~/.moodbrain/corpus.json"},
	  "feedback": {
	    "backend": "sqlite",
	    "sqlitePath": "~/.moodbrain/feedback.db",
	    "mongoUri": "",
	    "mongoDatabase": "moodbrain",
	    "mongoCollection": "feedback",
	    "queueSize": 1000
	  },
	  "training": {"retrainMode": "manual", "updateSchedule": ""},
	  "cache": {"ttlSeconds": 300},
	  "metrics": {"addr": ""},
	  "log": {"level": "info", "development": false}
	}
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/khanglvm/moodbrain/internal/mood"
	"github.com/khanglvm/moodbrain/internal/storage"
)

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "MOODBRAIN_CONFIG"

// Default values.
const (
	DefaultCorpusPath      = "~/.moodbrain/corpus.json"
	DefaultSQLitePath      = "~/.moodbrain/feedback.db"
	DefaultQueueSize       = 1000
	DefaultCacheTTLSeconds = 300
	DefaultRetrainMode     = "manual"
	DefaultLogLevel        = "info"
)

// Config represents the root configuration structure.
type Config struct {
	// Labels is the closed set of moods the classifier may produce.
	Labels []string `json:"labels" yaml:"labels"`

	Corpus   CorpusConfig   `json:"corpus" yaml:"corpus"`
	Feedback FeedbackConfig `json:"feedback" yaml:"feedback"`
	Training TrainingConfig `json:"training" yaml:"training"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// CorpusConfig locates the training corpus.
type CorpusConfig struct {
	// Path is the JSON corpus file. A leading ~ expands to the home directory.
	Path string `json:"path" yaml:"path"`
}

// FeedbackConfig selects the feedback store.
type FeedbackConfig struct {
	// Backend is "sqlite", "mongodb" or "memory".
	Backend         string `json:"backend" yaml:"backend"`
	SQLitePath      string `json:"sqlitePath,omitempty" yaml:"sqlitePath,omitempty"`
	MongoURI        string `json:"mongoUri,omitempty" yaml:"mongoUri,omitempty"`
	MongoDatabase   string `json:"mongoDatabase,omitempty" yaml:"mongoDatabase,omitempty"`
	MongoCollection string `json:"mongoCollection,omitempty" yaml:"mongoCollection,omitempty"`

	// QueueSize is the collector's buffer; corrections beyond it are dropped.
	QueueSize int `json:"queueSize" yaml:"queueSize"`
}

// TrainingConfig controls brain updates and retraining.
type TrainingConfig struct {
	// RetrainMode is "manual", "after-update" or "watch".
	RetrainMode string `json:"retrainMode" yaml:"retrainMode"`

	// UpdateSchedule runs the brain updater inside serve: a duration ("30m")
	// or a cron expression. Empty disables it.
	UpdateSchedule string `json:"updateSchedule" yaml:"updateSchedule"`
}

// CacheConfig controls the classification result cache.
type CacheConfig struct {
	// TTLSeconds is the cache entry lifetime; 0 disables the cache.
	TTLSeconds *int `json:"ttlSeconds,omitempty" yaml:"ttlSeconds,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics, e.g. ":9090". Empty disables it.
	Addr string `json:"addr" yaml:"addr"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// NewConfig creates a configuration with every default filled in.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if len(c.Labels) == 0 {
		for _, l := range mood.DefaultLabels {
			c.Labels = append(c.Labels, string(l))
		}
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = DefaultCorpusPath
	}
	if c.Feedback.Backend == "" {
		c.Feedback.Backend = storage.BackendSQLite
	}
	if c.Feedback.SQLitePath == "" && c.Feedback.Backend == storage.BackendSQLite {
		c.Feedback.SQLitePath = DefaultSQLitePath
	}
	if c.Feedback.Backend == storage.BackendMongoDB {
		if c.Feedback.MongoDatabase == "" {
			c.Feedback.MongoDatabase = storage.DefaultMongoDatabase
		}
		if c.Feedback.MongoCollection == "" {
			c.Feedback.MongoCollection = storage.DefaultMongoCollection
		}
	}
	if c.Feedback.QueueSize == 0 {
		c.Feedback.QueueSize = DefaultQueueSize
	}
	if c.Training.RetrainMode == "" {
		c.Training.RetrainMode = DefaultRetrainMode
	}
	if c.Cache.TTLSeconds == nil {
		ttl := DefaultCacheTTLSeconds
		c.Cache.TTLSeconds = &ttl
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Vocabulary returns the configured label set.
func (c *Config) Vocabulary() (*mood.Vocabulary, error) {
	return mood.NewVocabulary(c.Labels)
}

// CacheTTL returns the result cache lifetime; zero means disabled.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTLSeconds == nil {
		return DefaultCacheTTLSeconds * time.Second
	}
	return time.Duration(*c.Cache.TTLSeconds) * time.Second
}

// CorpusPath returns the expanded corpus file path.
func (c *Config) CorpusPath() (string, error) {
	return ExpandPath(c.Corpus.Path)
}

// StorageOptions returns the feedback store settings with paths expanded.
func (c *Config) StorageOptions() (storage.Options, error) {
	sqlitePath, err := ExpandPath(c.Feedback.SQLitePath)
	if err != nil {
		return storage.Options{}, err
	}
	return storage.Options{
		Backend:         c.Feedback.Backend,
		SQLitePath:      sqlitePath,
		MongoURI:        c.Feedback.MongoURI,
		MongoDatabase:   c.Feedback.MongoDatabase,
		MongoCollection: c.Feedback.MongoCollection,
	}, nil
}

// GetDefaultConfigPath returns $MOODBRAIN_CONFIG or ~/.moodbrain.json.
func GetDefaultConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".moodbrain.json"), nil
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
