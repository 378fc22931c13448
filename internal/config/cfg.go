package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/rupor-github/gencfg"
	yaml "gopkg.in/yaml.v3"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

const AppName = "quizbuilder"

type (
	StorageConfig struct {
		Driver       string `yaml:"driver" validate:"required,oneof=sqlite postgres mysql mongo"`
		Path         string `yaml:"path" sanitize:"path_clean" validate:"required_if=Driver sqlite"`
		DSN          string `yaml:"dsn" validate:"required_unless=Driver sqlite"`
		Database     string `yaml:"database" validate:"required_if=Driver mongo"`
		JournalLimit int    `yaml:"journal_limit" validate:"gte=0"`
	}

	HistoryConfig struct {
		Window time.Duration `yaml:"window" validate:"gte=0"`
		Limit  int           `yaml:"limit" validate:"gte=0"`
	}

	CodeViewConfig struct {
		Dir      string        `yaml:"dir" sanitize:"path_clean" validate:"required"`
		Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
	}

	BackupConfig struct {
		Enabled  bool   `yaml:"enabled"`
		Schedule string `yaml:"schedule" validate:"required_if=Enabled true" schedule:"cron"`
		Dir      string `yaml:"dir" sanitize:"path_clean" validate:"required"`
		Keep     int    `yaml:"keep" validate:"gte=0"`
		Workers  int    `yaml:"workers" validate:"min=1,max=64"`
	}

	MetricsConfig struct {
		Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
	}

	Config struct {
		Version  int            `yaml:"version" validate:"eq=1"`
		DataDir  string         `yaml:"data_dir" sanitize:"path_clean" validate:"required"`
		Storage  StorageConfig  `yaml:"storage"`
		History  HistoryConfig  `yaml:"history"`
		CodeView CodeViewConfig `yaml:"codeview"`
		Backup   BackupConfig   `yaml:"backup"`
		Metrics  MetricsConfig  `yaml:"metrics"`
		Logging  LoggingConfig  `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// Only fields we know about are accepted, so yaml.Unmarshal is not used.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration file at path, superimposing its
// values on the embedded defaults, then fills derived paths, sanitizes and
// validates the result. An empty path yields the defaults.
func LoadConfiguration(path string) (*Config, error) {
	data, err := gencfg.Process(ConfigTmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}

	if len(path) > 0 {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if cfg, err = unmarshalConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to process configuration file: %w", err)
		}
	}

	cfg.derivePaths()
	if err := gencfg.Sanitize(cfg); err != nil {
		return nil, err
	}
	if err := gencfg.Validate(cfg); err != nil {
		return nil, err
	}
	if err := validateSchedules(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// derivePaths fills empty locations from the data directory.
func (cfg *Config) derivePaths() {
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	if cfg.Storage.Driver == "sqlite" && cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(cfg.DataDir, AppName+".db")
	}
	if cfg.CodeView.Dir == "" {
		cfg.CodeView.Dir = filepath.Join(cfg.DataDir, "codeview")
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = filepath.Join(cfg.DataDir, "backups")
	}
	if cfg.Logging.FileLogger.Level != "none" && cfg.Logging.FileLogger.Destination == "" {
		cfg.Logging.FileLogger.Destination = filepath.Join(cfg.DataDir, AppName+".log")
	}
}

// DefaultDataDir is ~/.local/share/quizbuilder.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, ".local", "share", AppName)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// validateSchedules checks fields tagged schedule:"cron" with the same parser
// the backup scheduler uses.
func validateSchedules(cfg *Config) error {
	v := validator.New()
	v.SetTagName("schedule")
	if err := v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		spec := fl.Field().String()
		if spec == "" {
			return true
		}
		_, err := cronParser.Parse(spec)
		return err == nil
	}); err != nil {
		return err
	}
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}
	return nil
}

// ParseSchedule parses a backup schedule.
func ParseSchedule(spec string) (cron.Schedule, error) {
	return cronParser.Parse(spec)
}
