package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yml"

// EnvPrefix - переменные окружения вида TASKMANAGER_SERVER_PORT
const EnvPrefix = "TASKMANAGER"

const (
	RepositoryMemory   = "memory"
	RepositoryFile     = "file"
	RepositorySQLite   = "sqlite"
	RepositoryPostgres = "postgres"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Repository RepositoryConfig `yaml:"repository"`
	History    HistoryConfig    `yaml:"history"`
	Backup     BackupConfig     `yaml:"backup"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	RateLimit       int           `yaml:"rate_limit"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	MinConnections int           `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

type RepositoryConfig struct {
	Type       string `yaml:"type"` // memory, file, sqlite или postgres
	FilePath   string `yaml:"file_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

type HistoryConfig struct {
	Limit int `yaml:"limit"` // 0 - без ограничения
}

type BackupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Type     string        `yaml:"type"` // file или sqlite
	Path     string        `yaml:"path"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Host:            "",
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
			RateLimit:       100,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
			MinConnections: 2,
			IdleTimeout:    5 * time.Minute,
			ConnectTimeout: 30 * time.Second,
		},
		Repository: RepositoryConfig{
			Type:       RepositoryFile,
			FilePath:   "data/tasks.csv",
			SQLitePath: "data/tasks.db",
		},
		Backup: BackupConfig{
			Interval: time.Hour,
			Type:     RepositoryFile,
			Path:     "data/backup.csv",
		},
	}
}

// Load читает значения по умолчанию, затем файл, затем переменные окружения.
// Отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	default:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("server.request_timeout", cfg.Server.RequestTimeout)
	v.SetDefault("server.rate_limit", cfg.Server.RateLimit)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.SetDefault("database.url", cfg.Database.URL)
	v.SetDefault("database.max_connections", cfg.Database.MaxConnections)
	v.SetDefault("database.min_connections", cfg.Database.MinConnections)
	v.SetDefault("database.idle_timeout", cfg.Database.IdleTimeout)
	v.SetDefault("database.connect_timeout", cfg.Database.ConnectTimeout)
	v.SetDefault("logging.development", cfg.Logging.Development)
	v.SetDefault("repository.type", cfg.Repository.Type)
	v.SetDefault("repository.file_path", cfg.Repository.FilePath)
	v.SetDefault("repository.sqlite_path", cfg.Repository.SQLitePath)
	v.SetDefault("history.limit", cfg.History.Limit)
	v.SetDefault("backup.enabled", cfg.Backup.Enabled)
	v.SetDefault("backup.interval", cfg.Backup.Interval)
	v.SetDefault("backup.type", cfg.Backup.Type)
	v.SetDefault("backup.path", cfg.Backup.Path)

	cfg.Server.Port = v.GetString("server.port")
	cfg.Server.Host = v.GetString("server.host")
	cfg.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")
	cfg.Server.RequestTimeout = v.GetDuration("server.request_timeout")
	cfg.Server.RateLimit = v.GetInt("server.rate_limit")
	cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	cfg.Database.URL = v.GetString("database.url")
	cfg.Database.MaxConnections = v.GetInt("database.max_connections")
	cfg.Database.MinConnections = v.GetInt("database.min_connections")
	cfg.Database.IdleTimeout = v.GetDuration("database.idle_timeout")
	cfg.Database.ConnectTimeout = v.GetDuration("database.connect_timeout")
	cfg.Logging.Development = v.GetBool("logging.development")
	cfg.Repository.Type = v.GetString("repository.type")
	cfg.Repository.FilePath = v.GetString("repository.file_path")
	cfg.Repository.SQLitePath = v.GetString("repository.sqlite_path")
	cfg.History.Limit = v.GetInt("history.limit")
	cfg.Backup.Enabled = v.GetBool("backup.enabled")
	cfg.Backup.Interval = v.GetDuration("backup.interval")
	cfg.Backup.Type = v.GetString("backup.type")
	cfg.Backup.Path = v.GetString("backup.path")
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryMemory, RepositoryFile, RepositorySQLite, RepositoryPostgres:
	default:
		return fmt.Errorf("неизвестный тип репозитория %q", c.Repository.Type)
	}
	if c.Repository.Type == RepositoryPostgres && c.Database.URL == "" {
		return errors.New("для postgres нужен database.url")
	}
	if c.Server.Port == "" {
		return errors.New("не задан server.port")
	}
	if c.History.Limit < 0 {
		return errors.New("history.limit не может быть отрицательным")
	}
	if c.Backup.Enabled {
		if c.Backup.Interval <= 0 {
			return errors.New("backup.interval должен быть больше нуля")
		}
		if c.Backup.Type != RepositoryFile && c.Backup.Type != RepositorySQLite {
			return fmt.Errorf("неизвестный тип резервной копии %q", c.Backup.Type)
		}
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
