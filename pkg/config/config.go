package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
)

// EnvConfigPath 指定配置文件路径的环境变量
const EnvConfigPath = "TABLEROW_CONFIG"

// Config 应用程序配置
type Config struct {
	Log      LogConfig      `json:"log" yaml:"log"`
	Executor ExecutorConfig `json:"executor" yaml:"executor"`
	Monitor  MonitorConfig  `json:"monitor" yaml:"monitor"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string `json:"level" yaml:"level"`
	Format  string `json:"format" yaml:"format"` // json or text
	NoColor bool   `json:"no_color" yaml:"no_color"`
}

// ExecutorConfig SQLite 执行器配置
type ExecutorConfig struct {
	DSN       string `json:"dsn" yaml:"dsn"`
	MaxOpen   int    `json:"max_open" yaml:"max_open"` // must be 1
	RowIDBase int64  `json:"rowid_base" yaml:"rowid_base"`
}

// MonitorConfig 监控配置
type MonitorConfig struct {
	SlowQuery SlowQueryConfig `json:"slow_query" yaml:"slow_query"`
}

// SlowQueryConfig 慢查询配置，Threshold 为 0 时关闭
type SlowQueryConfig struct {
	Threshold  time.Duration `json:"threshold" yaml:"threshold"`
	MaxEntries int           `json:"max_entries" yaml:"max_entries"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Executor: ExecutorConfig{
			DSN:       ":memory:",
			MaxOpen:   1,
			RowIDBase: 1,
		},
		Monitor: MonitorConfig{
			SlowQuery: SlowQueryConfig{
				Threshold:  1 * time.Second,
				MaxEntries: 1000,
			},
		},
	}
}

// LoadConfig 从文件加载配置。.yaml/.yml 按 YAML 解析，其余按 JSON 解析。
func LoadConfig(configPath string) (*Config, error) {
	// 如果没有指定配置文件，使用默认配置
	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigOrDefault 尝试从环境变量和常见位置加载配置文件
func LoadConfigOrDefault() *Config {
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		if config, err := LoadConfig(envPath); err == nil {
			return config
		}
	}

	possiblePaths := []string{
		"tablerow.yaml",
		"tablerow.json",
		"./config/tablerow.yaml",
		"./config/tablerow.json",
	}
	for _, path := range possiblePaths {
		if absPath, err := filepath.Abs(path); err == nil {
			if config, err := LoadConfig(absPath); err == nil {
				return config
			}
		}
	}

	return DefaultConfig()
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return domain.NewErrInvalidConfig("log.level", fmt.Sprintf("unknown level %q", config.Log.Level))
	}

	switch strings.ToLower(config.Log.Format) {
	case "text", "json":
	default:
		return domain.NewErrInvalidConfig("log.format", fmt.Sprintf("unknown format %q", config.Log.Format))
	}

	if config.Executor.DSN == "" {
		return domain.NewErrInvalidConfig("executor.dsn", "must not be empty")
	}

	// 虚拟表模块只挂在执行器的唯一连接上
	if config.Executor.MaxOpen != 1 {
		return domain.NewErrInvalidConfig("executor.max_open", "must be 1: virtual tables live on a single connection")
	}

	if config.Monitor.SlowQuery.Threshold < 0 {
		return domain.NewErrInvalidConfig("monitor.slow_query.threshold", "must not be negative")
	}

	if config.Monitor.SlowQuery.MaxEntries < 1 {
		return domain.NewErrInvalidConfig("monitor.slow_query.max_entries", "must be greater than 0")
	}

	return nil
}
