// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Значения по умолчанию
const (
	DefaultCacheRoot     = "./music_opus"
	DefaultExtension     = "opus"
	DefaultCommandPrefix = "!"
	DefaultGain          = 1.0
	DefaultReplyLimit    = 1900
	DefaultWatchDebounce = 2 * time.Second
	DefaultLogLevel      = "info"
)

// Переменные окружения, перекрывающие файл конфигурации
const (
	EnvCacheRoot    = "OPUS_CACHE"
	EnvDiscordToken = "DISCORD_TOKEN"
)

// S3Config настройки бакета, из которого синхронизируется кэш
type S3Config struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// Config структура для хранения конфигурации приложения
type Config struct {
	DiscordToken   string        `yaml:"discord_token"`
	CacheRoot      string        `yaml:"cache_root"`
	AudioExtension string        `yaml:"audio_extension"`
	CommandPrefix  string        `yaml:"command_prefix"`
	DefaultGain    float64       `yaml:"default_gain"`
	ReplyLimit     int           `yaml:"reply_limit"`
	Watch          bool          `yaml:"watch"`
	WatchDebounce  time.Duration `yaml:"watch_debounce"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	LogLevel       string        `yaml:"log_level"`
	S3             S3Config      `yaml:"s3"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не является ошибкой: используются значения по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	path, err := expandHome(filePath)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
		}
	}

	config.applyEnv()
	config.applyDefaults()

	// Раскрываем тильду в пути кэша
	if config.CacheRoot, err = expandHome(config.CacheRoot); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate проверяет, что значения конфигурации допустимы
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AudioExtension) == "" {
		return errors.New("audio_extension не может быть пустым")
	}
	if strings.TrimSpace(c.CommandPrefix) == "" {
		return errors.New("command_prefix не может быть пустым")
	}
	if c.DefaultGain <= 0 {
		return fmt.Errorf("default_gain должен быть положительным, получено %v", c.DefaultGain)
	}
	if c.ReplyLimit <= 0 {
		return fmt.Errorf("reply_limit должен быть положительным, получено %d", c.ReplyLimit)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvCacheRoot)); v != "" {
		c.CacheRoot = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDiscordToken)); v != "" {
		c.DiscordToken = v
	}
}

// applyDefaults устанавливает значения по умолчанию, если они не заданы
func (c *Config) applyDefaults() {
	if c.CacheRoot == "" {
		c.CacheRoot = DefaultCacheRoot
	}
	if c.AudioExtension == "" {
		c.AudioExtension = DefaultExtension
	}
	c.AudioExtension = strings.TrimPrefix(c.AudioExtension, ".")
	if c.CommandPrefix == "" {
		c.CommandPrefix = DefaultCommandPrefix
	}
	if c.DefaultGain == 0 {
		c.DefaultGain = DefaultGain
	}
	if c.ReplyLimit == 0 {
		c.ReplyLimit = DefaultReplyLimit
	}
	if c.WatchDebounce == 0 {
		c.WatchDebounce = DefaultWatchDebounce
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return strings.Replace(path, "~", home, 1), nil
}
