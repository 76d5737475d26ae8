package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv убирает переменные окружения, которые могут повлиять на результат теста
func clearEnv(t *testing.T) {
	t.Setenv(EnvCacheRoot, "")
	t.Setenv(EnvDiscordToken, "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Ошибка записи файла конфигурации: %v", err)
	}
	return configPath
}

func TestLoadConfigFromFile(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, `discord_token: "test-token"
cache_root: "/srv/opus"
audio_extension: ".OPUS"
command_prefix: "?"
default_gain: 0.5
reply_limit: 1000
watch: true
watch_debounce: 500ms
metrics_addr: ":9100"
s3:
  region: "us-east-1"
  bucket: "sounds"
  prefix: "cache/"
`)

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if loadedConfig.DiscordToken != "test-token" {
		t.Errorf("Ожидался DiscordToken: test-token, получено: %s", loadedConfig.DiscordToken)
	}
	if loadedConfig.CacheRoot != "/srv/opus" {
		t.Errorf("Ожидался CacheRoot: /srv/opus, получено: %s", loadedConfig.CacheRoot)
	}
	// Ведущая точка у расширения отбрасывается, регистр сохраняется
	if loadedConfig.AudioExtension != "OPUS" {
		t.Errorf("Ожидался AudioExtension: OPUS, получено: %s", loadedConfig.AudioExtension)
	}
	if loadedConfig.CommandPrefix != "?" {
		t.Errorf("Ожидался CommandPrefix: ?, получено: %s", loadedConfig.CommandPrefix)
	}
	if loadedConfig.DefaultGain != 0.5 {
		t.Errorf("Ожидался DefaultGain: 0.5, получено: %v", loadedConfig.DefaultGain)
	}
	if loadedConfig.ReplyLimit != 1000 {
		t.Errorf("Ожидался ReplyLimit: 1000, получено: %d", loadedConfig.ReplyLimit)
	}
	if !loadedConfig.Watch || loadedConfig.WatchDebounce != 500*time.Millisecond {
		t.Errorf("Ожидалось наблюдение с задержкой 500ms, получено: %v / %v", loadedConfig.Watch, loadedConfig.WatchDebounce)
	}
	if loadedConfig.S3.Bucket != "sounds" || loadedConfig.S3.Prefix != "cache/" {
		t.Errorf("Неожиданные настройки S3: %+v", loadedConfig.S3)
	}
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "discord_token: abc\n")

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if loadedConfig.CacheRoot != DefaultCacheRoot {
		t.Errorf("Ожидался CacheRoot по умолчанию: %s, получено: %s", DefaultCacheRoot, loadedConfig.CacheRoot)
	}
	if loadedConfig.AudioExtension != DefaultExtension {
		t.Errorf("Ожидался AudioExtension по умолчанию: %s, получено: %s", DefaultExtension, loadedConfig.AudioExtension)
	}
	if loadedConfig.CommandPrefix != DefaultCommandPrefix {
		t.Errorf("Ожидался CommandPrefix по умолчанию: %s, получено: %s", DefaultCommandPrefix, loadedConfig.CommandPrefix)
	}
	if loadedConfig.DefaultGain != DefaultGain {
		t.Errorf("Ожидался DefaultGain по умолчанию: %v, получено: %v", DefaultGain, loadedConfig.DefaultGain)
	}
	if loadedConfig.ReplyLimit != DefaultReplyLimit {
		t.Errorf("Ожидался ReplyLimit по умолчанию: %d, получено: %d", DefaultReplyLimit, loadedConfig.ReplyLimit)
	}
	if loadedConfig.WatchDebounce != DefaultWatchDebounce {
		t.Errorf("Ожидался WatchDebounce по умолчанию: %v, получено: %v", DefaultWatchDebounce, loadedConfig.WatchDebounce)
	}
	if loadedConfig.Watch {
		t.Error("Наблюдение за каталогом не должно быть включено по умолчанию")
	}
}

func TestEnvVarOverride(t *testing.T) {
	configPath := writeConfig(t, `discord_token: "file-token"
cache_root: "/from/file"
`)

	t.Setenv(EnvCacheRoot, "/from/env")
	t.Setenv(EnvDiscordToken, "env-token")

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if loadedConfig.CacheRoot != "/from/env" {
		t.Errorf("Ожидался CacheRoot из окружения: /from/env, получено: %s", loadedConfig.CacheRoot)
	}
	if loadedConfig.DiscordToken != "env-token" {
		t.Errorf("Ожидался DiscordToken из окружения: env-token, получено: %s", loadedConfig.DiscordToken)
	}
}

func TestLoadConfigNonExistentFile(t *testing.T) {
	clearEnv(t)

	// Отсутствующий файл дает конфигурацию по умолчанию
	loadedConfig, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Не ожидалась ошибка для отсутствующего файла: %v", err)
	}
	if loadedConfig.CacheRoot != DefaultCacheRoot {
		t.Errorf("Ожидался CacheRoot по умолчанию, получено: %s", loadedConfig.CacheRoot)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, `cache_root: "/tmp"
invalid_field: [unclosed array
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Ожидалась ошибка при загрузке некорректного YAML")
	}
	if !strings.Contains(err.Error(), "yaml") {
		t.Errorf("Неожиданное сообщение об ошибке: %v", err)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"отрицательная громкость", "default_gain: -1\n", "default_gain"},
		{"отрицательный лимит", "reply_limit: -5\n", "reply_limit"},
		{"пробельный префикс", "command_prefix: \"  \"\n", "command_prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Ожидалась ошибка валидации")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Ожидалось упоминание %q в ошибке, получено: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithTilde(t *testing.T) {
	clearEnv(t)

	configPath := writeConfig(t, "cache_root: \"~/opus-cache\"\n")

	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, "opus-cache")
	if loadedConfig.CacheRoot != expected {
		t.Errorf("Ожидался CacheRoot с раскрытой тильдой: %s, получено: %s", expected, loadedConfig.CacheRoot)
	}
}
