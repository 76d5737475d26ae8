package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/kura-voice/internal/config"
	"github.com/hazadus/kura-voice/internal/metrics"
	"github.com/hazadus/kura-voice/internal/track"
)

const defaultConfigPath = "~/.kura.yaml"

var log = logging.Logger("kura")

// Application содержит состояние, общее для всех команд
type Application struct {
	Config  *config.Config
	Catalog *track.Manager
	Metrics *metrics.Metrics
}

// load читает конфигурацию и создает каталог
func (app *Application) load(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if err := logging.SetLogLevel("*", cfg.LogLevel); err != nil {
		return fmt.Errorf("некорректный log_level %q: %w", cfg.LogLevel, err)
	}

	app.Config = cfg
	app.Catalog = track.NewManager(cfg.CacheRoot, cfg.AudioExtension)
	app.Metrics = metrics.New()
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &Application{}
	if err := app.createRootCommand(ctx).Execute(); err != nil {
		os.Exit(1)
	}
}
