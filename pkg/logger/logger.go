package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Env — среда исполнения, от неё зависят бекенд и формат вывода.
type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

// DetectEnv читает APP_ENV; всё незнакомое трактуется как dev.
func DetectEnv() Env {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))) {
	case "prod", "production":
		return EnvProd
	case "stage", "staging", "preprod", "pre-production":
		return EnvStage
	default:
		return EnvDev
	}
}

type Backend string

const (
	BackendStd Backend = "std" // текстовый slog для локальной разработки
	BackendZap Backend = "zap" // JSON через zap для stage/prod
)

type Config struct {
	Service string
	Version string

	Env     Env
	Backend Backend
	Level   slog.Level
	Debug   bool

	// AddSource включает file:line в записях
	AddSource bool
}

// Init настраивает глобальный slog под сервис.
func Init(cfg Config) {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "dm-service"
	}
	if cfg.Backend == "" {
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		} else {
			cfg.Backend = BackendZap
		}
	}

	var h slog.Handler
	if cfg.Backend == BackendZap {
		h = newZapHandler(cfg)
	} else {
		h = newStdHandler(cfg)
	}

	slog.SetDefault(slog.New(h.WithAttrs(serviceAttrs(cfg))))
}

func newStdHandler(cfg Config) slog.Handler {
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level(cfg),
		AddSource: cfg.AddSource,
	})
}

func level(cfg Config) slog.Level {
	if cfg.Debug && cfg.Level == 0 {
		return slog.LevelDebug
	}
	return cfg.Level
}

func serviceAttrs(cfg Config) []slog.Attr {
	hn, _ := os.Hostname()

	return []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", hn+"-"+uuid.New().String()[:8]),
		slog.Time("started_at", time.Now()),
	}
}
