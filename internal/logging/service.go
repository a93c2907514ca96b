package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/config"
)

// Setup configures the global logger: console output, optional tee, level from config
func Setup(cfg *config.Config, extra io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if extra != nil {
		out = zerolog.MultiLevelWriter(out, extra)
	}
	log.Logger = log.Output(out)

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}

func WithCamera(base zerolog.Logger, facing, target string) zerolog.Logger {
	ctx := base.With().Str("facing", facing)
	if target != "" {
		ctx = ctx.Str("target", target)
	}
	return ctx.Logger()
}
