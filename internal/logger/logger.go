package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sergiovriv/bc-p2/internal/config"
)

// New builds the process logger. Every entry carries the component name and
// the deployment env so oracle and explorer lines can share one sink.
func New(component string, app config.AppConfig, cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = zapcore.InfoLevel
	}

	enc := zap.NewProductionEncoderConfig()
	encoding := "json"
	if strings.ToLower(cfg.Encoding) != "json" {
		encoding = "console"
		enc = zap.NewDevelopmentEncoderConfig()
	}
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	out := strings.TrimSpace(cfg.Output)
	if out == "" {
		out = "stdout"
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		Encoding:          encoding,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		EncoderConfig:     enc,
		OutputPaths:       []string{out},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if cfg.Sampling {
		zc.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	var fields []zap.Field
	if component != "" {
		fields = append(fields, zap.String("component", component))
	}
	if app.Env != "" {
		fields = append(fields, zap.String("env", app.Env))
	}
	return zc.Build(zap.Fields(fields...))
}
