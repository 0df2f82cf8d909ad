package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `envconfig:"LOG_LEVEL" default:"debug"`
	// Sink is a file path; empty means stdout.
	Sink string `envconfig:"LOG_SINK"`
}

func NewLogger(cfg Log, name string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.TimeKey = "time"

	ws := zapcore.Lock(os.Stdout)
	if cfg.Sink != "" {
		f, err := os.OpenFile(cfg.Sink, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			ws = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, zap.NewAtomicLevelAt(cfg.LogLevel))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.DPanicLevel)).Named(name)
}
