package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Info(string, ...any)
	Error(string, ...any)
}

type EmptyLogger struct{}

func (d EmptyLogger) Info(msg string, args ...any)  {}
func (d EmptyLogger) Error(msg string, args ...any) {}

type zapLogger struct {
	log *zap.SugaredLogger
}

// NewZap adapts a zap logger to the printf style Logger used across the
// library. A nil logger yields EmptyLogger.
func NewZap(log *zap.Logger) Logger {
	if log == nil {
		return EmptyLogger{}
	}

	return zapLogger{log: log.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (z zapLogger) Info(msg string, args ...any) {
	z.log.Infof(msg, args...)
}

func (z zapLogger) Error(msg string, args ...any) {
	z.log.Errorf(msg, args...)
}

// NewZapLogger builds a production zap logger, or a colored development one.
func NewZapLogger(development bool) (*zap.Logger, error) {
	var cfg zap.Config

	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	return cfg.Build()
}

func MustZapLogger(development bool) *zap.Logger {
	log, err := NewZapLogger(development)
	if err != nil {
		panic(err)
	}

	return log
}
