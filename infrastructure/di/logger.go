package di

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"graph-engine/infrastructure/config"
)

// ProvideLogLevel parses LOG_LEVEL into an atomic level that can be changed while running.
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	return level, nil
}

// ProvideLogger builds the service logger. Production logs JSON, everything else the console
// encoder. With LOG_FILE set, output also goes to a lumberjack-rotated file.
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) *zap.Logger {
	var encoderCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if cfg.IsProduction() {
		encoderCfg = zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	if cfg.LogFile != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.IsDevelopment() {
		opts = append(opts, zap.Development())
	}

	return zap.New(core, opts...).With(zap.String("service", serviceName), zap.String("environment", cfg.Environment))
}
