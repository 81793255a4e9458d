package logsvc

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/darasa/core"
)

// ZapLogger is the default structured logger; it is used everywhere a Rollbar
// token is not configured.
type ZapLogger struct {
	l *zap.SugaredLogger
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(conf *core.Config) *ZapLogger {
	zapConf := zap.NewProductionConfig()
	zapConf.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if conf.Debug {
		zapConf = zap.NewDevelopmentConfig()
		zapConf.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zapConf.InitialFields = map[string]interface{}{
		"app":   conf.AppName,
		"env":   conf.Env,
		"build": conf.Build,
	}

	l, err := zapConf.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return &ZapLogger{l: l.Sugar()}
}

// Enable gates remote error reporting on implementations that have it; zap
// only logs locally, so the constructor's level always stands.
func (l *ZapLogger) Enable(bool) {}

// args alternate between free-form context values; errors are logged as-is.
func (l *ZapLogger) fields(args []interface{}) []interface{} {
	fields := make([]interface{}, 0, len(args))
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			fields = append(fields, zap.Error(err))
			continue
		}
		fields = append(fields, zap.Any("context", arg))
	}
	return fields
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) { l.l.Debugw(msg, l.fields(args)...) }
func (l *ZapLogger) Info(msg string, args ...interface{})  { l.l.Infow(msg, l.fields(args)...) }
func (l *ZapLogger) Warn(msg string, args ...interface{})  { l.l.Warnw(msg, l.fields(args)...) }
func (l *ZapLogger) Error(msg string, args ...interface{}) { l.l.Errorw(msg, l.fields(args)...) }
func (l *ZapLogger) Fatal(msg string, args ...interface{}) { l.l.Fatalw(msg, l.fields(args)...) }

func (l *ZapLogger) Sync() { _ = l.l.Sync() }
