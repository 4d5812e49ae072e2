package logger

import "go.uber.org/zap"

type ZapLogger struct {
	log *zap.SugaredLogger
}

var zapLogger *ZapLogger

func NewLogger(config zap.Config) (*ZapLogger, error) {
	built, err := config.Build()
	if err != nil {
		return nil, err
	}
	// package-level helpers add two frames on top of the sugared call
	built = built.WithOptions(zap.AddCallerSkip(2))
	zapLogger = &ZapLogger{log: built.Sugar()}
	return zapLogger, nil
}

func GetLogger() *ZapLogger {
	if zapLogger == nil {
		panic("logger not initialized")
	}
	return zapLogger
}

// Named returns a child logger for one component, e.g. "scheduler" or
// "processor". Values are attached to every entry it writes. The child is
// called directly, so one caller frame fewer is skipped.
func Named(component string, values ...any) *ZapLogger {
	child := GetLogger().log.
		Desugar().
		WithOptions(zap.AddCallerSkip(-1)).
		Named(component).
		Sugar().
		With(values...)
	return &ZapLogger{log: child}
}

func (l *ZapLogger) Panic(message string, values ...any) {
	l.log.Panicw(message, values...)
}

func (l *ZapLogger) Fatal(error error, values ...any) {
	l.log.Fatalw(error.Error(), values...)
}

func (l *ZapLogger) Info(message string, values ...any) {
	l.log.Infow(message, values...)
}

func (l *ZapLogger) Warn(message string, values ...any) {
	l.log.Warnw(message, values...)
}

func (l *ZapLogger) Error(message string, values ...any) {
	l.log.Errorw(message, values...)
}

func (l *ZapLogger) Debug(message string, values ...any) {
	l.log.Debugw(message, values...)
}

func (l *ZapLogger) Printf(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

// Fatalf lets the logger stand in for goose's migration logger.
func (l *ZapLogger) Fatalf(format string, args ...interface{}) {
	l.log.Fatalf(format, args...)
}
