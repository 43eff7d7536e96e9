package log

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

func init() {
	zap.ReplaceGlobals(zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(config()),
		zapcore.Lock(os.Stdout),
		logLevel,
	)))
}

func config() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// Debug logs a debug message with alternating key/value pairs.
func Debug(msg string, kv ...interface{}) {
	zap.S().Debugw(msg, kv...)
}

// Info logs an info message with alternating key/value pairs.
func Info(msg string, kv ...interface{}) {
	zap.S().Infow(msg, kv...)
}

// Warn logs a warning message with alternating key/value pairs.
func Warn(msg string, kv ...interface{}) {
	zap.S().Warnw(msg, kv...)
}

// Error logs an error message with alternating key/value pairs.
func Error(msg string, kv ...interface{}) {
	zap.S().Errorw(msg, kv...)
}

// Panic logs a message and then panics.
func Panic(msg string, kv ...interface{}) {
	zap.S().Panicw(msg, kv...)
}

// Fatal logs a message and then exits the process.
func Fatal(msg string, kv ...interface{}) {
	zap.S().Fatalw(msg, kv...)
}

// SetLevel sets the minimum enabled level. Accepted values are
// debug, info, warn, error, dpanic, panic and fatal (case-insensitive).
func SetLevel(level string) error {
	l, err := zapcore.ParseLevel(Clean(level))
	if err != nil {
		return err
	}
	logLevel.SetLevel(l)
	return nil
}

// GetLevel returns the current minimum enabled level.
func GetLevel() zapcore.Level {
	return logLevel.Level()
}

// Clean normalizes free-form input to lowercase without surrounding space.
func Clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
