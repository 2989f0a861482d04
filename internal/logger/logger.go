package logger

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var defaultLogger = &logrus.Logger{
	Out:       os.Stdout,
	Formatter: new(logrus.JSONFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.InfoLevel,
}

// New builds a logger for the given level ("debug", "info", ...) and format ("json" or "text").
func New(level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (allowed: json, text)", format)
	}

	return l, nil
}

// SetDefault replaces the package-level logger.
func SetDefault(l *logrus.Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the package-level logger.
func Default() *logrus.Logger {
	return defaultLogger
}

// WithFields starts an entry on the package-level logger.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return defaultLogger.WithFields(fields)
}

// Debug logs message at Debug level.
func Debug(msg string) {
	defaultLogger.Debugln(msg)
}

// Info logs message at Info level.
func Info(msg string) {
	defaultLogger.Infoln(msg)
}

// Warn logs message at Warn level.
func Warn(msg string) {
	defaultLogger.Warnln(msg)
}

// Error logs errors at Error level.
func Error(err error) {
	defaultLogger.Errorln(err)
}

// Fatal logs errors at Fatal level.
func Fatal(err error) {
	defaultLogger.Fatalln(err)
}

var secretParam = regexp.MustCompile(`(?i)([?&](?:key|appid|apikey)=)[^&\s"]+`)

// Redact masks credential query parameters in s.
func Redact(s string) string {
	return secretParam.ReplaceAllString(s, "${1}REDACTED")
}

// stdlogWriter forwards standard library log lines to the package-level logger.
type stdlogWriter struct{}

func (stdlogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	defaultLogger.WithField("source", "stdlog").Warn(Redact(msg))
	return len(p), nil
}

// CaptureStdLog routes the standard library logger through logrus with credentials
// redacted. Third-party packages that call log.Println end up here. The returned func
// restores the previous output.
func CaptureStdLog() func() {
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetFlags(0)
	log.SetOutput(stdlogWriter{})
	return func() {
		log.SetFlags(prevFlags)
		log.SetOutput(prevOut)
	}
}
