package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	Log      *logrus.Logger
	initOnce sync.Once
)

func Init() {
	initOnce.Do(func() {
		Log = logrus.New()
		Log.SetOutput(os.Stdout)
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})

		level := os.Getenv("LOG_LEVEL")
		if level == "" {
			level = "info"
		}

		logLevel, err := logrus.ParseLevel(level)
		if err != nil {
			logLevel = logrus.InfoLevel
		}
		Log.SetLevel(logLevel)
	})
}

// Get returns the process logger, initialising it on first use so library
// code and tests never hit a nil logger.
func Get() *logrus.Logger {
	Init()
	return Log
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Get().WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}
