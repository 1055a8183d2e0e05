package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// Init настраивает глобальный логгер: JSON в production, текст в development.
func Init(level, env string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if env == "development" {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// Silence отключает вывод (используется в тестах).
func Silence() {
	Log.SetOutput(io.Discard)
}

// Anomaly пишет запись о платёжной аномалии, которая не прерывает обработку.
func Anomaly(fields logrus.Fields, message string) {
	entry := Log.WithField("anomaly", true)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Warn(message)
}
