// Package logging is a thin facade over logrus with the level/field call
// shape the rest of the pipeline uses.
package logging

import (
	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Setup configures level ("info", "debug", ...) and format ("json" or
// "text"). Unknown values keep the defaults.
func Setup(level, format string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func Info(msg string, fields map[string]any)  { logger.WithFields(logrus.Fields(fields)).Info(msg) }
func Warn(msg string, fields map[string]any)  { logger.WithFields(logrus.Fields(fields)).Warn(msg) }
func Error(msg string, fields map[string]any) { logger.WithFields(logrus.Fields(fields)).Error(msg) }
