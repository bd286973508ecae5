package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New инициализирует логгер. Продакшн (GIN_MODE=release) пишет JSON уровня Info,
// остальные окружения - текст уровня Debug. Переменная LOG_LEVEL, если задана,
// перекрывает уровень в обоих режимах.
func New(output io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(output)

	if os.Getenv("GIN_MODE") == "release" {
		l.SetFormatter(new(logrus.JSONFormatter))
		l.SetLevel(logrus.InfoLevel)
	} else {
		l.SetFormatter(new(logrus.TextFormatter))
		l.SetLevel(logrus.DebugLevel)
	}

	if levelName := os.Getenv("LOG_LEVEL"); levelName != "" {
		if level, err := logrus.ParseLevel(levelName); err == nil {
			l.SetLevel(level)
		}
	}

	return l
}
