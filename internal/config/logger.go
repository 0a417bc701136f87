package config

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger 是全局共享的日志实例
var Logger = logrus.New()

// InitLogger 设置日志格式与级别，未知级别回退到 info。
func InitLogger(level string) {
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Logger.SetLevel(parsed)
}
