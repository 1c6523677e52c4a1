package editor

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var logEntry atomic.Pointer[logrus.Entry]

func init() {
	logEntry.Store(logrus.WithField("component", "editor"))
}

// SetLogger 替换编辑器核心使用的日志入口，传入 nil 恢复为标准 logrus 实例。
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	logEntry.Store(l.WithField("component", "editor"))
}

func logger() *logrus.Entry {
	return logEntry.Load()
}
