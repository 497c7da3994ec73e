package logging

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingWriter appends to path, rolling it over at maxMB megabytes and
// keeping at most backups old files (compressed).
func RotatingWriter(path string, maxMB, backups int) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxMB,
		MaxBackups: backups,
		Compress:   true,
	}
}
