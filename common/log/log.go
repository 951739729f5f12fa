package log

import (
	"os"

	"github.com/op/go-logging"
)

var Log = logging.MustGetLogger("")

var syslogFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.6s} ▶ %{message}`,
)
var stderrFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module} ▶ %{message}%{color:reset}`,
)

const LOG_LEVEL_ENV = "LOCUS_LOG_LEVEL"

// ParseLevel maps a level name to a go-logging level, falling back to def
// when the name is empty or unrecognized.
func ParseLevel(name string, def logging.Level) logging.Level {
	if name == "" {
		return def
	}
	level, err := logging.LogLevel(name)
	if err != nil {
		return def
	}
	return level
}

func SetupLogging(prefix string, defaultLogLevel logging.Level, trySyslog bool) *logging.Logger {
	var backend logging.Backend
	if trySyslog {
		backend = GetSyslogBackend(prefix)
	}
	if backend == nil {
		backend = logging.NewLogBackend(os.Stderr, prefix+" ", 0)
		logging.SetFormatter(stderrFormat)
	}
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(ParseLevel(os.Getenv(LOG_LEVEL_ENV), defaultLogLevel), "")

	logging.SetBackend(leveled)
	return logging.MustGetLogger(prefix)
}
