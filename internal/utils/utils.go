package utils

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// HTTPLogger adapts a logrus logger to retryablehttp's leveled logger.
// Request chatter goes to debug.
type HTTPLogger struct {
	L logrus.FieldLogger
}

var _ retryablehttp.LeveledLogger = HTTPLogger{}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}

func (h HTTPLogger) Error(msg string, keysAndValues ...interface{}) {
	h.L.WithFields(fields(keysAndValues)).Error(msg)
}

func (h HTTPLogger) Warn(msg string, keysAndValues ...interface{}) {
	h.L.WithFields(fields(keysAndValues)).Warn(msg)
}

func (h HTTPLogger) Info(msg string, keysAndValues ...interface{}) {
	h.L.WithFields(fields(keysAndValues)).Debug(msg)
}

func (h HTTPLogger) Debug(msg string, keysAndValues ...interface{}) {
	h.L.WithFields(fields(keysAndValues)).Debug(msg)
}
