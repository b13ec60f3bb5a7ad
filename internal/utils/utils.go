package utils

import (
	"strings"

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

// DefaultDBPath is used when no --dbpath flag is given.
const DefaultDBPath = "shopwatch.sqlite"

// ResolveDBPath falls back to DefaultDBPath for an empty flag value.
func ResolveDBPath(dbPath string) string {
	if dbPath == "" {
		return DefaultDBPath
	}
	return dbPath
}
