package configs

import (
	log "github.com/sirupsen/logrus"
)

// ConfigureLogger sets the level and format of the standard logrus logger.
// An unknown level falls back to info.
func ConfigureLogger(logLevel string) {
	log.SetFormatter(&log.JSONFormatter{
		FieldMap: log.FieldMap{
			log.FieldKeyTime:  "time",
			log.FieldKeyLevel: "level",
			log.FieldKeyMsg:   "msg",
		},
	})

	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		log.WithFields(log.Fields{"level": logLevel}).Warn("Unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
