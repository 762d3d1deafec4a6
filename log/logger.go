package log

import (
	"os"
	"path/filepath"

	"github.com/medsync-health/medsync-app/conf"
	"github.com/sirupsen/logrus"
)

var (
	API     logrus.FieldLogger
	FHIR    logrus.FieldLogger
	Offline logrus.FieldLogger
)

func init() {
	SetupLoggers()
}

// SetupLoggers (re)builds the package loggers from the current conf values.
// Exposed so tests can point log output at temp files.
func SetupLoggers() {
	env := conf.GetEnv("ENVIRONMENT")

	API = Logger(logrus.New(), conf.GetEnv("MEDSYNC_ERROR_LOG"), "medsync", env)
	FHIR = Logger(logrus.New(), conf.GetEnv("MEDSYNC_FHIR_LOG"), "medsync", env)
	Offline = Logger(logrus.New(), conf.GetEnv("MEDSYNC_OFFLINE_LOG"), "medsync", env)
}

func Logger(logger *logrus.Logger, outputFile string,
	application, environment string) logrus.FieldLogger {

	logger.SetFormatter(&logrus.JSONFormatter{})
	if outputFile != "" {
		if file, err := os.OpenFile(filepath.Clean(outputFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640); err == nil {
			logger.SetOutput(file)
		} else {
			logger.Infof("Failed to open output file %s. Will use stderr. %s",
				outputFile, err.Error())
		}
	}

	return logger.WithFields(logrus.Fields{
		"application": application,
		"environment": environment})
}
