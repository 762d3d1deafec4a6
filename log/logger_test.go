package log

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/medsync-health/medsync-app/conf"
	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// TestLoggers verifies that all of our loggers are set up with the expected
// fields and write to the expected files.
func TestLoggers(t *testing.T) {
	env := uuid.New()
	assert.NoError(t, conf.SetEnv(t, "ENVIRONMENT", env))
	t.Cleanup(func() { _ = conf.UnsetEnv(t, "ENVIRONMENT") })

	tests := []struct {
		logEnv string
		// Use a supplier since the logger's reference is replaced every
		// time SetupLoggers runs.
		logSupplier func() logrus.FieldLogger
	}{
		{"MEDSYNC_ERROR_LOG", func() logrus.FieldLogger { return API }},
		{"MEDSYNC_FHIR_LOG", func() logrus.FieldLogger { return FHIR }},
		{"MEDSYNC_OFFLINE_LOG", func() logrus.FieldLogger { return Offline }},
	}
	for _, tt := range tests {
		t.Run(tt.logEnv, func(t *testing.T) {
			logFile, err := os.CreateTemp("", "*")
			assert.NoError(t, err)
			old := conf.GetEnv(tt.logEnv)
			t.Cleanup(func() {
				assert.NoError(t, os.Remove(logFile.Name()))
				assert.NoError(t, conf.SetEnv(t, tt.logEnv, old))
				SetupLoggers()
			})

			assert.NoError(t, conf.SetEnv(t, tt.logEnv, logFile.Name()))

			// Refresh the logger to reference the new configs
			SetupLoggers()

			msg := uuid.New()
			tt.logSupplier().Info(msg)

			data, err := os.ReadFile(logFile.Name())
			assert.NoError(t, err)

			var entry map[string]interface{}
			assert.NoError(t, json.Unmarshal(data, &entry))
			assert.Equal(t, msg, entry["msg"])
			assert.Equal(t, "medsync", entry["application"])
			assert.Equal(t, env, entry["environment"])
		})
	}
}
