package conf

/*
   conf wraps viper for the medsync app. Configuration is read from an env
   file ("local.env") when one can be found, and falls back to the process
   environment for any key the file does not carry.

   Assumptions:
   1. The configuration file is an env file.
   2. Once loaded, the file's contents stay immutable for the uptime of the
      application (tests being the exception, via SetEnv/UnsetEnv).
*/

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// An instance of the viper struct holding the loaded configuration. Only
// made accessible through GetEnv, LookupEnv, SetEnv and UnsetEnv.
var envVars *viper.Viper

// Tracks whether a config file was found and loaded.
const (
	configgood    uint8 = 0
	configbad     uint8 = 1
	noconfigfound uint8 = 2
)

var state = configgood

// setup points viper at dir and reads local.env from it.
func setup(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("local")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		state = configbad
	}
	return v
}

func init() {
	// Possible config file locations: an operator-supplied directory first,
	// then the packaged default.
	locations := []string{
		os.Getenv("MEDSYNC_CONF_DIR"),
		"/etc/medsync",
	}

	if ok, loc := findEnv(locations); ok {
		envVars = setup(loc)
	} else {
		state = noconfigfound
	}
}

// findEnv walks the candidate directories and returns the first one holding
// a local.env file.
func findEnv(locations []string) (bool, string) {
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		if _, err := os.Stat(loc + "/local.env"); err == nil {
			return true, loc
		}
	}
	return false, ""
}

// GetEnv retrieves the value stored in conf. If it does not exist, the
// empty string is returned.
func GetEnv(key string) string {
	if state == configgood {
		value := envVars.GetString(key)

		// Even with a good config file, keys it does not track may live in
		// the environment. Copy them into conf to avoid repeat OS calls.
		if value == "" {
			var ok bool
			if value, ok = os.LookupEnv(key); ok {
				envVars.Set(key, value)
			}
		}
		return value
	}

	return os.Getenv(key)
}

// LookupEnv augments os.LookupEnv to consult the loaded config file first.
func LookupEnv(key string) (string, bool) {
	if state == configgood {
		if value := envVars.Get(key); value != nil && value != "" {
			return value.(string), true
		}
		if v, exists := os.LookupEnv(key); exists {
			envVars.Set(key, v)
			return v, true
		}
		return "", false
	}

	return os.LookupEnv(key)
}

// SetEnv adds a key value into conf. The protect parameter exists to limit
// use to this package and tests.
func SetEnv(protect *testing.T, key string, value string) error {
	if state == configgood {
		envVars.Set(key, value)
		return nil
	}
	return os.Setenv(key, value)
}

// UnsetEnv "unsets" a variable. Like SetEnv, only for use in tests.
func UnsetEnv(protect *testing.T, key string) error {
	if state == configgood {
		envVars.Set(key, "")
	}
	// Clear the environment copy too; GetEnv would otherwise re-import it.
	return os.Unsetenv(key)
}
