package conf

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetGetUnsetEnv(t *testing.T) {
	key := "MEDSYNC_CONF_TEST_KEY"

	assert.NoError(t, SetEnv(t, key, "somevalue"))
	assert.Equal(t, "somevalue", GetEnv(key))

	assert.NoError(t, UnsetEnv(t, key))
	assert.Equal(t, "", GetEnv(key))
	assert.Equal(t, "", os.Getenv(key))
}

func TestGetEnvFallsBackToEnvironment(t *testing.T) {
	key := "MEDSYNC_CONF_TEST_EVONLY"
	os.Setenv(key, "from-environment")
	t.Cleanup(func() { _ = UnsetEnv(t, key) })

	assert.Equal(t, "from-environment", GetEnv(key))
}

func TestLookupEnv(t *testing.T) {
	key := "MEDSYNC_CONF_TEST_LOOKUP"

	_, ok := LookupEnv("MEDSYNC_CONF_TEST_DOESNOTEXIST")
	assert.False(t, ok)

	assert.NoError(t, SetEnv(t, key, "present"))
	t.Cleanup(func() { _ = UnsetEnv(t, key) })

	got, ok := LookupEnv(key)
	assert.True(t, ok)
	assert.Equal(t, "present", got)
}

func Test_setup(t *testing.T) {
	v := setup("./test")
	assert.Equal(t, "true", v.Get("TEST"))
}

func Test_findEnv(t *testing.T) {
	tests := []struct {
		name      string
		locations []string
		want      bool
		wantLoc   string
	}{
		{"first location hit", []string{"./test", "./FAKE"}, true, "./test"},
		{"second location hit", []string{"./FAKE", "./test"}, true, "./test"},
		{"no locations hit", []string{"./FAKE", "./ALSOFAKE"}, false, ""},
		{"empty entries skipped", []string{"", "./test"}, true, "./test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, loc := findEnv(tt.locations)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLoc, loc)
		})
	}
}
