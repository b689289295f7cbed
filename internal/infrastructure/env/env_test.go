package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvService_Getters(t *testing.T) {
	e := &EnvService{}

	t.Setenv("AGENT_TEST_STRING", "value")
	t.Setenv("AGENT_TEST_BOOL", "true")
	t.Setenv("AGENT_TEST_INT", "42")
	t.Setenv("AGENT_TEST_EMPTY", "")

	assert.Equal(t, "value", e.Get("AGENT_TEST_STRING"))
	assert.Equal(t, "value", e.GetWithDefault("AGENT_TEST_STRING", "other"))
	assert.Equal(t, "other", e.GetWithDefault("AGENT_TEST_UNSET", "other"))
	assert.Equal(t, "", e.GetWithDefault("AGENT_TEST_EMPTY", "other"))

	_, ok := e.Lookup("AGENT_TEST_EMPTY")
	assert.True(t, ok)
	_, ok = e.Lookup("AGENT_TEST_UNSET")
	assert.False(t, ok)

	b, err := e.GetBool("AGENT_TEST_BOOL", false)
	require.NoError(t, err)
	assert.True(t, b)

	b, err = e.GetBool("AGENT_TEST_UNSET", true)
	require.NoError(t, err)
	assert.True(t, b)

	n, err := e.GetInt("AGENT_TEST_INT", 1)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = e.GetInt("AGENT_TEST_EMPTY", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestEnvService_GettersRejectMalformedValues(t *testing.T) {
	e := &EnvService{}

	t.Setenv("AGENT_TEST_BAD_BOOL", "maybe")
	t.Setenv("AGENT_TEST_BAD_INT", "ten")

	b, err := e.GetBool("AGENT_TEST_BAD_BOOL", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AGENT_TEST_BAD_BOOL")
	assert.True(t, b)

	n, err := e.GetInt("AGENT_TEST_BAD_INT", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ten"`)
	assert.Equal(t, 3, n)
}

func TestEnvService_GetDuration(t *testing.T) {
	e := &EnvService{}

	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"milliseconds", "3000", 3 * time.Second, false},
		{"duration string", "1500ms", 1500 * time.Millisecond, false},
		{"seconds", "2s", 2 * time.Second, false},
		{"invalid", "soon", 5 * time.Second, true},
		{"empty", "", 5 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AGENT_TEST_DURATION", tt.value)
			got, err := e.GetDuration("AGENT_TEST_DURATION", 5*time.Second)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
