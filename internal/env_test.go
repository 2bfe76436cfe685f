package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEnvDefaults(t *testing.T) {
	require.NoError(t, ValidateEnv())
	require.NotEmpty(t, Host)
	require.NotZero(t, Port)
	require.Greater(t, JogFeed, 0.0)
	require.Greater(t, JogStep, 0.0)
	require.Greater(t, ReportMS, 0)
}

func TestValidateEnvRejectsBadValues(t *testing.T) {
	restore := portRaw
	portRaw = "notaport"
	require.Error(t, ValidateEnv())
	portRaw = "0"
	require.Error(t, ValidateEnv())
	portRaw = restore

	restore = jogFeedRaw
	jogFeedRaw = "-5"
	require.Error(t, ValidateEnv())
	jogFeedRaw = restore

	require.NoError(t, ValidateEnv())
}
