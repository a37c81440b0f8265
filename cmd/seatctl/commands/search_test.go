package commands

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveScope(t *testing.T) {
	venues, sessions, err := resolveScope("", "")
	require.NoError(t, err)
	require.Len(t, venues, 5)
	require.Equal(t, []string{"FN", "AN"}, sessions)

	venues, sessions, err = resolveScope("tp", "")
	require.NoError(t, err)
	require.Len(t, venues, 1)
	require.Equal(t, "tp", venues[0].Code)
	require.Len(t, sessions, 2)

	// session codes are accepted case-insensitively
	venues, sessions, err = resolveScope("", "fn")
	require.NoError(t, err)
	require.Len(t, venues, 5)
	require.Equal(t, []string{"FN"}, sessions)

	venues, sessions, err = resolveScope("ub", "AN")
	require.NoError(t, err)
	require.Len(t, venues, 1)
	require.Equal(t, "ub", venues[0].Code)
	require.Equal(t, []string{"AN"}, sessions)

	_, _, err = resolveScope("nowhere", "")
	require.ErrorContains(t, err, "unknown venue code")

	_, _, err = resolveScope("", "EVENING")
	require.ErrorContains(t, err, "unknown session code")
}
