package session

import (
	"errors"
	"testing"

	pgwireerr "github.com/pgwire/pgwire/errors"
	"github.com/stretchr/testify/require"
)

func TestRequireReadyFailsOutsideReady(t *testing.T) {
	m := NewMachine()
	err := m.RequireReady()
	require.Error(t, err)

	var stateErr *pgwireerr.StateError
	require.True(t, errors.As(err, &stateErr))
	require.Equal(t, "Ready", stateErr.Expected)
	require.Equal(t, "New", stateErr.Actual)
}

func TestStartupAndAuthSequence(t *testing.T) {
	m := NewMachine()
	m.StartupSent()
	require.Equal(t, AwaitingAuth, m.State())

	m.AuthenticationOK()
	require.Equal(t, Authenticated, m.State())

	err := m.ReadyForQuery()
	require.NoError(t, err)
	require.Equal(t, Ready, m.State())
}

func TestBeginRequestAndReadyForQueryRoundTrip(t *testing.T) {
	m := readyMachine(t)

	require.NoError(t, m.RequireReady())
	m.BeginRequest(BusySimpleQuery)
	require.Equal(t, Busy, m.State())
	require.Equal(t, BusySimpleQuery, m.BusyKind())

	err := m.ReadyForQuery()
	require.NoError(t, err)
	require.Equal(t, Ready, m.State())
}

func TestCapturedServerErrorSurfacesAtReadyForQuery(t *testing.T) {
	m := readyMachine(t)
	m.BeginRequest(BusySimpleQuery)

	boom := errors.New("boom")
	m.CaptureServerError(boom)
	require.Equal(t, Busy, m.State(), "still draining to ReadyForQuery")

	err := m.ReadyForQuery()
	require.Equal(t, boom, err)
	require.Equal(t, Ready, m.State())
}

func TestNextQuerySucceedsAfterRecovery(t *testing.T) {
	m := readyMachine(t)
	m.BeginRequest(BusySimpleQuery)
	m.CaptureServerError(errors.New("syntax error"))
	require.Error(t, m.ReadyForQuery())

	require.NoError(t, m.RequireReady())
	m.BeginRequest(BusySimpleQuery)
	require.NoError(t, m.ReadyForQuery())
}

func TestServerErrorDuringStartupRejectsAuth(t *testing.T) {
	m := NewMachine()
	m.StartupSent()
	m.CaptureServerError(errors.New("bad password"))
	require.Equal(t, AuthRejected, m.State())
}

func TestBeginRequestPanicsOutsideReady(t *testing.T) {
	m := NewMachine()
	require.Panics(t, func() { m.BeginRequest(BusySimpleQuery) })
}

func readyMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine()
	m.StartupSent()
	m.AuthenticationOK()
	require.NoError(t, m.ReadyForQuery())
	return m
}
