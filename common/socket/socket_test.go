package socket

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocusDirHonorsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(LOCUS_HOME_ENV, dir)

	path, err := LocusDirFile(DAEMON_SOCKET_FILENAME)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DAEMON_SOCKET_FILENAME), path)
}

func TestDaemonListenAndPing(t *testing.T) {
	t.Setenv(LOCUS_HOME_ENV, t.TempDir())
	listener, err := DaemonListen()
	require.NoError(t, err)
	defer listener.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {})
	go http.Serve(listener, mux)

	unixFile, err := LocusDirFile(DAEMON_SOCKET_FILENAME)
	require.NoError(t, err)
	assert.NoError(t, PingDaemon(unixFile))

	assert.Error(t, PingDaemon(filepath.Join(t.TempDir(), "missing.sock")))
}
