package config

import (
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krypt.co/locus/common/util"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 3, c.Dispatch.Attempts)
	assert.Equal(t, 3, c.Proxy.Attempts)
	assert.Equal(t, time.Duration(0), c.Proxy.Delay)
	assert.Equal(t, c.ListenAddress, c.Advertise())
}

func TestAdvertiseWildcard(t *testing.T) {
	c := DefaultConfig()
	c.ListenAddress = "0.0.0.0:7400"
	assert.Equal(t, net.JoinHostPort(util.MachineName(), "7400"), c.Advertise())
	c.ListenAddress = ":7400"
	assert.Equal(t, net.JoinHostPort(util.MachineName(), "7400"), c.Advertise())
	c.ListenAddress = "/tmp/locusd.sock"
	assert.Equal(t, "/tmp/locusd.sock", c.Advertise())
}

func TestLoadYAML(t *testing.T) {
	dir, err := ioutil.TempDir("", "locus-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "locusd.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
listen_address: 0.0.0.0:7400
advertise_address: host-a:7400
bootstrap_peers:
  - host-b:7400
proxy:
  attempts: 5
  delay: 250ms
location_cache_size: 1024
`), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7400", c.ListenAddress)
	assert.Equal(t, "host-a:7400", c.Advertise())
	assert.Equal(t, []string{"host-b:7400"}, c.BootstrapPeers)
	assert.Equal(t, 5, c.Proxy.Attempts)
	assert.Equal(t, 250*time.Millisecond, c.Proxy.Delay)
	assert.Equal(t, 3, c.Dispatch.Attempts)
	assert.Equal(t, 1024, c.LocationCacheSize)
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		ENV_PEERS:          "a:1, b:2,,",
		ENV_DISPATCH_RETRY: "7",
		ENV_PROXY_DELAY:    "10ms",
		ENV_LOG_SYSLOG:     "true",
		ENV_BROADCAST_RATE: "2.5",
	}
	c := DefaultConfig()
	require.NoError(t, c.applyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, []string{"a:1", "b:2"}, c.BootstrapPeers)
	assert.Equal(t, 7, c.Dispatch.Attempts)
	assert.Equal(t, 10*time.Millisecond, c.Proxy.Delay)
	assert.True(t, c.UseSyslog)
	assert.Equal(t, 2.5, c.BroadcastRate)

	bad := DefaultConfig()
	assert.Error(t, bad.applyEnv(func(k string) string {
		if k == ENV_PROXY_RETRY {
			return "three"
		}
		return ""
	}))
}

func TestValidateRejectsZeroAttempts(t *testing.T) {
	c := DefaultConfig()
	c.Proxy.Attempts = 0
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.Dispatch.Delay = -time.Second
	assert.Error(t, c.Validate())
}
