package config

import (
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"krypt.co/locus/common/util"
)

type RetryPolicy struct {
	//	Total number of attempts, including the first.
	Attempts int           `json:"attempts" yaml:"attempts"`
	Delay    time.Duration `json:"delay" yaml:"delay"`
}

type Config struct {
	//	TCP address peers reach this center on.
	ListenAddress string `json:"listen_address" yaml:"listen_address"`
	//	Address announced to peers; defaults to ListenAddress.
	AdvertiseAddress string `json:"advertise_address" yaml:"advertise_address"`
	//	Addresses of centers to introduce ourselves to on start.
	BootstrapPeers []string `json:"bootstrap_peers" yaml:"bootstrap_peers"`

	//	Forwarding from a center to the cached host (executeMethodOut).
	Dispatch RetryPolicy `json:"dispatch" yaml:"dispatch"`
	//	Forwarding from a Proxy to its Reference.
	Proxy RetryPolicy `json:"proxy" yaml:"proxy"`

	//	Zero means unbounded.
	LocationCacheSize int `json:"location_cache_size" yaml:"location_cache_size"`
	MethodTableSize   int `json:"method_table_size" yaml:"method_table_size"`

	HTTPTimeout time.Duration `json:"http_timeout" yaml:"http_timeout"`

	//	Location updates sent per second across all peers when announcing
	//	registrations. Zero means unpaced.
	BroadcastRate float64 `json:"broadcast_rate" yaml:"broadcast_rate"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	UseSyslog bool   `json:"use_syslog" yaml:"use_syslog"`
}

const DEFAULT_RETRY_ATTEMPTS = 3

func DefaultConfig() Config {
	return Config{
		ListenAddress: "127.0.0.1:7300",
		Dispatch: RetryPolicy{
			Attempts: DEFAULT_RETRY_ATTEMPTS,
		},
		Proxy: RetryPolicy{
			Attempts: DEFAULT_RETRY_ATTEMPTS,
		},
		MethodTableSize: 512,
		HTTPTimeout:     10 * time.Second,
		LogLevel:        "INFO",
		UseSyslog:       false,
	}
}

// Advertise is the address this center announces to its peers. A
// wildcard listen host is replaced by the machine's name.
func (c Config) Advertise() string {
	if c.AdvertiseAddress != "" {
		return c.AdvertiseAddress
	}
	host, port, err := net.SplitHostPort(c.ListenAddress)
	if err != nil {
		return c.ListenAddress
	}
	switch host {
	case "", "0.0.0.0", "::":
		return net.JoinHostPort(util.MachineName(), port)
	}
	return c.ListenAddress
}

func (c Config) Validate() (err error) {
	if c.Dispatch.Attempts < 1 {
		err = fmt.Errorf("dispatch.attempts must be at least 1, got %d", c.Dispatch.Attempts)
		return
	}
	if c.Proxy.Attempts < 1 {
		err = fmt.Errorf("proxy.attempts must be at least 1, got %d", c.Proxy.Attempts)
		return
	}
	if c.Dispatch.Delay < 0 || c.Proxy.Delay < 0 {
		err = fmt.Errorf("retry delays must not be negative")
		return
	}
	if c.BroadcastRate < 0 {
		err = fmt.Errorf("broadcast_rate must not be negative")
		return
	}
	if c.LocationCacheSize < 0 || c.MethodTableSize < 0 {
		err = fmt.Errorf("cache sizes must not be negative")
		return
	}
	return
}

// Load reads a YAML config file on top of the defaults. An empty path
// yields the defaults. Environment overrides are applied last.
func Load(path string) (c Config, err error) {
	c = DefaultConfig()
	if path != "" {
		var configBytes []byte
		configBytes, err = ioutil.ReadFile(path)
		if err != nil {
			return
		}
		err = yaml.Unmarshal(configBytes, &c)
		if err != nil {
			err = fmt.Errorf("parsing %s: %v", path, err)
			return
		}
	}
	err = c.applyEnv(os.Getenv)
	if err != nil {
		return
	}
	err = c.Validate()
	return
}

const (
	ENV_LISTEN         = "LOCUS_LISTEN"
	ENV_ADVERTISE      = "LOCUS_ADVERTISE"
	ENV_PEERS          = "LOCUS_PEERS"
	ENV_DISPATCH_RETRY = "LOCUS_DISPATCH_ATTEMPTS"
	ENV_PROXY_RETRY    = "LOCUS_PROXY_ATTEMPTS"
	ENV_PROXY_DELAY    = "LOCUS_PROXY_DELAY"
	ENV_LOG_LEVEL      = "LOCUS_LOG_LEVEL"
	ENV_LOG_SYSLOG     = "LOCUS_LOG_SYSLOG"
	ENV_LOCATION_CACHE = "LOCUS_LOCATION_CACHE_SIZE"
	ENV_BROADCAST_RATE = "LOCUS_BROADCAST_RATE"
)

func (c *Config) applyEnv(getenv func(string) string) (err error) {
	if v := getenv(ENV_LISTEN); v != "" {
		c.ListenAddress = v
	}
	if v := getenv(ENV_ADVERTISE); v != "" {
		c.AdvertiseAddress = v
	}
	if v := getenv(ENV_PEERS); v != "" {
		c.BootstrapPeers = nil
		for _, peer := range strings.Split(v, ",") {
			if peer = strings.TrimSpace(peer); peer != "" {
				c.BootstrapPeers = append(c.BootstrapPeers, peer)
			}
		}
	}
	if v := getenv(ENV_DISPATCH_RETRY); v != "" {
		if c.Dispatch.Attempts, err = strconv.Atoi(v); err != nil {
			err = fmt.Errorf("%s: %v", ENV_DISPATCH_RETRY, err)
			return
		}
	}
	if v := getenv(ENV_PROXY_RETRY); v != "" {
		if c.Proxy.Attempts, err = strconv.Atoi(v); err != nil {
			err = fmt.Errorf("%s: %v", ENV_PROXY_RETRY, err)
			return
		}
	}
	if v := getenv(ENV_PROXY_DELAY); v != "" {
		if c.Proxy.Delay, err = time.ParseDuration(v); err != nil {
			err = fmt.Errorf("%s: %v", ENV_PROXY_DELAY, err)
			return
		}
	}
	if v := getenv(ENV_LOCATION_CACHE); v != "" {
		if c.LocationCacheSize, err = strconv.Atoi(v); err != nil {
			err = fmt.Errorf("%s: %v", ENV_LOCATION_CACHE, err)
			return
		}
	}
	if v := getenv(ENV_BROADCAST_RATE); v != "" {
		if c.BroadcastRate, err = strconv.ParseFloat(v, 64); err != nil {
			err = fmt.Errorf("%s: %v", ENV_BROADCAST_RATE, err)
			return
		}
	}
	if v := getenv(ENV_LOG_LEVEL); v != "" {
		c.LogLevel = v
	}
	if v := getenv(ENV_LOG_SYSLOG); v != "" {
		c.UseSyslog = v == "true"
	}
	return
}
