package control

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"

	"krypt.co/locus/common/config"
	"krypt.co/locus/common/log"
	"krypt.co/locus/common/persistance"
	"krypt.co/locus/common/transport"
	"krypt.co/locus/common/util"
	"krypt.co/locus/daemon/center"
)

func NewTestCenter(t *testing.T, t2 transport.Transport, address string) *center.Center {
	cfg := config.DefaultConfig()
	cfg.ListenAddress = address
	c, err := center.NewCenter(cfg, t2, &persistance.MemoryPersister{}, log.SetupLogging("test", logging.INFO, false))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// NewLocalUnixServer serves a fresh center's admin surface on a unix
// socket in the temp dir. The center reaches peers over HTTP.
func NewLocalUnixServer(t *testing.T) (c *center.Center, cs *ControlServer, unixFile string) {
	randFile, err := util.Rand128Base62()
	if err != nil {
		t.Fatal(err)
	}
	unixFile = filepath.Join(os.TempDir(), randFile)

	c = NewTestCenter(t, transport.NewHTTPTransport(config.DefaultConfig().HTTPTimeout), unixFile)
	cs = NewControlServer(c, log.SetupLogging("test", logging.INFO, false))

	l, err := net.Listen("unix", unixFile)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		l.Close()
		os.Remove(unixFile)
	})

	go func() {
		cs.HandleControlHTTP(l)
	}()
	return
}
