package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/op/go-logging"

	"krypt.co/locus/common/config"
	log2 "krypt.co/locus/common/log"
	"krypt.co/locus/common/persistance"
	"krypt.co/locus/common/socket"
	"krypt.co/locus/common/transport"
	"krypt.co/locus/daemon/center"
	"krypt.co/locus/daemon/control"
)

const (
	CONFIG_ENV      = "LOCUS_CONFIG"
	CONFIG_FILENAME = "config.yaml"
)

// configPath prefers the flag, then the environment, then a config file in
// the state directory if one exists.
func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(CONFIG_ENV); env != "" {
		return env
	}
	path, err := socket.LocusDirFile(CONFIG_FILENAME)
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func useSyslog(cfg config.Config) bool {
	env := os.Getenv(config.ENV_LOG_SYSLOG)
	if env != "" {
		return env == "true"
	}
	return cfg.UseSyslog
}

var log = logging.MustGetLogger("locusd")

func main() {
	configFlag := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(configPath(*configFlag))
	if err != nil {
		fmt.Fprintln(os.Stderr, "locusd:", err)
		os.Exit(1)
	}
	log = log2.SetupLogging("locusd", log2.ParseLevel(cfg.LogLevel, logging.INFO), useSyslog(cfg))

	defer func() {
		if x := recover(); x != nil {
			log.Error(fmt.Sprintf("run time panic: %v", x))
			log.Error(string(debug.Stack()))
			panic(x)
		}
	}()

	locusDir, err := socket.LocusDir()
	if err != nil {
		log.Fatal(err)
	}

	c, err := center.NewCenter(cfg, transport.NewHTTPTransport(cfg.HTTPTimeout), persistance.FilePersister{Dir: locusDir}, log)
	if err != nil {
		log.Fatal(err)
	}
	controlServer := control.NewControlServer(c, log)

	peerListener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Fatal(err)
	}
	defer peerListener.Close()

	daemonSocket, err := socket.DaemonListen()
	if err != nil {
		log.Fatal(err)
	}
	defer daemonSocket.Close()

	go func() {
		err := controlServer.HandlePeerHTTP(peerListener)
		if err != nil {
			log.Error("peer server return:", err)
		}
	}()
	go func() {
		err := controlServer.HandleControlHTTP(daemonSocket)
		if err != nil {
			log.Error("controlServer return:", err)
		}
	}()
	go func() {
		err := c.Start()
		if err != nil {
			log.Error("start:", err)
		}
	}()

	log.Notice("locusd launched as", c.Self().String(), "listening on", cfg.ListenAddress, "and UNIX socket")

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM)
	sig, ok := <-stopSignal
	if ok {
		log.Notice("stopping with signal", sig)
	}
}
