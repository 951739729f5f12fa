package socket

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"time"
)

// Overrides the state directory, mostly so tests and several daemons on
// one machine do not share a socket.
const LOCUS_HOME_ENV = "LOCUS_HOME"

func User() string {
	user := os.Getenv("USER")
	if user == "" {
		whoami, err := exec.Command("whoami").Output()
		if err == nil {
			user = strings.TrimSpace(string(whoami))
			os.Setenv("USER", user)
		}
	}
	return user
}

func HomeDir() (home string) {
	user, err := user.Lookup(User())
	if err == nil && user != nil {
		home = user.HomeDir
	} else {
		home = os.Getenv("HOME")
	}
	return
}

func LocusDir() (locusPath string, err error) {
	locusPath = os.Getenv(LOCUS_HOME_ENV)
	if locusPath == "" {
		locusPath = filepath.Join(HomeDir(), ".locus")
	}
	err = os.MkdirAll(locusPath, os.FileMode(0700))
	return
}

func LocusDirFile(file string) (fullPath string, err error) {
	locusPath, err := LocusDir()
	if err != nil {
		return
	}
	fullPath = filepath.Join(locusPath, file)
	return
}

const DAEMON_SOCKET_FILENAME = "locusd.sock"

// DaemonListen opens the admin socket. Only processes able to reach the
// state directory can talk to it.
func DaemonListen() (listener net.Listener, err error) {
	socketPath, err := LocusDirFile(DAEMON_SOCKET_FILENAME)
	if err != nil {
		return
	}
	//	delete UNIX socket in case daemon was not killed cleanly
	_ = os.Remove(socketPath)
	listener, err = net.Listen("unix", socketPath)
	return
}

func PingDaemon(unixFile string) (err error) {
	conn, err := net.Dial("unix", unixFile)
	if err != nil {
		return
	}
	defer conn.Close()

	pingRequest, err := http.NewRequest("GET", "/ping", nil)
	if err != nil {
		return
	}
	err = pingRequest.Write(conn)
	if err != nil {
		return
	}
	responseReader := bufio.NewReader(conn)
	pingResponse, err := http.ReadResponse(responseReader, pingRequest)
	if err != nil {
		err = fmt.Errorf("Daemon Read error: %s", err.Error())
		return
	}
	defer pingResponse.Body.Close()
	if pingResponse.StatusCode != http.StatusOK {
		err = fmt.Errorf("Daemon ping returned %d", pingResponse.StatusCode)
	}
	return
}

// EnsureDaemon checks that locusd answers on unixFile, starting it if it
// is not running.
func EnsureDaemon(unixFile string) (err error) {
	done := make(chan error, 1)
	go func() {
		done <- DaemonDial(unixFile)
	}()

	select {
	case <-time.After(5 * time.Second):
		err = fmt.Errorf("ping timed out")
	case err = <-done:
	}
	return
}

func DaemonSocketOrFatal() (unixFile string) {
	unixFile, err := LocusDirFile(DAEMON_SOCKET_FILENAME)
	if err != nil {
		log.Fatal("Could not open connection to daemon. Make sure it is running by typing \"locus restart\".")
	}
	return
}
