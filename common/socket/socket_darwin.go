package socket

import (
	"fmt"
	"os/exec"
	"time"
)

// locusd is kept alive by launchd on darwin, so dialing never starts it.
func DaemonDial(unixFile string) (err error) {
	err = PingDaemon(unixFile)
	if err != nil {
		err = fmt.Errorf("Failed to connect to locusd. Please make sure it is running by typing \"locus restart\".")
	}
	return
}

func KillLocusd() {
	exec.Command("pkill", "-U", User(), "-x", "locusd").Run()
	<-time.After(1 * time.Second)
}

func IsLocusdRunning() bool {
	err := exec.Command("pgrep", "-U", User(), "-x", "locusd").Run()
	return nil == err
}
