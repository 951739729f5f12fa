//go:build !darwin && !windows
// +build !darwin,!windows

package socket

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"krypt.co/locus/common/util"
)

func DaemonDial(unixFile string) (err error) {
	if !IsLocusdRunning() {
		os.Stderr.WriteString(util.Yellow("locus ▶ Restarting locusd...\r\n"))
		exec.Command("nohup", "locusd").Start()
		<-time.After(1 * time.Second)
	}
	err = PingDaemon(unixFile)
	if err != nil {
		//	restart then try again
		os.Stderr.WriteString(util.Yellow("locus ▶ Restarting locusd...\r\n"))
		KillLocusd()
		exec.Command("nohup", "locusd").Start()
		<-time.After(1 * time.Second)
		err = PingDaemon(unixFile)
	}
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
