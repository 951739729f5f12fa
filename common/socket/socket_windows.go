//go:build windows
// +build windows

package socket

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"time"

	"krypt.co/locus/common/util"
)

func DaemonDial(unixFile string) (err error) {
	if !IsLocusdRunning() {
		os.Stderr.WriteString(util.Yellow("locus ▶ Restarting locusd...\r\n"))
		_ = exec.Command("cmd.exe", "/C", "start", "/b", `locusd.exe`).Start()
		<-time.After(1 * time.Second)
	}
	err = PingDaemon(unixFile)
	if err != nil {
		err = fmt.Errorf("Failed to connect to locusd. Please make sure it is running by typing \"locus restart\".")
	}
	return
}

func KillLocusd() {
	_ = exec.Command("taskkill", "/F", "/FI", `USERNAME eq `+User(), "/IM", "locusd.exe").Run()
	<-time.After(1 * time.Second)
}

func IsLocusdRunning() bool {
	cmd := exec.Command("tasklist", "/FI", `USERNAME eq `+User(), "/FI", `IMAGENAME eq locusd.exe`)
	if ret, err := cmd.CombinedOutput(); err == nil {
		return bytes.Contains(ret, []byte("locusd.exe"))
	}
	return false
}
