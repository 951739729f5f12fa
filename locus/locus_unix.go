//go:build !windows
// +build !windows

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/urfave/cli"

	. "krypt.co/locus/common/socket"
	. "krypt.co/locus/common/util"
)

func initTerminal() {}

func startLocusd() (err error) {
	err = exec.Command("nohup", "locusd").Start()
	if err != nil {
		err = errors.New(Red("locus ▶ Error starting locusd: " + err.Error()))
		PrintErr(os.Stderr, "%s", err.Error())
	}
	return
}

func restartCommandOptions(c *cli.Context, isUserInitiated bool) (err error) {
	KillLocusd()
	err = startLocusd()
	if err != nil {
		return
	}
	<-time.After(time.Second)

	if isUserInitiated {
		fmt.Println("Restarted locus daemon.")
	}
	return
}
