//go:build windows
// +build windows

package main

import (
	"os"
	"os/exec"

	"github.com/urfave/cli"
	"golang.org/x/sys/windows"

	. "krypt.co/locus/common/socket"
)

func initTerminal() {
	var m uint32
	windows.GetConsoleMode(windows.Stdout, &m)
	windows.SetConsoleMode(windows.Stdout, m|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
}

func startLocusd() (err error) {
	return exec.Command("locusd.exe").Start()
}

func restartCommandOptions(c *cli.Context, isUserInitiated bool) (err error) {
	KillLocusd()
	err = startLocusd()
	if err != nil {
		return
	}

	if isUserInitiated {
		PrintErr(os.Stderr, "Restarted locus daemon.")
	}
	return
}
