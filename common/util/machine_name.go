package util

import (
	"os"
)

func MachineName() (name string) {
	name, _ = os.Hostname()
	if name == "" {
		name = "localhost"
	}
	return
}
