package util

import (
	"fmt"
)

var ErrConnectingToDaemon = fmt.Errorf("Could not connect to locusd. Make sure it is running by typing \"locusd\".")
var ErrNoLocalObject = fmt.Errorf("No object with that identifier is hosted by this center.")
