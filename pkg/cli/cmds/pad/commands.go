// Package pad registers pad commands in the shell.
package pad

import (
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/nunchuk.go/pkg/cli/sh"
	"github.com/robotalks/nunchuk.go/pkg/nunchuk/msgs"
)

var (
	// StateCmd exposes PadStateQuery command.
	StateCmd = ishell.Cmd{
		Name:    "pad.state",
		Aliases: []string{"ps"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.PadStateQuery{})
		}),
	}

	// WatchCmd queries pad state repeatedly.
	WatchCmd = ishell.Cmd{
		Name:    "pad.watch",
		Aliases: []string{"pw"},
		Help:    "[SECONDS]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			dur := 5 * time.Second
			if len(c.Args) > 0 {
				secs, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				dur = time.Duration(secs) * time.Second
			}
			deadline := time.Now().Add(dur)
			for time.Now().Before(deadline) {
				if err := sh.DoCommand(c, &msgs.PadStateQuery{}); err != nil {
					return
				}
				time.Sleep(200 * time.Millisecond)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&StateCmd,
		&WatchCmd,
	)
}
