package main

import (
	"github.com/robotalks/nunchuk.go/pkg/cli/sh"
	env "github.com/robotalks/nunchuk.go/pkg/l1/env/connector"

	_ "github.com/robotalks/nunchuk.go/pkg/cli/cmds/pad"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
