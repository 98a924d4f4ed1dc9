package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/nunchuk.go/pkg/bridge"
	"github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1"
	env "github.com/robotalks/nunchuk.go/pkg/l1/env/controller"
	"github.com/robotalks/nunchuk.go/pkg/nunchuk"
	"github.com/robotalks/nunchuk.go/pkg/nunchuk/i2c"
)

var (
	i2cBus    = 1
	bridgeDev = ""
)

func init() {
	env.SetControllerType("pad", l1.ControllerMeta{Description: "Nunchuk Pad Controller"})
	env.SetupFlags()
	nunchuk.SetupFlags()
	flag.IntVar(&i2cBus, "i2c-bus", i2cBus, "I2C bus number of /dev/i2c-N.")
	flag.StringVar(&bridgeDev, "bridge-serial", bridgeDev, "Serial device of a bus bridge, overrides -i2c-bus.")
}

func main() {
	flag.Parse()

	e := env.NewConfig().MustNewEnv()
	conf := nunchuk.NewConfig()

	loop := framework.NewLoop()
	loop.Interval = conf.Interval

	var bus nunchuk.Bus
	var busName string
	if bridgeDev != "" {
		f, err := os.OpenFile(bridgeDev, os.O_RDWR, 0)
		if err != nil {
			log.Fatalln(err)
		}
		b := bridge.NewBus(f)
		loop.AddRunnable(framework.NamedRun("bridge", b))
		bus, busName = b, bridgeDev
	} else {
		b := i2c.Open(i2cBus)
		defer b.Close()
		bus, busName = b, fmt.Sprintf("/dev/i2c-%d", i2cBus)
	}

	ctl := conf.NewController(e, nunchuk.Trace(bus), busName)
	loop.Add(e, ctl)
	loop.RunOrFail()
}
