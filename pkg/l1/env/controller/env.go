// Package controller assembles the runtime environment shared by
// device controller daemons: config defaults, flags, and the
// registrars the controller publishes through.
package controller

import (
	"flag"
	"fmt"
	"log"
	"os"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm/direct"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/nunchuk.go/pkg/l1/env"
)

// Config provides common options to setup an env for device controllers.
type Config struct {
	Info l1.ControllerInfo

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// ListenTCP is a TCP address for direct connections, empty to
	// disable.
	ListenTCP string
	// ListenWS is a websocket listen address, empty to disable.
	ListenWS string
}

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/pads/",
}

func init() {
	if val := os.Getenv("PAD_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	defaultConfig.Info.Ref.ID = env.MachineID()
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// SetControllerType should be called in init with basic info about the controller.
func SetControllerType(typ string, meta l1.ControllerMeta) {
	defaultConfig.Info.Ref.Type = typ
	defaultConfig.Info.Meta = meta
}

// SetupFlags sets command line flags.
func SetupFlags() {
	def := &defaultConfig
	flag.StringVar(&def.Info.Ref.Type, "type", def.Info.Ref.Type, "Controller type")
	flag.StringVar(&def.Info.Ref.ID, "id", def.Info.Ref.ID, "Controller ID")
	flag.StringVar(&def.MQTTBrokerURL, "mqtt", def.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&def.ListenTCP, "listen-tcp", def.ListenTCP, "Listen address for direct TCP connections")
	flag.StringVar(&def.ListenWS, "listen-ws", def.ListenWS, "Listen address for direct websocket connections")
}

// Env is the env for device controllers.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux

	directServer *direct.Server
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	e := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	if err := e.setupMQTT(); err != nil {
		return nil, err
	}
	e.setupDirect()
	if len(e.Registrar.Registrars) == 0 && e.directServer == nil {
		return nil, fmt.Errorf("at least one registrar is required")
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

func (e *Env) setupMQTT() error {
	url := e.Config.MQTTBrokerURL
	if url == "" {
		return nil
	}
	reg, err := mqtt.NewRegistrar(url, e.Config.Info)
	if err != nil {
		return fmt.Errorf("create MQTT registrar error: %v", err)
	}
	e.Registrar.Add(reg)
	e.RegistryURLs = append(e.RegistryURLs, url)
	return nil
}

func (e *Env) setupDirect() {
	if e.Config.ListenTCP == "" && e.Config.ListenWS == "" {
		return
	}
	e.directServer = &direct.Server{
		TCPAddr: e.Config.ListenTCP,
		WSAddr:  e.Config.ListenWS,
		Mux:     e.Registrar,
	}
}

// AddToLoop adds controllers/runners to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	if e.directServer != nil {
		loop.Add(e.directServer)
	}
	loop.Add(&comm.UnsupportedCommands{})
}
