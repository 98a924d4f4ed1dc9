// Package connector assembles the client-side environment: config,
// flags, and connector construction from a registry or endpoint URL.
package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/nunchuk.go/pkg/l1"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm/direct"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm/mqtt"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref l1.ControllerRef

	// RegistryURL specifies the URL of controller registry, or a
	// direct endpoint.
	// e.g. mqtt://host:port/topic-prefix, tcp://host:port,
	// ws://host:port/path
	RegistryURL string
}

var defaultConfig = Config{
	RegistryURL: "mqtt://localhost:1883/pads/",
}

func envDefault(name string, target *string) {
	if val := os.Getenv(name); val != "" {
		*target = val
	}
}

func init() {
	envDefault("PAD_TYPE", &defaultConfig.Ref.Type)
	envDefault("PAD_ID", &defaultConfig.Ref.ID)
	envDefault("PAD_REGISTRY_URL", &defaultConfig.RegistryURL)
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	def := &defaultConfig
	flag.StringVar(&def.Ref.Type, "pad-type", def.Ref.Type, "Controller type to connect.")
	flag.StringVar(&def.Ref.ID, "pad-id", def.Ref.ID, "Controller ID to connect.")
	flag.StringVar(&def.RegistryURL, "pad-reg", def.RegistryURL, "Controller registry or direct endpoint URL.")
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt":
		return mqtt.NewConnector(c.RegistryURL)
	case "tcp", "ws", "wss":
		return direct.NewConnector(c.RegistryURL)
	}
	return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to a controller. A direct endpoint needs
// no controller ref, the registry-based connectors require one.
func (c *Config) Connect() (l1.ControllerConn, error) {
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	if _, isDirect := connector.(*direct.Connector); !isDirect && !c.Ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	return connector.Connect(context.TODO(), c.Ref)
}

// MustConnect connects to a controller or fails.
func (c *Config) MustConnect() l1.ControllerConn {
	conn, err := c.Connect()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
