// Package sh provides the interactive shell for talking to pad
// controllers.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"reflect"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1"
	env "github.com/robotalks/nunchuk.go/pkg/l1/env/connector"
	"github.com/robotalks/nunchuk.go/pkg/l1/msgs"
)

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
	commandTimeout    = time.Second
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds registers commands; command packages call this from init.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// Shell is an ishell-backed interactive client.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
}

// Session is an established controller connection with the loop
// pumping it.
type Session struct {
	Ref    l1.ControllerRef
	Conn   l1.ControllerConn
	cancel func()
}

// New creates a new shell over the connector config.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets the Shell back from an ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps a command func that requires a session.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatInfo renders ControllerInfo for display.
func FormatInfo(info l1.ControllerInfo) string {
	if info.Meta.Description == "" {
		return info.Ref.Name()
	}
	return info.Ref.Name() + ": " + info.Meta.Description
}

// DoCommand sends a command over the current session, waits for the
// result and prints it.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	if s.Session == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	select {
	case res := <-s.Session.Conn.DoCommand(msg).ResultChan():
		if res.Err != nil {
			c.Err(res.Err)
			return res.Err
		}
		return s.printResult(c, res.Msg)
	case <-time.After(commandTimeout):
		c.Err(fmt.Errorf("Command timeout"))
		return context.DeadlineExceeded
	}
}

func (s *Shell) printResult(c *ishell.Context, msg fx.Message) error {
	serializable := msg.(msgs.SerializableMessage).Serializable()
	if s.OutputJSON {
		out, err := json.Marshal(serializable)
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(out))
		return nil
	}
	if _, ok := msg.(*msgs.CommandOK); ok {
		c.Println("OK")
		return nil
	}
	c.Printf("%s %s\n",
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		serializable.String())
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverControllers lists controllers visible through the registry,
// optionally filtered.
func (s *Shell) DiscoverControllers(filter func(l1.ControllerInfo) bool) ([]l1.ControllerInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	infoList, err := connector.Discover(context.TODO())
	if err != nil || filter == nil {
		return infoList, err
	}
	items := infoList[:0]
	for _, info := range infoList {
		if filter(info) {
			items = append(items, info)
		}
	}
	return items, nil
}

// SelectController discovers controllers and asks for a choice when
// more than one matches.
func (s *Shell) SelectController(filter func(l1.ControllerInfo) bool) (*l1.ControllerInfo, error) {
	infoList, err := s.DiscoverControllers(filter)
	if err != nil {
		return nil, err
	}
	switch len(infoList) {
	case 0:
		return nil, nil
	case 1:
		return &infoList[0], nil
	}
	if !s.Interactive {
		return nil, fmt.Errorf("more than 1 controllers discovered in non-interactive mode")
	}
	items := make([]string, len(infoList))
	for n, info := range infoList {
		items[n] = FormatInfo(info)
	}
	index := s.Shell.MultiChoice(items, "Which one to connect?")
	return &infoList[index], nil
}

// Connect establishes a session with the referenced controller,
// replacing the current one.
func (s *Shell) Connect(ref l1.ControllerRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return err
	}
	loop := fx.NewLoop()
	if adder, ok := conn.(fx.LoopAdder); ok {
		loop.Add(adder)
	}
	s.Disconnect()
	s.Session = &Session{Ref: ref, Conn: conn, cancel: cancel}
	go loop.Run(ctx)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ref.Name()))
	return nil
}

// Disconnect tears down the current session if any.
func (s *Shell) Disconnect() {
	if s.Session == nil {
		return
	}
	s.Session.cancel()
	s.Session = nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// Run runs the shell: connected commands from args when given,
// otherwise the interactive prompt.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Ref.IsValid() {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Ref.Name())
		}
		if err := s.Connect(s.Config.Ref); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Ref.Name(), err)
		}
	}
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if !s.Interactive {
		log.Fatalln("command expected")
	}
	s.Shell.Run()
}

var (
	// DiscoverCmd lists controllers.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Func:    discoverCmd,
	}

	// ConnectCmd establishes a session.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "TYPE ID",
		Func:    connectCmd,
	}

	// DisconnectCmd tears down the session.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

func discoverCmd(c *ishell.Context) {
	s := ShellFrom(c)
	infoList, err := s.DiscoverControllers(nil)
	if err != nil {
		c.Err(err)
		return
	}
	if s.OutputJSON {
		if infoList == nil {
			infoList = []l1.ControllerInfo{}
		}
		out, err := json.Marshal(infoList)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if len(infoList) == 0 {
		c.Println("No controllers found")
		return
	}
	for _, info := range infoList {
		c.Println(FormatInfo(info))
	}
}

func connectCmd(c *ishell.Context) {
	s := ShellFrom(c)
	ref, err := resolveRef(s, c.Args)
	if err != nil {
		c.Err(err)
		return
	}
	if err := s.Connect(ref); err != nil {
		c.Err(err)
	}
}

// resolveRef turns connect arguments into a controller ref, discovering
// when the ref is not fully specified.
func resolveRef(s *Shell, args []string) (ref l1.ControllerRef, err error) {
	if len(args) >= 2 {
		ref.Type, ref.ID = args[0], args[1]
		return
	}
	var filter func(l1.ControllerInfo) bool
	if len(args) == 1 {
		filter = func(info l1.ControllerInfo) bool {
			return info.Ref.Type == args[0]
		}
	}
	info, err := s.SelectController(filter)
	if err != nil {
		return
	}
	if info == nil {
		err = fmt.Errorf("no controller discovered")
		return
	}
	return info.Ref, nil
}

// Main is the single-call entry for the cli command.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
