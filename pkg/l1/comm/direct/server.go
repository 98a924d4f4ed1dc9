// Package direct serves controller connections without a broker:
// clients dial the daemon over TCP (length-prefixed packets) or
// websocket and get the same command/event pipe a registry provides.
package direct

import (
	"context"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm/stream"
	wsrw "github.com/robotalks/nunchuk.go/pkg/l1/comm/websocket"
)

// Server accepts direct connections and attaches each one to the mux
// as a registrar for as long as it lives. It must be added to the
// loop (AddToLoop) so connection contexts carry the loop control.
type Server struct {
	// TCPAddr is the listen address for stream connections, empty to
	// disable.
	TCPAddr string
	// WSAddr is the listen address for websocket connections, empty
	// to disable.
	WSAddr string
	// Mux receives a registrar per live connection.
	Mux *comm.RegistrarMux
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	if s.TCPAddr != "" {
		loop.AddRunnable(fx.NamedRun("direct-tcp", fx.RunnableFunc(s.runTCP)))
	}
	if s.WSAddr != "" {
		loop.AddRunnable(fx.NamedRun("direct-ws", fx.RunnableFunc(s.runWS)))
	}
}

func (s *Server) runTCP(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.TCPAddr)
	if err != nil {
		return err
	}
	glog.Infof("direct tcp on %s", s.TCPAddr)
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			go s.serve(ctx, stream.New(conn))
		}
	})
}

func (s *Server) runWS(ctx context.Context) error {
	srv := &http.Server{
		Addr: s.WSAddr,
		Handler: websocket.Handler(func(conn *websocket.Conn) {
			s.serve(ctx, wsrw.New(conn))
		}),
	}
	glog.Infof("direct ws on %s", s.WSAddr)
	return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
}

func (s *Server) serve(ctx context.Context, rw comm.PacketReadWriter) {
	reg := &comm.Registrar{}
	reg.Init(rw)
	s.Mux.Add(reg)
	defer s.Mux.Remove(reg)
	if err := reg.Run(ctx); err != nil && ctx.Err() == nil {
		glog.V(1).Infof("direct connection closed: %v", err)
	}
}
