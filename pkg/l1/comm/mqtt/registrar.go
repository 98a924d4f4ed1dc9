package mqtt

import (
	"context"
	"encoding/json"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm"
)

// Registrar implements l1.Registrar using MQTT. While the device is
// connected, its metadata is held in a retained <ref>/meta topic; the
// broker will clears the topic if the connection drops, and Run
// clears it on orderly shutdown.
type Registrar struct {
	Queue *Queue
	Info  l1.ControllerInfo

	metaJSON []byte
	inner    comm.Registrar
}

// NewRegistrar creates a Registrar advertising info on the broker.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	metaJSON, err := json.Marshal(&info.Meta)
	if err != nil {
		panic(err)
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := info.Ref.Name() + "/meta"
	opts.SetBinaryWill(topicPrefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("pad:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: metaJSON,
	}
	r.Queue.OnConnect = func(*Queue) {
		r.Queue.PubWith(metaTopic, r.metaJSON, 1, true)
	}
	r.inner.Init(NewPacketReadWriter(r.Queue).ForController(info.Ref))
	return r, nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.inner.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.inner)
	loop.AddRunnable(r)
}

// Run keeps the broker connection for the lifetime of the context and
// withdraws the meta advertisement on the way out.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(r.Info.Ref.Name()+"/meta", nil, 1, true)
	r.Queue.Close()
	return nil
}
