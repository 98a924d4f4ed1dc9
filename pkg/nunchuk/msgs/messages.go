// Package msgs defines the wire messages of the pad controller.
package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1/msgs"
)

// PadState is an Event message carrying a decoded pad frame.
type PadState struct {
	Online     bool    `protobuf:"varint,1,opt,name=online,proto3" json:"online,omitempty"`
	JoystickX  int32   `protobuf:"varint,2,opt,name=joystick_x,proto3" json:"joystick_x,omitempty"`
	JoystickY  int32   `protobuf:"varint,3,opt,name=joystick_y,proto3" json:"joystick_y,omitempty"`
	AccelX     int32   `protobuf:"varint,4,opt,name=accel_x,proto3" json:"accel_x,omitempty"`
	AccelY     int32   `protobuf:"varint,5,opt,name=accel_y,proto3" json:"accel_y,omitempty"`
	AccelZ     int32   `protobuf:"varint,6,opt,name=accel_z,proto3" json:"accel_z,omitempty"`
	ButtonC    bool    `protobuf:"varint,7,opt,name=button_c,proto3" json:"button_c,omitempty"`
	ButtonZ    bool    `protobuf:"varint,8,opt,name=button_z,proto3" json:"button_z,omitempty"`
	Angle      float32 `protobuf:"fixed32,9,opt,name=angle,proto3" json:"angle,omitempty"`
	Pitch      float32 `protobuf:"fixed32,10,opt,name=pitch,proto3" json:"pitch,omitempty"`
	Roll       float32 `protobuf:"fixed32,11,opt,name=roll,proto3" json:"roll,omitempty"`
}

// NewMessage implements Message.
func (m *PadState) NewMessage() fx.Message { return &PadState{} }

// TypeID implements SerializableMessage.
func (m *PadState) TypeID() uint32 { return PadStateEventTypeID }

// Serializable implements SerializableMessage.
func (m *PadState) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PadState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PadState) Reset() { *m = PadState{} }

// String implements proto.Message.
func (m *PadState) String() string { return proto.CompactTextString(m) }

// PadInfo is an Event message describing the attached pad.
type PadInfo struct {
	Mode  string `protobuf:"bytes,1,opt,name=mode,proto3" json:"mode,omitempty"`
	Ident []byte `protobuf:"bytes,2,opt,name=ident,proto3" json:"ident,omitempty"`
	Bus   string `protobuf:"bytes,3,opt,name=bus,proto3" json:"bus,omitempty"`
}

// NewMessage implements Message.
func (m *PadInfo) NewMessage() fx.Message { return &PadInfo{} }

// TypeID implements SerializableMessage.
func (m *PadInfo) TypeID() uint32 { return PadInfoEventTypeID }

// Serializable implements SerializableMessage.
func (m *PadInfo) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PadInfo) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PadInfo) Reset() { *m = PadInfo{} }

// String implements proto.Message.
func (m *PadInfo) String() string { return proto.CompactTextString(m) }

// PadStateQuery queries the current pad state.
type PadStateQuery struct {
}

// NewMessage implements Message.
func (m *PadStateQuery) NewMessage() fx.Message { return &PadStateQuery{} }

// TypeID implements SerializableMessage.
func (m *PadStateQuery) TypeID() uint32 { return PadStateQueryTypeID }

// Serializable implements SerializableMessage.
func (m *PadStateQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PadStateQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PadStateQuery) Reset() { *m = PadStateQuery{} }

// String implements proto.Message.
func (m *PadStateQuery) String() string { return proto.CompactTextString(m) }

// PadStateReply is the response for PadStateQuery.
type PadStateReply struct {
	State *PadState `protobuf:"bytes,1,opt,name=state,proto3" json:"state,omitempty"`
}

// NewMessage implements Message.
func (m *PadStateReply) NewMessage() fx.Message { return &PadStateReply{} }

// TypeID implements SerializableMessage.
func (m *PadStateReply) TypeID() uint32 { return PadStateReplyTypeID }

// Serializable implements SerializableMessage.
func (m *PadStateReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PadStateReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PadStateReply) Reset() { *m = PadStateReply{} }

// String implements proto.Message.
func (m *PadStateReply) String() string { return proto.CompactTextString(m) }

// GroupPad defines the custom group.
const GroupPad = msgs.GroupCustom

// TypeIDs
const (
	PadStateEventTypeID uint32 = GroupPad | msgs.TypeIDKindEvent | 0x0000
	PadInfoEventTypeID  uint32 = GroupPad | msgs.TypeIDKindEvent | 0x0001
	PadStateQueryTypeID uint32 = GroupPad | 0x0000
	PadStateReplyTypeID uint32 = GroupPad | msgs.TypeIDMaskReply | 0x0000
)

func init() {
	msgs.MessageTypes[PadStateEventTypeID] = (*PadState)(nil)
	msgs.MessageTypes[PadInfoEventTypeID] = (*PadInfo)(nil)
	msgs.MessageTypes[PadStateQueryTypeID] = (*PadStateQuery)(nil)
	msgs.MessageTypes[PadStateReplyTypeID] = (*PadStateReply)(nil)
}
