package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedRoundTrip(t *testing.T) {
	typed, err := TypedFrom(NewCommandErrFromMsg("boom"))
	require.NoError(t, err)
	require.Equal(t, CommandErrTypeID, typed.TypeId)
	typed.Sequence = 42

	data, err := typed.Encode()
	require.NoError(t, err)

	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, typed.TypeId, decoded.TypeId)
	require.Equal(t, uint32(42), decoded.Sequence)

	msg, err := decoded.Decode()
	require.NoError(t, err)
	cmdErr, ok := msg.(*CommandErr)
	require.True(t, ok)
	require.Equal(t, "boom", cmdErr.Message)
}

func TestTypedFromNotSerializable(t *testing.T) {
	_, err := TypedFrom(nil)
	require.Equal(t, ErrNotSerializable, err)
}

func TestDecodeUnknownType(t *testing.T) {
	typed := Typed{TypeId: 0x12345678}
	_, err := typed.Decode()
	require.IsType(t, &ErrUnknownType{}, err)
}

func TestTypedKind(t *testing.T) {
	require.True(t, Typed{TypeId: CommandOKTypeID}.IsCommand())
	require.False(t, Typed{TypeId: CommandOKTypeID}.IsEvent())
	require.True(t, Typed{TypeId: TypeIDKindEvent | GroupCustom}.IsEvent())
	require.False(t, Typed{TypeId: TypeIDKindEvent | GroupCustom}.IsCommand())
}
