package bridge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// parserStep feeds bytes (or a timeout when in is empty) and asserts
// the final ParseResult; intermediate bytes must report state.
type parserStep struct {
	in    []byte
	state SyncState
	want  ParseResult
}

func feed(state SyncState, in ...byte) parserStep {
	return parserStep{in: in, state: state, want: ParseResult{State: state}}
}

func (s parserStep) then(pr ParseResult) parserStep {
	s.want = pr
	return s
}

func (s parserStep) synced() parserStep {
	return s.then(ParseResult{State: SyncStateReady})
}

func (s parserStep) syncedWithAck() parserStep {
	return s.then(ParseResult{Sync: syncACK, State: SyncStateReady})
}

func (s parserStep) resyncs() parserStep {
	return s.then(ParseResult{Sync: syncREQ, State: SyncStateSyncing})
}

func (s parserStep) packet(seq, code byte, data ...byte) parserStep {
	return s.then(ParseResult{
		State:  SyncStateReady,
		Packet: &Packet{Seq: PacketSeq(seq), Code: code, Data: data},
	})
}

func expired() parserStep {
	return parserStep{}
}

const (
	stSyncing   = SyncStateSyncing | SyncStateReceiving
	stReceiving = SyncStateReady | SyncStateReceiving
)

func TestParser(t *testing.T) {
	testCases := []struct {
		name  string
		steps []parserStep
	}{
		{"sync and receive", []parserStep{
			feed(stSyncing, syncACK, 1).synced(),
			feed(stReceiving, 1, 0x02).packet(1, 2),
			feed(stReceiving, 2, 0x72, 0).packet(2, 2),
			feed(stReceiving, 3, 0x92, 0x03).packet(3, 0x82, 3),
			feed(stReceiving, 4, 0x72, 0x08, 1, 2, 3, 4, 5, 6, 7, 8).packet(4, 2, 1, 2, 3, 4, 5, 6, 7, 8),
		}},
		{"sync timeout", []parserStep{
			expired().resyncs(),
			feed(stSyncing, syncACK),
			expired().resyncs(),
		}},
		{"sync skips invalid bytes", []parserStep{
			feed(SyncStateSyncing, 1, 2, 3, 4, 0x80, 0x81, 0xf0, 0xf1),
			feed(stSyncing, syncACK, 1).synced(),
		}},
		{"answer req while syncing", []parserStep{
			feed(stSyncing, syncREQ, 1).syncedWithAck(),
		}},
		{"req with invalid seq", []parserStep{
			feed(stSyncing, syncREQ, syncREQ).resyncs(),
			feed(stSyncing, syncACK, 1).synced(),
		}},
		{"answer req after sync", []parserStep{
			feed(stSyncing, syncACK, 1).synced(),
			feed(stSyncing, syncREQ, 1).syncedWithAck(),
			feed(stReceiving, 1, 0x02).packet(1, 2),
		}},
		{"req after sync with invalid seq", []parserStep{
			feed(stSyncing, syncACK, 1).synced(),
			feed(stSyncing, syncREQ, syncACK).resyncs(),
			feed(stSyncing, syncACK, 1).synced(),
		}},
		{"ack with invalid seq while syncing", []parserStep{
			feed(stSyncing, syncACK, syncREQ).resyncs(),
			feed(stSyncing, syncACK, 1).synced(),
		}},
		{"ack after sync", []parserStep{
			feed(stSyncing, syncACK, 1).synced(),
			feed(stReceiving, syncACK, 1).synced(),
			feed(stReceiving, 1, 0x02).packet(1, 2),
		}},
		{"ack with wrong seq", []parserStep{
			feed(stSyncing, syncACK, 1).synced(),
			feed(stReceiving, syncACK, 2).resyncs(),
			feed(stSyncing, syncACK, 2).synced(),
			feed(stReceiving, 2, 0x02).packet(2, 2),
		}},
		{"unexpected seq", []parserStep{
			feed(stSyncing, syncACK, 1).synced(),
			feed(stReceiving, 1, 2).packet(1, 2),
			feed(stSyncing, 1).resyncs(),
			feed(SyncStateSyncing, 0x92, 3),
			feed(stSyncing, syncACK, 3).synced(),
		}},
		{"invalid extended length", []parserStep{
			feed(stSyncing, syncACK, 1).synced(),
			feed(stReceiving, 1, 0x70, 0x80).resyncs(),
			feed(SyncStateSyncing, 1, 2, 3, 4),
			feed(stSyncing, syncACK, 1).synced(),
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			for n, step := range tc.steps {
				var pr ParseResult
				if len(step.in) == 0 {
					pr = parser.Timeout()
				}
				for i, b := range step.in {
					pr = parser.Parse(b)
					if i+1 < len(step.in) {
						require.Equalf(t, ParseResult{State: step.state}, pr,
							"step[%d] byte[%d]", n, i)
					}
				}
				require.Equalf(t, step.want, pr, "step[%d] final", n)
			}
		})
	}
}

func TestParserReset(t *testing.T) {
	var parser Parser
	pr := parser.Reset()
	require.Equal(t, syncREQ, pr.Sync)
	require.Equal(t, SyncStateSyncing, pr.State)
	require.Nil(t, pr.Packet)
}

func TestSyncState(t *testing.T) {
	require.False(t, SyncStateSyncing.IsReady())
	require.False(t, SyncStateSyncing.IsReceiving())
	require.True(t, SyncStateReady.IsReady())
	require.False(t, SyncStateReady.IsReceiving())
	require.False(t, SyncStateReceiving.IsReady())
	require.True(t, SyncStateReceiving.IsReceiving())
	require.True(t, (SyncStateReady | SyncStateReceiving).IsReady())
	require.True(t, (SyncStateReady | SyncStateReceiving).IsReceiving())
}

func TestParseResultTimer(t *testing.T) {
	testCases := []struct {
		state  SyncState
		cmd    byte
		action TimerAction
	}{
		{SyncStateSyncing, 0, TimerNoChange},
		{SyncStateSyncing, syncACK, TimerNoChange},
		{SyncStateSyncing, syncREQ, TimerRestart},
		{SyncStateReceiving, 0, TimerRestart},
		{SyncStateReady, 0, TimerStop},
		{SyncStateReady, syncACK, TimerStop},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%x %x", tc.state, tc.cmd), func(t *testing.T) {
			pr := ParseResult{Sync: tc.cmd, State: tc.state}
			require.Equal(t, tc.action, pr.WhatAboutTimer())
		})
	}
}
