package sfl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16(t *testing.T) {
	require.Equal(t, uint16(0x29b1), CRC16([]byte("123456789")))
	require.Equal(t, uint16(0xffff), CRC16(nil))
}

func TestFrameBytes(t *testing.T) {
	testCases := []struct {
		name   string
		frame  *Frame
		expect []byte
	}{
		{"ping", NewPing(), []byte{0x03, 0x00, 0x48, 0x5c}},
		{"abort", NewAbort(), []byte{0x00, 0x00, 0x1d, 0x0f}},
		{"jump", NewJump(0x40000000), []byte{0x02, 0x04, 0x40, 0x00, 0x00, 0x00, 0x62, 0xca}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.frame.Bytes())
			var buf bytes.Buffer
			n, err := tc.frame.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), n)
			require.Equal(t, tc.expect, buf.Bytes())
		})
	}
}

func TestNewWrite(t *testing.T) {
	f, err := NewWrite(0x12345678, []byte{0xaa, 0xbb})
	require.NoError(t, err)
	require.Equal(t, CmdWrite, f.Cmd)
	require.Equal(t, []byte{0x12, 0x34, 0x56, 0x78, 0xaa, 0xbb}, f.Payload)

	_, err = NewWrite(0, make([]byte, MaxWriteData))
	require.NoError(t, err)
	_, err = NewWrite(0, make([]byte, MaxWriteData+1))
	require.Error(t, err)
}

func TestFrameDecode(t *testing.T) {
	testCases := []struct {
		name   string
		frame  Frame
		expect LoadCommand
		err    error
	}{
		{"write", Frame{Cmd: CmdWrite, Payload: []byte{0, 0, 0x10, 0, 1, 2}},
			LoadCommand{Cmd: CmdWrite, Addr: 0x1000, Data: []byte{1, 2}}, nil},
		{"empty write", Frame{Cmd: CmdWrite, Payload: []byte{0, 0, 0x10, 0}},
			LoadCommand{Cmd: CmdWrite, Addr: 0x1000, Data: []byte{}}, nil},
		{"short write", Frame{Cmd: CmdWrite, Payload: []byte{0, 0, 0x10}},
			LoadCommand{Cmd: CmdWrite}, ErrMalformed},
		{"jump", Frame{Cmd: CmdJump, Payload: []byte{0, 0, 0x20, 0}},
			LoadCommand{Cmd: CmdJump, Addr: 0x2000}, nil},
		{"long jump", Frame{Cmd: CmdJump, Payload: []byte{0, 0, 0x20, 0, 0}},
			LoadCommand{Cmd: CmdJump}, ErrMalformed},
		{"abort", Frame{Cmd: CmdAbort}, LoadCommand{Cmd: CmdAbort}, nil},
		{"abort with payload", Frame{Cmd: CmdAbort, Payload: []byte{1}},
			LoadCommand{Cmd: CmdAbort}, ErrMalformed},
		{"ping", Frame{Cmd: CmdPing}, LoadCommand{Cmd: CmdPing}, nil},
		{"unknown", Frame{Cmd: 0x42}, LoadCommand{Cmd: 0x42}, ErrUnknownCommand},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lc, err := tc.frame.Decode()
			require.Equal(t, tc.err, err)
			require.Equal(t, tc.expect, lc)
		})
	}
}

func TestReplyBytesDistinctFromCommands(t *testing.T) {
	for _, b := range []byte{ACK, NakChecksum, NakUnknown, NakMalformed, NakTimeout, NakRejected} {
		require.False(t, Command(b).IsValid(), "reply %q", b)
	}
	require.False(t, IsNAK(ACK))
	require.True(t, IsNAK(NakTimeout))
}
