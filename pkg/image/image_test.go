package image

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/biosboot/pkg/mem"
)

const testHex = `:020000044000BA
:0400000001020304F2
:04001000DEADBEEFB4
:0400000540000010A7
:00000001FF
`

func TestParseHex(t *testing.T) {
	f, err := ParseHex(strings.NewReader(testHex))
	require.NoError(t, err)
	require.Equal(t, []mem.Segment{
		{Addr: 0x40000000, Data: []byte{1, 2, 3, 4}},
		{Addr: 0x40000010, Data: []byte{0xde, 0xad, 0xbe, 0xef}},
	}, f.Segments)
	require.Equal(t, uint32(0x40000010), f.Entry)
	require.Equal(t, mem.Span{Base: 0x40000000, Size: 0x14}, f.Bounds())

	addr, data := f.Flatten(0xff)
	require.Equal(t, uint32(0x40000000), addr)
	require.Len(t, data, 0x14)
	require.Equal(t, []byte{1, 2, 3, 4, 0xff}, data[:5])
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data[0x10:])
}

func TestParseHexErrors(t *testing.T) {
	_, err := ParseHex(strings.NewReader(":0400000001020304F3\n:00000001FF\n"))
	require.Error(t, err)
	_, err = ParseHex(strings.NewReader(":00000001FF\n"))
	require.Equal(t, ErrNoData, err)
}

func TestWriteHex(t *testing.T) {
	f := &File{
		Segments: []mem.Segment{{Addr: 0x40000000, Data: bytes.Repeat([]byte{0x5a}, 40)}},
		Entry:    0x40000000,
	}
	var buf bytes.Buffer
	require.NoError(t, f.WriteHex(&buf))
	parsed, err := ParseHex(&buf)
	require.NoError(t, err)
	require.Equal(t, f, parsed)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "boot.bin")
	require.NoError(t, os.WriteFile(bin, []byte{9, 8, 7}, 0644))
	f, err := Load(bin, 0x1000)
	require.NoError(t, err)
	require.Equal(t, []mem.Segment{{Addr: 0x1000, Data: []byte{9, 8, 7}}}, f.Segments)
	require.Equal(t, uint32(0x1000), f.Entry)

	hex := filepath.Join(dir, "boot.HEX")
	require.NoError(t, os.WriteFile(hex, []byte(testHex), 0644))
	f, err = Load(hex, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0x40000010), f.Entry)

	empty := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = Load(empty, 0)
	require.Equal(t, ErrNoData, err)

	_, err = ReadBinary(bytes.NewReader([]byte{1, 2}), 0xffffffff)
	require.Error(t, err)
}

func TestHeader(t *testing.T) {
	packed := Pack([]byte("hello"))
	require.Equal(t, []byte{0, 0, 0, 5, 0x36, 0x10, 0xa6, 0x86}, packed[:HeaderSize])

	h, err := ReadHeader(bytes.NewReader(packed), 0)
	require.NoError(t, err)
	require.Equal(t, Header{Length: 5, CRC: 0x3610a686}, h)
	require.NoError(t, h.Check(5))
	require.NoError(t, h.Verify([]byte("hello")))
	require.ErrorIs(t, h.Verify([]byte("hellO")), ErrBadCRC)

	testCases := []struct {
		length   uint32
		capacity int64
	}{
		{0, 100},
		{0xffffffff, 1 << 40},
		{101, 100},
	}
	for _, tc := range testCases {
		require.ErrorIs(t, Header{Length: tc.length}.Check(tc.capacity), ErrBadLength)
	}

	_, err = ReadHeader(bytes.NewReader(packed[:4]), 0)
	require.Error(t, err)
}
