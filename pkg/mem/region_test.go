package mem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpanContains(t *testing.T) {
	s := Span{Base: 0x40000000, Size: 0x10000}
	testCases := []struct {
		name   string
		addr   uint32
		n      int
		expect bool
	}{
		{"start", 0x40000000, 16, true},
		{"whole", 0x40000000, 0x10000, true},
		{"tail", 0x4000fff0, 16, true},
		{"past end", 0x4000fff1, 16, false},
		{"below", 0x3ffffff8, 16, false},
		{"empty inside", 0x40000010, 0, true},
		{"empty at end", 0x40010000, 0, false},
		{"negative", 0x40000000, -1, false},
		{"wraps", 0xfffffff0, 0x20, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, s.Contains(tc.addr, tc.n))
		})
	}
}

func TestSpanAtTopOfAddressSpace(t *testing.T) {
	s := Span{Base: 0xffff0000, Size: 0x10000}
	require.Equal(t, uint64(1)<<32, s.End())
	require.True(t, s.Contains(0xfffffff0, 16))
	require.False(t, s.Contains(0xfffffff0, 17))
}

func TestRAMWrite(t *testing.T) {
	r := NewRAM(0x1000, 0x100)
	require.NoError(t, r.Write(0x1010, []byte{1, 2, 3}))
	data, err := r.Read(0x1010, 3)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)

	before := append([]byte(nil), r.Bytes()...)
	err = r.Write(0x10fe, []byte{9, 9, 9})
	var be *BoundsError
	require.True(t, errors.As(err, &be))
	require.Equal(t, uint32(0x10fe), be.Addr)
	require.Equal(t, before, r.Bytes())
}

func TestWindows(t *testing.T) {
	rom := NewWindow("rom", 0, make([]byte, 0x100))
	flash := NewWindow("flash", 0x20000000, []byte{1, 2, 3, 4})
	ws := Windows{rom, flash}

	w, ok := ws.Find(0x20000001, 2)
	require.True(t, ok)
	require.Equal(t, "flash", w.Name)
	_, ok = ws.Find(0x20000001, 4)
	require.False(t, ok)

	buf := make([]byte, 2)
	n, err := flash.ReadAt(buf, 2)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{3, 4}, buf)
}

func TestAlign(t *testing.T) {
	require.Equal(t, uint32(0x100), AlignDown(uint32(0x1ff), 0x100))
	require.Equal(t, uint32(0x200), AlignUp(uint32(0x101), 0x100))
	require.Equal(t, 256, AlignUp(256, 256))
	require.Equal(t, int64(0), AlignDown(int64(0xff), 0x100))
}
