package spiflash

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/image"
)

type pageReader struct {
	data  []byte
	reads [][2]int64
}

func (r *pageReader) ReadAt(p []byte, off int64) (int, error) {
	r.reads = append(r.reads, [2]int64{off, int64(len(p))})
	return bytes.NewReader(r.data).ReadAt(p, off)
}

func newFlash(offset int, content []byte) *pageReader {
	data := bytes.Repeat([]byte{0xff}, 4096)
	copy(data[offset:], content)
	return &pageReader{data: data}
}

func TestFetchImage(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 50)
	flash := newFlash(0x300, image.Pack(payload))
	d := New(flash, 4096, 0x300, 0x40000000)

	img, err := d.FetchImage(context.Background())
	require.NoError(t, err)
	require.Equal(t, &boot.Image{Addr: 0x40000000, Data: payload, Entry: 0x40000000}, img)

	require.Equal(t, [2]int64{0x300, image.HeaderSize}, flash.reads[0])
	for _, rd := range flash.reads[1:] {
		require.Zero(t, rd[0]%DefaultPageSize)
		require.Equal(t, int64(DefaultPageSize), rd[1])
	}
	require.Len(t, flash.reads, 3)
}

func TestImageAtFlashEnd(t *testing.T) {
	payload := []byte("tail")
	flash := newFlash(4096-12, image.Pack(payload))
	d := New(flash, 4096, 4096-12, 0x40000000)
	d.PageSize = 1024

	img, err := d.FetchImage(context.Background())
	require.NoError(t, err)
	require.Equal(t, payload, img.Data)
}

func TestBadImages(t *testing.T) {
	corrupted := image.Pack([]byte("payload"))
	corrupted[len(corrupted)-1]++

	_, err := New(newFlash(0, corrupted), 4096, 0, 0).FetchImage(context.Background())
	require.ErrorIs(t, err, image.ErrBadCRC)

	_, err = New(newFlash(0, nil), 4096, 0, 0).FetchImage(context.Background())
	require.ErrorIs(t, err, image.ErrBadLength)

	_, err = New(newFlash(0, nil), 4096, 4092, 0).FetchImage(context.Background())
	require.Error(t, err)

	_, err = New(nil, 0, 0, 0).FetchImage(context.Background())
	require.Equal(t, boot.ErrUnsupported, err)
}

type failingReader struct{}

func (failingReader) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == image.HeaderSize {
		return copy(p, image.Pack(make([]byte, 16))), nil
	}
	return 0, io.ErrUnexpectedEOF
}

func TestReadError(t *testing.T) {
	_, err := New(failingReader{}, 4096, 0, 0).FetchImage(context.Background())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	flash := newFlash(0, image.Pack(make([]byte, 100)))
	_, err := New(flash, 4096, 0, 0).FetchImage(ctx)
	require.Equal(t, context.Canceled, err)
}
