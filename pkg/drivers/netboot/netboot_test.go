package netboot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/biosboot/pkg/boot"
)

type mapFetcher map[string][]byte

func (m mapFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if data, ok := m[name]; ok {
		return data, nil
	}
	return nil, ErrNotFound
}

func TestFetchImage(t *testing.T) {
	d := New(mapFetcher{"boot.bin": {1, 2, 3}}, 0x40000000, 16)
	img, err := d.FetchImage(context.Background())
	require.NoError(t, err)
	require.Equal(t, &boot.Image{Addr: 0x40000000, Data: []byte{1, 2, 3}, Entry: 0x40000000}, img)
}

func TestFileOrder(t *testing.T) {
	d := New(mapFetcher{"boot.bin": {1}, "fallback.bin": {2}}, 0, 0)
	d.Files = []string{"board.bin", "fallback.bin", "boot.bin"}
	img, err := d.FetchImage(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte{2}, img.Data)

	d.Files = []string{"missing.bin"}
	_, err = d.FetchImage(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTooLarge(t *testing.T) {
	_, err := New(mapFetcher{"boot.bin": make([]byte, 17)}, 0, 16).FetchImage(context.Background())
	require.Error(t, err)
}

type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeout(t *testing.T) {
	d := New(blockingFetcher{}, 0, 0)
	d.Timeout = 10 * time.Millisecond
	_, err := d.FetchImage(context.Background())
	require.True(t, errors.Is(err, context.DeadlineExceeded))

	_, err = New(nil, 0, 0).FetchImage(context.Background())
	require.Equal(t, boot.ErrUnsupported, err)
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boot.bin"), []byte("image"), 0644))
	f := DirFetcher(dir)

	data, err := f.Fetch(context.Background(), "boot.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("image"), data)

	_, err = f.Fetch(context.Background(), "other.bin")
	require.Equal(t, ErrNotFound, err)
	_, err = f.Fetch(context.Background(), "../boot.bin")
	require.Error(t, err)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tftp/boot.bin":
			w.Write([]byte("image"))
		case "/tftp/broken.bin":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	f := &HTTPFetcher{BaseURL: srv.URL + "/tftp/"}

	data, err := f.Fetch(context.Background(), "boot.bin")
	require.NoError(t, err)
	require.Equal(t, []byte("image"), data)

	_, err = f.Fetch(context.Background(), "missing.bin")
	require.Equal(t, ErrNotFound, err)
	_, err = f.Fetch(context.Background(), "broken.bin")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}
