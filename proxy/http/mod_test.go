package http

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestHTTP_Listen(t *testing.T) {
	proxy := NewHTTP("127.0.0.1:0")
	proxy.Mount("/fake", http.HandlerFunc(fakeHandler))

	go proxy.Listen()
	defer proxy.Stop()

	addr := waitAddr(t, proxy)

	res, err := http.Get("http://" + addr + "/fake")
	require.NoError(t, err)
	defer res.Body.Close()

	output, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "hello", string(output))
	require.NotEmpty(t, res.Header.Get("Content-Type"))
}

func TestHTTP_Healthz(t *testing.T) {
	proxy := NewHTTP("127.0.0.1:0", WithTimeout(time.Second))

	go proxy.Listen()
	defer proxy.Stop()

	addr := waitAddr(t, proxy)

	res, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()

	output, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", string(output))
}

func TestHTTP_Listen_EmptyAddr(t *testing.T) {
	proxy := NewHTTP("")

	require.Nil(t, proxy.GetAddr())

	go proxy.Listen()

	waitAddr(t, proxy)

	proxy.Stop()
}

func TestHTTP_Listen_BadAddr(t *testing.T) {
	proxy := NewHTTP("bad://xx")

	out := new(bytes.Buffer)
	proxy.logger = zerolog.New(out)

	require.Panics(t, proxy.Listen)
	require.Contains(t, out.String(), "failed to create conn 'bad://xx':")
}

func TestLogging(t *testing.T) {
	out := new(bytes.Buffer)
	logger := zerolog.New(out)

	handler := logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req, err := http.NewRequest(http.MethodGet, "/tea", nil)
	require.NoError(t, err)

	rec := newRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.status)
	require.Contains(t, out.String(), `"url":"/tea"`)
	require.Contains(t, out.String(), `"status":418`)
}

// -----------------------------------------------------------------------------
// Utility functions

func fakeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("hello"))
}

func waitAddr(t *testing.T, proxy *HTTP) string {
	for i := 0; i < 100; i++ {
		addr := proxy.GetAddr()
		if addr != nil {
			return addr.String()
		}

		time.Sleep(20 * time.Millisecond)
	}

	t.Fatal("proxy did not start")

	return ""
}

type recorder struct {
	header http.Header
	status int
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) Write(data []byte) (int, error) {
	return len(data), nil
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
}
