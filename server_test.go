package ember

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServeRejectsWhenNoPortsConfigured(t *testing.T) {
	cfg := NewConfig()
	cfg.Port = 0
	cfg.SecurePort = 0
	s := NewServer(cfg)
	assert.Error(t, s.Serve())
}

func TestAddAndRemoveShutdownJob(t *testing.T) {
	s := NewServer(nil)
	ran := false
	id := s.AddShutdownJob(func() { ran = true })
	s.RemoveShutdownJob(id)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
	assert.False(t, ran)
}

func TestShutdownRunsRegisteredJobs(t *testing.T) {
	s := NewServer(nil)
	done := make(chan struct{})
	s.AddShutdownJob(func() { close(done) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))

	select {
	case <-done:
	default:
		t.Fatal("shutdown job did not run")
	}
}

// TestAcceptLoopServesRequestEndToEnd binds a real loopback listener and
// drives it through a standard net/http client, proving the hand-rolled
// wire codec in conn.go round-trips a full request/response.
func TestAcceptLoopServesRequestEndToEnd(t *testing.T) {
	s := NewServer(nil)
	s.Handle(NewHook(Hook{HasPath: true, Path: "/hello", SpecificPath: true}), func(req *Request) *Response {
		return Text("hi there")
	})

	l, err := listen("127.0.0.1:0")
	assert.NoError(t, err)
	defer l.Close()

	go s.acceptLoop(l, false)

	addr := l.Addr().(*net.TCPAddr)
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://127.0.0.1:" + strconv.Itoa(addr.Port) + "/hello")
	assert.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, "hi there", string(body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
