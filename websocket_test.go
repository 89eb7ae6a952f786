package ember

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestComputeWebSocketAccept checks the worked example from RFC 6455 §1.3.
func TestComputeWebSocketAccept(t *testing.T) {
	got := computeWebSocketAccept("dGhlIHNhbXBsZSBub25jZQ==")
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", got)
}

// pipeConn is a minimal net.Conn over an in-memory pipe, enough to drive
// WebSocket's reader/writer without a real socket.
func pipeConn() (net.Conn, net.Conn) {
	return net.Pipe()
}

func maskedClientFrame(fin bool, opcode byte, payload []byte) []byte {
	var buf bytes.Buffer
	b0 := opcode & 0x0f
	if fin {
		b0 |= 0x80
	}
	buf.WriteByte(b0)

	n := len(payload)
	switch {
	case n < 126:
		buf.WriteByte(0x80 | byte(n))
	case n <= 0xffff:
		buf.WriteByte(0x80 | 126)
		var ext [2]byte
		binary.BigEndian.PutUint16(ext[:], uint16(n))
		buf.Write(ext[:])
	default:
		buf.WriteByte(0x80 | 127)
		var ext [8]byte
		binary.BigEndian.PutUint64(ext[:], uint64(n))
		buf.Write(ext[:])
	}

	key := [4]byte{0x12, 0x34, 0x56, 0x78}
	buf.Write(key[:])
	masked := make([]byte, n)
	for i, b := range payload {
		masked[i] = b ^ key[i%4]
	}
	buf.Write(masked)
	return buf.Bytes()
}

func TestReadClientFrameUnmasksPayload(t *testing.T) {
	raw := maskedClientFrame(true, wsOpText, []byte("hello"))
	br := bufio.NewReader(bytes.NewReader(raw))

	fin, opcode, payload, err := readClientFrame(br, 0)
	assert.NoError(t, err)
	assert.True(t, fin)
	assert.Equal(t, wsOpText, opcode)
	assert.Equal(t, "hello", string(payload))
}

func TestReadClientFrameRejectsUnmasked(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0x80 | wsOpText)
	buf.WriteByte(5) // no mask bit
	buf.WriteString("hello")
	br := bufio.NewReader(&buf)

	_, _, _, err := readClientFrame(br, 0)
	assert.Error(t, err)
}

func TestWebSocketTextRoundTrip(t *testing.T) {
	serverConn, clientConn := pipeConn()
	defer serverConn.Close()
	defer clientConn.Close()

	ws := newWebSocket(serverConn, bufio.NewReader(serverConn))

	received := make(chan string, 1)
	ws.TextHandler = func(text string) error {
		received <- text
		return nil
	}
	ended := make(chan struct{})
	ws.EndHandler = func() { close(ended) }

	go ws.serve()

	_, err := clientConn.Write(maskedClientFrame(true, wsOpText, []byte("ping from client")))
	assert.NoError(t, err)

	select {
	case text := <-received:
		assert.Equal(t, "ping from client", text)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for text message")
	}

	clientConn.Close()

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for EndHandler")
	}
}

func TestWebSocketPingAutoPong(t *testing.T) {
	serverConn, clientConn := pipeConn()
	defer serverConn.Close()
	defer clientConn.Close()

	ws := newWebSocket(serverConn, bufio.NewReader(serverConn))
	go ws.serve()

	_, err := clientConn.Write(maskedClientFrame(true, wsOpPing, []byte("hi")))
	assert.NoError(t, err)

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var head [2]byte
	_, err = io.ReadFull(clientConn, head[:])
	assert.NoError(t, err)
	assert.Equal(t, byte(0x80|wsOpPong), head[0])
	assert.Equal(t, byte(0), head[1])
}

func TestWriteFrameSingleByteLength(t *testing.T) {
	serverConn, clientConn := pipeConn()
	defer serverConn.Close()
	defer clientConn.Close()

	ws := newWebSocket(serverConn, bufio.NewReader(serverConn))

	done := make(chan error, 1)
	go func() { done <- ws.WriteText("hi") }()

	buf := make([]byte, 4)
	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := io.ReadFull(clientConn, buf)
	assert.NoError(t, err)
	assert.NoError(t, <-done)

	assert.Equal(t, byte(0x80|wsOpText), buf[0])
	assert.Equal(t, byte(2), buf[1])
	assert.Equal(t, "hi", string(buf[2:4]))
}
