package ember

import (
	"net"
	"time"
)

// listener wraps a *net.TCPListener to enable TCP keep-alive on every
// accepted socket. PROXY-protocol relaying is intentionally not
// supported — there is no notion of an upstream proxy relayer here.
type listener struct {
	*net.TCPListener
}

// listen opens a TCP listener bound to address.
func listen(address string) (*listener, error) {
	nl, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &listener{TCPListener: nl.(*net.TCPListener)}, nil
}

// Accept implements net.Listener, turning on TCP keep-alive on the
// accepted connection.
func (l *listener) Accept() (net.Conn, error) {
	tc, err := l.AcceptTCP()
	if err != nil {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
