package ember

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"sync"
)

// Server is the top-level embeddable HTTP/1.1 server: it owns the
// listening endpoints, fans accepted sockets out to per-connection
// workers, and dispatches each request through Resolver. It is a flat
// options record (Config) plus a handful of lifecycle methods
// (Serve/Close/Shutdown/AddShutdownJob).
type Server struct {
	Config   *Config
	Resolver *Resolver
	Logger   *Logger

	// ErrorHandler gets first refusal at turning an error into a
	// response. If it is nil or itself returns nil, DefaultErrorResponse
	// is used.
	ErrorHandler func(err error, req *Request) *Response

	fileCacheOnce sync.Once
	fileCache     *fileCache

	mu        sync.Mutex
	listeners []net.Listener

	shutdownMu   sync.Mutex
	shutdownJobs []func()
}

// NewServer returns a Server configured with cfg (or NewConfig's
// defaults if cfg is nil), an empty Resolver, and a Logger writing to
// stderr.
func NewServer(cfg *Config) *Server {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Server{
		Config:   cfg,
		Resolver: NewResolver(),
		Logger:   NewLogger(),
	}
}

// Handle is a convenience for Resolver.Add.
func (s *Server) Handle(hook Hook, h Handler) error {
	return s.Resolver.Add(hook, h)
}

// fileCacheFor lazily builds the server's static-file memory cache,
// sized from Config.FileCacheMaxMemoryBytes. A zero size disables
// caching: callers fall back to reading the file directly.
func (s *Server) fileCacheFor() *fileCache {
	if s.Config.FileCacheMaxMemoryBytes <= 0 {
		return nil
	}
	s.fileCacheOnce.Do(func() {
		fc, err := newFileCache(s.Config.FileCacheMaxMemoryBytes)
		if err != nil {
			s.Logger.Errorf("ember: failed to start file cache: %v", err)
			return
		}
		s.fileCache = fc
	})
	return s.fileCache
}

// dispatch routes req through Resolver, converting any resulting error
// into a response via the error-handler hook.
func (s *Server) dispatch(req *Request) (res *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			res = s.handleError(panicToError(rec), req)
		}
	}()

	r, err := s.Resolver.Resolve(req)
	if err != nil {
		return s.handleError(err, req)
	}
	return r
}

func (s *Server) handleError(err error, req *Request) (res *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			s.Logger.Errorf("ember: error handler panicked: %v", rec)
			res = DefaultErrorResponse(err, s.Config.OutputExceptionInformation)
		}
	}()

	if s.ErrorHandler != nil {
		if r := s.ErrorHandler(err, req); r != nil {
			return r
		}
	}
	return DefaultErrorResponse(err, s.Config.OutputExceptionInformation)
}

// Serve binds every configured endpoint (plain on Config.Port, secure on
// Config.SecurePort) and blocks accepting and serving connections until
// every listener closes. It returns the first non-close-related error
// from either accept loop.
func (s *Server) Serve() error {
	if s.Config.Port == 0 && s.Config.SecurePort == 0 {
		return errors.New("ember: neither port nor secure-port is configured")
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if s.Config.Port != 0 {
		l, err := listen(net.JoinHostPort(s.Config.BindAddress, strconv.Itoa(s.Config.Port)))
		if err != nil {
			return err
		}
		s.trackListener(l)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- s.acceptLoop(l, false)
		}()
	}

	if s.Config.SecurePort != 0 {
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			return err
		}
		l, err := listen(net.JoinHostPort(s.Config.BindAddress, strconv.Itoa(s.Config.SecurePort)))
		if err != nil {
			return err
		}
		s.trackListener(l)
		tl := tls.NewListener(l, tlsConfig)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- s.acceptLoop(tl, true)
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
	}
	return nil
}

// buildTLSConfig loads the certificate/key pair named by
// Config.CertificatePath/CertificateKeyPath for the secure listener. TLS
// termination itself is handled by crypto/tls (tls.Config,
// tls.NewListener); SNI-based certificate selection policy is treated as
// an external collaborator and out of scope here.
//
// CertificatePassword is accepted for config-file compatibility with
// deployments that carry an encrypted key, but crypto/tls has no
// supported API for decrypting a PEM-encoded private key (the
// x509.IsEncryptedPEMBlock/DecryptPEMBlock pair is deprecated and
// insecure); an encrypted key here fails with a clear error rather than
// silently ignoring the password.
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	if s.Config.CertificateKeyPath == "" {
		return nil, Wrap(errors.New("ember: secure-port is set but certificate-key-path is empty"))
	}
	if s.Config.CertificatePassword != "" {
		return nil, Wrap(errors.New("ember: encrypted private keys are not supported; leave certificate-password empty"))
	}
	cert, err := tls.LoadX509KeyPair(s.Config.CertificatePath, s.Config.CertificateKeyPath)
	if err != nil {
		return nil, Wrap(err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
}

func (s *Server) trackListener(l net.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// acceptLoop accepts connections from l until it returns an error (e.g.
// because Close closed it), spawning one independent worker goroutine
// per accepted socket.
func (s *Server) acceptLoop(l net.Listener, secure bool) error {
	for {
		c, err := l.Accept()
		if err != nil {
			return err
		}
		go s.serveConn(c, secure)
	}
}

// Close closes every listening endpoint immediately, without waiting for
// in-flight connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, l := range s.listeners {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.fileCache != nil {
		s.fileCache.Close()
	}
	return firstErr
}

// Shutdown closes every listening endpoint, then runs every registered
// shutdown job concurrently and waits for them to finish, or for ctx to
// expire. It does not wait for hijacked connections such as WebSockets;
// callers needing that should use a shutdown job.
func (s *Server) Shutdown(ctx context.Context) error {
	closeErr := s.Close()

	done := make(chan struct{})
	go func() {
		s.shutdownMu.Lock()
		jobs := append([]func(){}, s.shutdownJobs...)
		s.shutdownMu.Unlock()

		var wg sync.WaitGroup
		for _, job := range jobs {
			if job == nil {
				continue
			}
			wg.Add(1)
			go func(job func()) {
				defer wg.Done()
				job()
			}(job)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return closeErr
	}
}

// AddShutdownJob registers f to run exactly once when Shutdown is
// called, returning an ID usable with RemoveShutdownJob.
func (s *Server) AddShutdownJob(f func()) int {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	s.shutdownJobs = append(s.shutdownJobs, f)
	return len(s.shutdownJobs) - 1
}

// RemoveShutdownJob unregisters the shutdown job with the given id.
func (s *Server) RemoveShutdownJob(id int) {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	if id >= 0 && id < len(s.shutdownJobs) {
		s.shutdownJobs[id] = nil
	}
}

func panicToError(rec interface{}) error {
	if err, ok := rec.(error); ok {
		return Wrap(err)
	}
	return Wrap(errors.New(toString(rec)))
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "ember: handler panic: unrecoverable value"
}
