// Package origin serves canned HTTP/1.1 responses on a loopback listener.
// Each connection carries one request and is closed after the reply.
package origin

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"sync"

	"stream-fetch/application/http"
	"stream-fetch/application/util/rule"
	iolib "stream-fetch/lib/io"

	"github.com/pkg/errors"
)

const maxRequestHead = 64 << 10

// HandleFunc picks the reply to req.
type HandleFunc func(req http.Request) Reply

// Static replies with reply to every request.
func Static(reply Reply) HandleFunc {
	return func(http.Request) Reply { return reply }
}

type Server struct {
	l      net.Listener
	secure bool

	logger *slog.Logger
	handle HandleFunc

	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu       sync.Mutex
	requests []http.Request
}

// Listen starts a plain server on a random loopback port.
func Listen(logger *slog.Logger, handle HandleFunc) (*Server, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Wrap(err, "listening")
	}
	return start(l, false, logger, handle), nil
}

// ListenTLS starts a server presenting cert on a random loopback port.
func ListenTLS(logger *slog.Logger, cert tls.Certificate, handle HandleFunc) (*Server, error) {
	l, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		return nil, errors.Wrap(err, "listening")
	}
	return start(l, true, logger, handle), nil
}

func start(l net.Listener, secure bool, logger *slog.Logger, handle HandleFunc) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		l:      l,
		secure: secure,
		logger: logger.With("addr", l.Addr().String()),
		handle: handle,
		cancel: cancel,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := l.Accept()
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Error("unexpected error when accepting connection", "error", err)
				}
				return
			}

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.serve(conn)
			}()
		}
	}()

	return s
}

func (s *Server) Addr() string { return s.l.Addr().String() }

// URL returns an absolute URL of path on this server.
func (s *Server) URL(path string) string {
	scheme := "http://"
	if s.secure {
		scheme = "https://"
	}
	return scheme + s.Addr() + path
}

// Requests returns the requests received so far.
func (s *Server) Requests() []http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Request(nil), s.requests...)
}

// Close stops accepting and waits for open connections to finish.
func (s *Server) Close() error {
	s.cancel()
	err := s.l.Close()
	s.wg.Wait()
	return errors.Wrap(err, "closing listener")
}

func (s *Server) serve(conn net.Conn) {
	logger := s.logger.With("conn", conn.RemoteAddr().String())
	defer func() {
		logger.Debug("closing connection")
		if err := conn.Close(); err != nil {
			logger.Debug("error when closing connection", "error", err)
		}
	}()

	head, err := iolib.NewUntilReader(conn).ReadUntilLimit(rule.HeadTerminator, maxRequestHead)
	if err != nil {
		logger.Debug("reading request head", "error", err)
		return
	}

	req, err := http.ParseRequest(string(head))
	if err != nil {
		logger.Debug("parsing request", "error", err)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	reply := s.handle(req)
	if err := reply.writeTo(conn); err != nil {
		logger.Debug("writing reply", "error", err)
	}
}
