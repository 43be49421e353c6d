package server

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sevaergdm/tcpfileserver/internal/request"
	"github.com/sevaergdm/tcpfileserver/internal/response"
)

// Handler answers one parsed request. It returns an error only when the
// response could not be written.
type Handler func(w *response.Writer, req *request.Request) error

type Config struct {
	Addr string

	// Zero disables the deadline. A worker without a read deadline waits on
	// a stalled client forever.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxConns caps concurrently served connections; zero means no cap.
	MaxConns int

	// MaxHeaderBytes defaults to request.DefaultMaxHeaderBytes when zero.
	MaxHeaderBytes int

	Log logrus.FieldLogger
}

type Server struct {
	Listener net.Listener
	Closed   atomic.Bool

	handler Handler
	cfg     Config
	log     logrus.FieldLogger
	slots   chan struct{}
}

func (s *Server) listen() {
	for {
		s.acquire()
		conn, err := s.Listener.Accept()
		if err != nil {
			s.release()
			if s.Closed.Load() {
				return
			}
			s.log.WithError(err).Error("accept error")
			continue
		}

		s.log.WithField("remote", conn.RemoteAddr().String()).Debug("accepted connection")
		go func() {
			defer s.release()
			s.handle(conn)
		}()
	}
}

func (s *Server) acquire() {
	if s.slots != nil {
		s.slots <- struct{}{}
	}
}

func (s *Server) release() {
	if s.slots != nil {
		<-s.slots
	}
}

// Addr is the address the listener is bound to.
func (s *Server) Addr() net.Addr {
	return s.Listener.Addr()
}

// Close stops accepting connections. Workers already running finish on their own.
func (s *Server) Close() error {
	s.Closed.Store(true)
	if s.Listener != nil {
		return s.Listener.Close()
	}
	return nil
}

// handle serves exactly one request on c and closes it.
func (s *Server) handle(c net.Conn) {
	defer c.Close()
	log := s.log.WithField("remote", c.RemoteAddr().String())
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("worker panicked")
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		c.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
	req, err := request.RequestFromReaderLimit(c, s.cfg.MaxHeaderBytes)
	if err != nil {
		entry := log.WithError(err)
		if errors.Is(err, request.ErrIncompleteRequest) {
			entry.Debug("connection closed before a full request")
			return
		}
		entry.Warn("failed to read request")
		return
	}

	if s.cfg.WriteTimeout > 0 {
		c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := s.handler(response.NewWriter(c), req); err != nil {
		log.WithError(err).Debug("connection aborted")
	}
}

// Serve binds cfg.Addr and starts accepting in the background.
func Serve(handler Handler, cfg Config) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}

	if cfg.MaxHeaderBytes == 0 {
		cfg.MaxHeaderBytes = request.DefaultMaxHeaderBytes
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	server := &Server{
		Listener: listener,
		handler:  handler,
		cfg:      cfg,
		log:      log,
	}
	if cfg.MaxConns > 0 {
		server.slots = make(chan struct{}, cfg.MaxConns)
	}

	go server.listen()

	return server, nil
}
