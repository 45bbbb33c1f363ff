package rpc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"
)

// Handler processes one decoded request and produces its response. A
// handler must always return a response; returning nil produces an
// ErrorResponse on the wire.
type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

// Server accepts TCP connections and runs a frame loop per connection.
// Each connection carries a sequence of request/response exchanges; a
// decode failure terminates that connection only.
type Server struct {
	handler Handler
	log     *zap.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewServer returns a server dispatching to handler.
func NewServer(handler Handler, log *zap.Logger) *Server {
	return &Server{handler: handler, log: log}
}

// Listen binds the server to addr and returns the bound address, which is
// useful when addr requests an ephemeral port.
func (s *Server) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return ln.Addr().String(), nil
}

// Serve runs the accept loop until ctx is canceled or the listener closes.
// Listen must have been called first.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("rpc: serve before listen")
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)

	for {
		msg, err := ReadMessage(r)
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				s.log.Debug("connection read failed",
					zap.String("peer", conn.RemoteAddr().String()),
					zap.Error(err))
			}
			return
		}

		req, ok := msg.(Request)
		var resp Response
		if !ok {
			resp = &ErrorResponse{Message: fmt.Sprintf("unexpected message type %T", msg)}
		} else {
			resp = s.handler.Handle(ctx, req)
			if resp == nil {
				resp = &ErrorResponse{Message: fmt.Sprintf("no response for %T", req)}
			}
		}

		if err := WriteMessage(conn, resp); err != nil {
			s.log.Debug("connection write failed",
				zap.String("peer", conn.RemoteAddr().String()),
				zap.Error(err))
			return
		}
	}
}
