// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package bitbang

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/Thewbi/riscv-openocd-jtag-mock/tap"
)

// Timing constants matching the cooperative single-threaded polling loop:
// a short backoff on accept when idle, and a shorter one on read, so the
// server never spins a hot loop while also never blocking indefinitely on
// a single client's silence.
const (
	acceptBackoff = 300 * time.Millisecond
	readBackoff   = 20 * time.Millisecond
	writeBackoff  = 5 * time.Millisecond
)

// Server listens for a single Remote Bitbang client at a time and drives a
// Decoder with every byte it reads.
type Server struct {
	listener net.Listener
	decoder  *Decoder
}

// NewServer binds addr (e.g. ":3335") with SO_REUSEADDR set explicitly via
// golang.org/x/sys/unix, matching the non-blocking-server contract spec'd
// for the network layer. machine and pins are the TAP machine and the
// TDI/TDO pin contract the decoder drives; in this emulator's wiring pins
// is the dtm.Layer that also backs machine's observer.
func NewServer(addr string, machine *tap.Machine, pins Pins) (*Server, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var controlErr error
			err := c.Control(func(fd uintptr) {
				controlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return controlErr
		},
	}

	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bitbang: listen on %s: %w", addr, err)
	}

	limiter := rate.NewLimiter(rate.Every(time.Second), 1)
	decoder := NewDecoder(machine, pins, limiter)

	return &Server{listener: ln, decoder: decoder}, nil
}

// Addr returns the listener's bound address, useful when the server was
// started on an ephemeral port (":0") for testing.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Serve runs the accept loop until ctx is cancelled or a fatal socket error
// occurs, in which case it calls log.Fatalf, matching the network server's
// documented failure semantics: transient errors back off and retry, all
// others abort the process.
func (s *Server) Serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if tl, ok := s.listener.(interface {
			SetDeadline(time.Time) error
		}); ok {
			_ = tl.SetDeadline(time.Now().Add(acceptBackoff))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Fatalf("bitbang: accept failed: %v", err)
		}

		s.serveClient(ctx, conn)
	}
}

// serveClient runs the single-client byte loop until the peer sends 'Q',
// disconnects, or a fatal socket error occurs.
func (s *Server) serveClient(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 1)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(readBackoff))

		n, err := conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// A peer disconnect surfaces as io.EOF or a reset; both are
			// treated as an implicit 'Q', matching the documented
			// disconnect-as-Q lifecycle.
			return
		}
		if n == 0 {
			continue
		}

		reply, hasReply, quit := s.decoder.Execute(buf[0])

		if hasReply {
			if !s.writeByte(conn, reply) {
				return
			}
		}

		if quit {
			return
		}
	}
}

// writeByte loops until the single response byte is accepted by the
// kernel, backing off briefly on EAGAIN-equivalent timeouts, and returns
// false if the connection failed outright.
func (s *Server) writeByte(conn net.Conn, b byte) bool {
	out := []byte{b}

	for len(out) > 0 {
		conn.SetWriteDeadline(time.Now().Add(writeBackoff))

		n, err := conn.Write(out)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return false
			}
			log.Fatalf("bitbang: write failed: %v", err)
		}
		out = out[n:]
	}

	return true
}
