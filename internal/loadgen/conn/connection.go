// Copyright 2026 David Meisner. All Rights Reserved.
//
// Created: July 2026
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package conn owns the one TCP stream a Worker speaks the memcached
// binary protocol over: connection setup, full-message send, and
// full-message receive.
package conn

import (
	"fmt"
	"io"
	"net"

	"github.com/dmeisner/cachebash-go/internal/loadgen/codec"
)

// ServerPort is the fixed memcached binary-protocol port the original
// speaks. The source never makes this configurable, and neither does
// cachebash-go.
const ServerPort = 11211

// Connection wraps one TCP stream to the server. It is not safe for
// concurrent use — each Worker owns exactly one Connection and drives it
// from a single goroutine.
type Connection struct {
	c     net.Conn
	debug bool
}

// Options configures Open.
type Options struct {
	// DisableNagle sets TCP_NODELAY when true. The source's default config
	// has use_naggles_=false (Nagle disabled); config.Config carries the
	// matching default and Open takes whatever the caller passes here.
	DisableNagle bool
	// Debug enables a byte-dump of every packet sent and received, for
	// protocol-level troubleshooting (the source's -d flag).
	Debug bool
	// Port overrides ServerPort. Zero means ServerPort; tests point this at
	// an ephemeral loopback listener instead of the fixed memcached port.
	Port int
}

// Open connects to host:port over IPv4 TCP, defaulting to ServerPort.
func Open(host string, opts Options) (*Connection, error) {
	port := opts.Port
	if port == 0 {
		port = ServerPort
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	c, err := net.Dial("tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("conn: dial %s: %w", addr, err)
	}
	if tc, ok := c.(*net.TCPConn); ok && opts.DisableNagle {
		if err := tc.SetNoDelay(true); err != nil {
			c.Close()
			return nil, fmt.Errorf("conn: setsockopt TCP_NODELAY: %w", err)
		}
	}
	return &Connection{c: c, debug: opts.Debug}, nil
}

// Close closes the underlying socket.
func (conn *Connection) Close() error {
	return conn.c.Close()
}

// Fd returns the underlying socket's raw file descriptor, for registering
// with a readiness-driven poller. It only succeeds when the Connection
// wraps a *net.TCPConn (true for everything Open returns); a net.Pipe-based
// test Connection has no fd to export.
func (conn *Connection) Fd() (int, error) {
	tc, ok := conn.c.(*net.TCPConn)
	if !ok {
		return 0, fmt.Errorf("conn: Fd: underlying connection has no raw descriptor")
	}
	rc, err := tc.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("conn: Fd: SyscallConn: %w", err)
	}
	var fd int
	ctrlErr := rc.Control(func(sysfd uintptr) { fd = int(sysfd) })
	if ctrlErr != nil {
		return 0, fmt.Errorf("conn: Fd: Control: %w", ctrlErr)
	}
	return fd, nil
}

// Send encodes req and writes it in full. A short write with an I/O error
// is fatal to the connection — there is no partial-request recovery,
// matching original_source/connection.cc's WriteBlock.
func (conn *Connection) Send(req codec.Request) error {
	buf := codec.EncodeRequest(req)
	if conn.debug {
		dumpBuffer("send", buf)
	}
	if err := writeFull(conn.c, buf); err != nil {
		return fmt.Errorf("conn: send: %w", err)
	}
	return nil
}

// Recv reads one full response: the fixed 24-byte header, then the body
// length it specifies. Partial reads loop until the full message is read;
// any I/O error mid-stream is fatal, matching the source's ReadBlock.
func (conn *Connection) Recv() (codec.ResponseHeader, []byte, error) {
	headerBuf := make([]byte, codec.HeaderLen)
	if err := readFull(conn.c, headerBuf); err != nil {
		return codec.ResponseHeader{}, nil, fmt.Errorf("conn: recv header: %w", err)
	}
	if conn.debug {
		dumpBuffer("recv header", headerBuf)
	}

	header, err := codec.DecodeResponseHeader(headerBuf)
	if err != nil {
		return codec.ResponseHeader{}, nil, fmt.Errorf("conn: recv: %w", err)
	}

	bodyLen := header.ExtrasLen + header.KeyLen + header.ValueLen()
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if err := readFull(conn.c, body); err != nil {
			return codec.ResponseHeader{}, nil, fmt.Errorf("conn: recv body: %w", err)
		}
	}
	if conn.debug {
		dumpBuffer("recv body", body)
	}

	return header, body, nil
}

// writeFull writes buf to w in full, looping over short writes the way
// write(2) can return them.
func writeFull(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// readFull reads exactly len(buf) bytes from r, looping over short reads.
func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}

// dumpBuffer prints a hex byte-dump of buf to stdout, tagged with label.
// This is the -d debug-packets facility from the source's PrintBuffer.
func dumpBuffer(label string, buf []byte) {
	fmt.Printf("[cachebash debug] %s (%d bytes): % x\n", label, len(buf), buf)
}
