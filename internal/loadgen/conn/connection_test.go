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

package conn

import (
	"io"
	"net"
	"testing"

	"github.com/dmeisner/cachebash-go/internal/loadgen/codec"
)

// pipeConnection builds a Connection directly over an in-memory net.Pipe,
// bypassing Open/net.Dial, so the test never touches a real socket.
func pipeConnection() (*Connection, net.Conn) {
	client, server := net.Pipe()
	return &Connection{c: client}, server
}

func TestSendWritesEncodedRequest(t *testing.T) {
	c, server := pipeConnection()
	defer server.Close()

	done := make(chan error, 1)
	go func() { done <- c.Send(codec.Request{Opcode: codec.OpGet, Key: []byte("foo")}) }()

	buf := make([]byte, 27)
	if _, err := io.ReadFull(server, buf); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := codec.EncodeRequest(codec.Request{Opcode: codec.OpGet, Key: []byte("foo")})
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d = 0x%02x, want 0x%02x", i, buf[i], want[i])
		}
	}
}

func TestRecvParsesHeaderAndBody(t *testing.T) {
	c, server := pipeConnection()
	defer server.Close()

	header := []byte{
		0x81, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	body := []byte("bar")

	go func() {
		server.Write(header)
		server.Write(body)
	}()

	h, got, err := c.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if h.Status != codec.StatusSuccess {
		t.Errorf("Status = %v, want StatusSuccess", h.Status)
	}
	if string(got) != "bar" {
		t.Errorf("body = %q, want %q", got, "bar")
	}
}

func TestRecvBadMagicIsError(t *testing.T) {
	c, server := pipeConnection()
	defer server.Close()

	go server.Write(make([]byte, codec.HeaderLen)) // all-zero: magic 0x00, not 0x81

	if _, _, err := c.Recv(); err == nil {
		t.Fatal("Recv with bad magic: expected error, got nil")
	}
}
