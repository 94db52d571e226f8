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

// Package codec encodes and decodes the memcached binary protocol (v1)
// messages this load generator speaks: GET and SET requests, and the
// response header that precedes every reply.
package codec

import (
	"encoding/binary"
	"fmt"
)

const (
	magicRequest  = 0x80
	magicResponse = 0x81

	// HeaderLen is the fixed size, in bytes, of both the request and
	// response header.
	HeaderLen = 24

	// SetExtrasLen is the size, in bytes, of a SET request's extras
	// (flags + expiration). GET carries no extras.
	SetExtrasLen = 8
)

// Opcode identifies the operation a request packet carries.
type Opcode uint8

const (
	OpGet Opcode = 0x00
	OpSet Opcode = 0x01
)

// Status is the two-byte status field of a response header. The core's
// Worker neither records nor logs it: a response of any status is counted
// as a completed request and a latency sample.
type Status uint16

const (
	StatusSuccess        Status = 0x0000
	StatusKeyNotFound    Status = 0x0001
	StatusKeyExists      Status = 0x0002
	StatusValueTooLarge  Status = 0x0003
	StatusInvalidArg     Status = 0x0004
	StatusNotStored      Status = 0x0005
	StatusNonNumeric     Status = 0x0006
	StatusUnknownCommand Status = 0x0081
	StatusOutOfMemory    Status = 0x0082
)

// setExtras is the fixed 8-byte extras payload every SET request carries:
// flags followed by expiration. The source hardcodes flags to 0xDEADBEEF
// and expiration to 0; cachebash-go does the same since neither is
// observable by anything the core measures.
var setExtras = [SetExtrasLen]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00, 0x00, 0x00}

// Request is the wire-level shape of an outbound GET or SET. Callers
// normally build these from gen.Request rather than populating them
// directly.
type Request struct {
	Opcode Opcode
	Key    []byte
	Value  []byte // empty for OpGet
}

// EncodeRequest serializes req into a request packet: a 24-byte header
// followed by extras (8 bytes for SET, none for GET), then the key, then
// the value. opaque and cas are always zero.
func EncodeRequest(req Request) []byte {
	var extras []byte
	if req.Opcode == OpSet {
		extras = setExtras[:]
	}

	keyLen := len(req.Key)
	extrasLen := len(extras)
	valueLen := len(req.Value)
	totalBody := extrasLen + keyLen + valueLen

	buf := make([]byte, HeaderLen+totalBody)
	buf[0] = magicRequest
	buf[1] = byte(req.Opcode)
	binary.BigEndian.PutUint16(buf[2:4], uint16(keyLen))
	buf[4] = byte(extrasLen)
	buf[5] = 0                                // data type
	binary.BigEndian.PutUint16(buf[6:8], 0)   // reserved
	binary.BigEndian.PutUint32(buf[8:12], uint32(totalBody))
	binary.BigEndian.PutUint32(buf[12:16], 0) // opaque
	binary.BigEndian.PutUint64(buf[16:24], 0) // cas

	off := HeaderLen
	off += copy(buf[off:], extras)
	off += copy(buf[off:], req.Key)
	copy(buf[off:], req.Value)

	return buf
}

// DecodeRequest reverses EncodeRequest, reproducing the Opcode, Key, and
// Value (with SET's flags/expiration extras stripped, since the core never
// varies them). It exists for the codec's own structural round-trip tests.
func DecodeRequest(buf []byte) (Request, error) {
	if len(buf) < HeaderLen {
		return Request{}, fmt.Errorf("codec: request packet too short: %d bytes", len(buf))
	}
	if buf[0] != magicRequest {
		return Request{}, fmt.Errorf("codec: bad request magic 0x%02x", buf[0])
	}

	opcode := Opcode(buf[1])
	keyLen := int(binary.BigEndian.Uint16(buf[2:4]))
	extrasLen := int(buf[4])
	totalBody := int(binary.BigEndian.Uint32(buf[8:12]))
	valueLen := totalBody - extrasLen - keyLen

	if valueLen < 0 || len(buf) < HeaderLen+totalBody {
		return Request{}, fmt.Errorf("codec: inconsistent request body lengths (extras=%d key=%d total=%d)",
			extrasLen, keyLen, totalBody)
	}

	off := HeaderLen + extrasLen
	key := append([]byte(nil), buf[off:off+keyLen]...)
	off += keyLen
	value := append([]byte(nil), buf[off:off+valueLen]...)

	return Request{Opcode: opcode, Key: key, Value: value}, nil
}

// ResponseHeader is the decoded form of a response packet's fixed 24-byte
// header.
type ResponseHeader struct {
	Opcode    Opcode
	Status    Status
	KeyLen    int
	ExtrasLen int
	TotalBody int
	Opaque    uint32
	Cas       uint64
}

// ValueLen returns the length of the payload that follows extras and key
// in the response body.
func (h ResponseHeader) ValueLen() int {
	return h.TotalBody - h.ExtrasLen - h.KeyLen
}

// DecodeResponseHeader parses the fixed 24-byte response header. It is a
// FatalError-worthy condition (surfaced as a plain error here; the caller
// in conn.Connection treats it as fatal) for the magic byte to be anything
// but 0x81 — the source aborts the whole process in that case since it
// indicates the stream is desynchronized.
func DecodeResponseHeader(buf []byte) (ResponseHeader, error) {
	if len(buf) != HeaderLen {
		return ResponseHeader{}, fmt.Errorf("codec: response header must be %d bytes, got %d", HeaderLen, len(buf))
	}
	if buf[0] != magicResponse {
		return ResponseHeader{}, fmt.Errorf("codec: bad response magic 0x%02x, stream desynchronized", buf[0])
	}

	h := ResponseHeader{
		Opcode:    Opcode(buf[1]),
		KeyLen:    int(binary.BigEndian.Uint16(buf[2:4])),
		ExtrasLen: int(buf[4]),
		Status:    Status(binary.BigEndian.Uint16(buf[6:8])),
		TotalBody: int(binary.BigEndian.Uint32(buf[8:12])),
		Opaque:    binary.BigEndian.Uint32(buf[12:16]),
		Cas:       binary.BigEndian.Uint64(buf[16:24]),
	}
	if h.ValueLen() < 0 {
		return ResponseHeader{}, fmt.Errorf("codec: response header has negative value length (extras=%d key=%d total=%d)",
			h.ExtrasLen, h.KeyLen, h.TotalBody)
	}
	return h, nil
}
