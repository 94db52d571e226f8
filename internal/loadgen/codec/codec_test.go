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

package codec

import (
	"bytes"
	"testing"
)

func TestEncodeRequestGetFixture(t *testing.T) {
	want := []byte{
		0x80, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		'f', 'o', 'o',
	}
	got := EncodeRequest(Request{Opcode: OpGet, Key: []byte("foo")})
	if !bytes.Equal(got, want) {
		t.Errorf("GET \"foo\" packet mismatch:\n got  % x\n want % x", got, want)
	}
	if len(got) != 27 {
		t.Errorf("GET \"foo\" packet length = %d, want 27", len(got))
	}
}

func TestEncodeRequestSetFixture(t *testing.T) {
	want := []byte{
		0x80, 0x01, 0x00, 0x03, 0x08, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x0E, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00, 0x00, 0x00,
		'f', 'o', 'o', 'b', 'a', 'r',
	}
	got := EncodeRequest(Request{Opcode: OpSet, Key: []byte("foo"), Value: []byte("bar")})
	if !bytes.Equal(got, want) {
		t.Errorf("SET \"foo\"=\"bar\" packet mismatch:\n got  % x\n want % x", got, want)
	}
	if len(got) != 38 {
		t.Errorf("SET \"foo\"=\"bar\" packet length = %d, want 38", len(got))
	}
}

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request{
		{Opcode: OpGet, Key: []byte("foo")},
		{Opcode: OpSet, Key: []byte("foo"), Value: []byte("bar")},
		{Opcode: OpSet, Key: []byte("k"), Value: []byte("")},
	}
	for _, want := range cases {
		buf := EncodeRequest(want)
		got, err := DecodeRequest(buf)
		if err != nil {
			t.Fatalf("DecodeRequest: %v", err)
		}
		if got.Opcode != want.Opcode {
			t.Errorf("Opcode = %v, want %v", got.Opcode, want.Opcode)
		}
		if !bytes.Equal(got.Key, want.Key) {
			t.Errorf("Key = %q, want %q", got.Key, want.Key)
		}
		if !bytes.Equal(got.Value, want.Value) && !(len(got.Value) == 0 && len(want.Value) == 0) {
			t.Errorf("Value = %q, want %q", got.Value, want.Value)
		}
	}
}

func TestDecodeResponseHeaderSuccess(t *testing.T) {
	buf := []byte{
		0x81, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	h, err := DecodeResponseHeader(buf)
	if err != nil {
		t.Fatalf("DecodeResponseHeader: %v", err)
	}
	if h.Status != StatusSuccess {
		t.Errorf("Status = %v, want StatusSuccess", h.Status)
	}
	if h.ValueLen() != 0 {
		t.Errorf("ValueLen() = %d, want 0", h.ValueLen())
	}
}

func TestDecodeResponseHeaderBadMagicIsFatal(t *testing.T) {
	buf := make([]byte, HeaderLen)
	buf[0] = 0x80 // request magic, not response
	if _, err := DecodeResponseHeader(buf); err == nil {
		t.Fatal("DecodeResponseHeader with bad magic: expected error, got nil")
	}
}

func TestDecodeResponseHeaderWrongLength(t *testing.T) {
	if _, err := DecodeResponseHeader(make([]byte, HeaderLen-1)); err == nil {
		t.Fatal("DecodeResponseHeader with short buffer: expected error, got nil")
	}
}
