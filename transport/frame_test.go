package transport

import (
	"bytes"
	"testing"
)

func TestWriteFrameThenReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := []byte("hello geomesh")

	if err := writeFrame(&buf, body); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	got, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("got %q, want %q", got, body)
	}
}

func TestWriteFrameEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, nil); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	got, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected an empty body, got %q", got)
	}
}

func TestWriteFrameRejectsOversizedBody(t *testing.T) {
	var buf bytes.Buffer
	oversized := make([]byte, MaxMessageSize+1)
	err := writeFrame(&buf, oversized)
	if err == nil {
		t.Fatalf("expected an error writing an oversized body")
	}
	if _, ok := err.(ErrMessageTooLarge); !ok {
		t.Fatalf("got error %v (%T), want ErrMessageTooLarge", err, err)
	}
}

func TestReadFrameRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(99)
	buf.Write([]byte{0, 0, 0, 0})

	_, err := readFrame(&buf)
	if _, ok := err.(ErrBadVersion); !ok {
		t.Fatalf("got error %v (%T), want ErrBadVersion", err, err)
	}
}

func TestReadFrameRejectsTruncatedHeader(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(ProtocolVersionByte)
	buf.Write([]byte{0, 0}) // only 2 of 4 length bytes

	if _, err := readFrame(&buf); err == nil {
		t.Fatalf("expected an error reading a truncated header")
	}
}

func TestReadFrameRejectsTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(ProtocolVersionByte)
	buf.Write([]byte{10, 0, 0, 0}) // announces 10 bytes
	buf.Write([]byte{1, 2, 3})     // but only 3 follow

	if _, err := readFrame(&buf); err == nil {
		t.Fatalf("expected an error reading a truncated body")
	}
}
