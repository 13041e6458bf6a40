package recorder

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
)

const testRate = 16000

func TestBeginWhileActiveIsNoOp(t *testing.T) {
	r := New(testRate, 3000)
	now := time.Now()

	if !r.Begin(now) {
		t.Fatalf("Begin() = false, want true")
	}
	if r.Begin(now.Add(time.Second)) {
		t.Fatalf("Begin() while active = true, want false")
	}
	if !r.Active() {
		t.Fatalf("Active() = false after Begin")
	}
}

func TestEndIsIdempotent(t *testing.T) {
	r := New(testRate, 0)
	r.Begin(time.Now())
	r.Write(make([]float32, testRate))

	if _, ok := r.End(); !ok {
		t.Fatalf("End() ok = false, want true")
	}
	if _, ok := r.End(); ok {
		t.Fatalf("second End() ok = true, want false")
	}
}

func TestEndWithoutBegin(t *testing.T) {
	r := New(testRate, 3000)
	if _, ok := r.End(); ok {
		t.Fatalf("End() without Begin ok = true, want false")
	}
}

func TestShortPayloadDiscarded(t *testing.T) {
	r := New(testRate, 3000)
	r.Begin(time.Now())
	// 1000 samples is 2000 PCM bytes, below the 3000-byte floor.
	r.Write(make([]float32, 1000))

	if rec, ok := r.End(); ok {
		t.Fatalf("End() = (%d bytes, true), want discard", len(rec.Payload))
	}
	if r.Active() {
		t.Fatalf("Active() = true after discard")
	}
}

func TestWriteWhileInactiveDropped(t *testing.T) {
	r := New(testRate, 0)
	r.Write(make([]float32, testRate))
	r.Begin(time.Now())

	rec, ok := r.End()
	if !ok {
		t.Fatalf("End() ok = false")
	}
	body := rec.Payload[44:]
	if len(body) != 0 {
		t.Fatalf("payload body = %d bytes, want 0 (pre-Begin chunks dropped)", len(body))
	}
}

func TestPayloadIsWellFormedWAV(t *testing.T) {
	r := New(testRate, 3000)
	r.Begin(time.Now())
	samples := make([]float32, testRate) // one second
	samples[0] = 1.0
	samples[1] = -1.0
	samples[2] = 0.5
	r.Write(samples)

	rec, ok := r.End()
	if !ok {
		t.Fatalf("End() ok = false")
	}
	if rec.DurationMS != 1000 {
		t.Fatalf("DurationMS = %d, want 1000", rec.DurationMS)
	}

	p := rec.Payload
	if len(p) != 44+2*testRate {
		t.Fatalf("payload = %d bytes, want %d", len(p), 44+2*testRate)
	}
	if !bytes.Equal(p[0:4], []byte("RIFF")) || !bytes.Equal(p[8:12], []byte("WAVE")) {
		t.Fatalf("payload is not a RIFF/WAVE container")
	}
	if got := binary.LittleEndian.Uint32(p[24:28]); got != testRate {
		t.Fatalf("sample rate = %d, want %d", got, testRate)
	}
	if got := binary.LittleEndian.Uint32(p[40:44]); got != 2*testRate {
		t.Fatalf("data size = %d, want %d", got, 2*testRate)
	}

	body := p[44:]
	if got := int16(binary.LittleEndian.Uint16(body[0:2])); got != 32767 {
		t.Fatalf("sample[0] = %d, want 32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(body[2:4])); got != -32767 {
		t.Fatalf("sample[1] = %d, want -32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(body[4:6])); got != 16384 {
		t.Fatalf("sample[2] = %d, want 16384", got)
	}
}

func TestBeginResetsPreviousBuffer(t *testing.T) {
	r := New(testRate, 0)
	r.Begin(time.Now())
	r.Write(make([]float32, 100))
	r.End()

	r.Begin(time.Now())
	r.Write(make([]float32, 10))
	rec, ok := r.End()
	if !ok {
		t.Fatalf("End() ok = false")
	}
	if got := len(rec.Payload) - 44; got != 20 {
		t.Fatalf("payload body = %d bytes, want 20", got)
	}
}
