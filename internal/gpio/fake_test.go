package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader(true, false, true)

	want := []bool{true, false, true, true}
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("sample %d: expected %v, got %v", i, w, got)
		}
	}

	if f.Reads != len(want) {
		t.Errorf("expected %d reads, got %d", len(want), f.Reads)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader()

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader(true)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderSet(t *testing.T) {
	f := NewFakeReader(false, false, false)
	f.Read()

	f.Set(true)
	for i := 0; i < 3; i++ {
		got, _ := f.Read()
		if !got {
			t.Errorf("read %d after Set(true): got false", i)
		}
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader(true)

	if f.Closed {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader(true, false)

	f.Read()
	f.Reset()

	got, _ := f.Read()
	if got != true {
		t.Errorf("after reset: expected true, got %v", got)
	}
}
