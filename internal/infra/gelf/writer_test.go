package gelf

import (
	"encoding/json"
	"net"
	"testing"
	"time"
)

func TestWriterSendsGELF(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()

	w, err := New(pc.LocalAddr().String(), "docrequest-api")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("2026/10/01 12:00:00 audit append failed: boom\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(buf[:n], &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg["short_message"] != "audit append failed: boom" {
		t.Fatalf("unexpected short_message %v", msg["short_message"])
	}
	if msg["_service"] != "docrequest-api" {
		t.Fatalf("unexpected service %v", msg["_service"])
	}
	if msg["level"].(float64) != levelWarning {
		t.Fatalf("expected warning level, got %v", msg["level"])
	}
}

func TestLevelFor(t *testing.T) {
	cases := map[string]int{
		"failed to init store: x":      levelError,
		"otp delivery failed: request": levelWarning,
		"server listening on :8080":    levelInfo,
	}
	for msg, want := range cases {
		if got := levelFor(msg); got != want {
			t.Fatalf("%q: expected %d, got %d", msg, want, got)
		}
	}
}
