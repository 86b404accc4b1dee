package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

const (
	levelError   = 3
	levelWarning = 4
	levelInfo    = 6
)

// Writer sends each log line as one GELF message over UDP. It is meant to sit
// behind log.SetOutput(io.MultiWriter(os.Stderr, w)).
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
	now      func() time.Time
}

func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}
	return &Writer{conn: conn, hostname: hostname, service: service, now: time.Now}, nil
}

// Write never fails the log call; send errors are dropped.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.message(string(p)))
	if err != nil {
		return len(p), nil
	}
	_, _ = w.conn.Write(payload)
	return len(p), nil
}

func (w *Writer) Close() error {
	return w.conn.Close()
}

func (w *Writer) message(line string) map[string]any {
	short := stripLogPrefix(strings.TrimRight(line, "\n"))
	return map[string]any{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": short,
		"timestamp":     float64(w.now().UnixNano()) / 1e9,
		"level":         levelFor(short),
		"_service":      w.service,
	}
}

// stripLogPrefix drops the "2006/01/02 15:04:05 " prefix of the standard logger.
func stripLogPrefix(msg string) string {
	if len(msg) > 20 && msg[4] == '/' && msg[7] == '/' && msg[10] == ' ' && msg[13] == ':' {
		return msg[20:]
	}
	return msg
}

func levelFor(msg string) int {
	lower := strings.ToLower(msg)
	switch {
	case strings.HasPrefix(lower, "failed") || strings.Contains(lower, "panic"):
		return levelError
	case strings.Contains(lower, " failed"):
		return levelWarning
	default:
		return levelInfo
	}
}
