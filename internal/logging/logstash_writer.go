// Package logging mirrors the standard logger to a Logstash TCP input.
package logging

import (
	"errors"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

const defaultQueueSize = 1024

var ErrClosed = errors.New("logstash: writer closed")

type dialFunc func(network, addr string, timeout time.Duration) (net.Conn, error)

// LogstashWriter queues log lines and ships them from a single goroutine, so
// a slow or missing Logstash never blocks the caller. Lines are dropped when
// the queue is full or while the connection is in its retry cool-down.
type LogstashWriter struct {
	addr          string
	dialTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration
	dial          dialFunc

	lines chan []byte
	done  chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped uint64
}

type Option func(*LogstashWriter)

func WithDialTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.dialTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.writeTimeout = d }
}

// WithRetryInterval sets how long to wait after a failed dial or write before
// connecting again.
func WithRetryInterval(d time.Duration) Option {
	return func(w *LogstashWriter) { w.retryInterval = d }
}

func WithQueueSize(n int) Option {
	return func(w *LogstashWriter) {
		if n > 0 {
			w.lines = make(chan []byte, n)
		}
	}
}

func NewLogstashWriter(addr string, opts ...Option) (*LogstashWriter, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("logstash: empty address")
	}

	w := &LogstashWriter{
		addr:          strings.TrimSpace(addr),
		dialTimeout:   2 * time.Second,
		writeTimeout:  time.Second,
		retryInterval: 5 * time.Second,
		dial:          net.DialTimeout,
		lines:         make(chan []byte, defaultQueueSize),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w, nil
}

// Write never blocks on the network. It reports len(p) even for dropped lines
// so io.MultiWriter keeps writing to the other outputs.
func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	line := make([]byte, len(p), len(p)+1)
	copy(line, p)
	if line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}
	select {
	case w.lines <- line:
	default:
		w.dropped++
	}
	return len(p), nil
}

// Dropped returns how many lines were discarded because the queue was full.
func (w *LogstashWriter) Dropped() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Close stops accepting lines, flushes what is queued on a best effort basis
// and closes the connection.
func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.lines)
	w.mu.Unlock()

	<-w.done
	return nil
}

func (w *LogstashWriter) run() {
	defer close(w.done)

	var (
		conn      net.Conn
		nextRetry time.Time
	)
	defer func() {
		if conn != nil {
			_ = conn.Close()
		}
	}()

	for line := range w.lines {
		if conn == nil {
			if time.Now().Before(nextRetry) {
				continue
			}
			c, err := w.dial("tcp", w.addr, w.dialTimeout)
			if err != nil {
				nextRetry = time.Now().Add(w.retryInterval)
				continue
			}
			conn = c
		}

		if w.writeTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
		}
		if _, err := conn.Write(line); err != nil {
			_ = conn.Close()
			conn = nil
			nextRetry = time.Now().Add(w.retryInterval)
		}
	}
}

// Setup points the standard logger at stderr and, when addr is set, at
// Logstash as well. The returned closer flushes the Logstash writer.
func Setup(addr string) io.Closer {
	if strings.TrimSpace(addr) == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}
	writer, err := NewLogstashWriter(addr)
	if err != nil {
		log.Printf("logging: logstash disabled: %v", err)
		return io.NopCloser(nil)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, writer))
	log.Printf("logging: mirroring to logstash at %s", addr)
	return writer
}
