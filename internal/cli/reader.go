package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

type lineResult struct {
	err  error
	line string
}

// LineReader reads lines on demand so a prompt can be abandoned when its
// context ends. A read left behind by a canceled prompt is handed to the
// next one.
type LineReader struct {
	reader   *bufio.Reader
	requests chan struct{}
	results  chan lineResult
	start    sync.Once
	mu       sync.Mutex
	pending  bool
}

// NewLineReader creates a reader over r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		reader:   bufio.NewReader(r),
		requests: make(chan struct{}),
		results:  make(chan lineResult, 1),
	}
}

func (r *LineReader) loop() {
	for range r.requests {
		line, err := r.reader.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		r.results <- lineResult{line: line, err: err}
	}
}

// ReadLine reads one line without surrounding whitespace.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.start.Do(func() { go r.loop() })

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.pending {
		select {
		case r.requests <- struct{}{}:
			r.pending = true
		case <-ctx.Done():
			return "", ErrInputCancelled
		}
	}

	select {
	case res := <-r.results:
		r.pending = false
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	case <-ctx.Done():
		return "", ErrInputCancelled
	}
}
