package ui

import (
	"bufio"
	"context"
	"io"
)

// Input reads lines from a terminal. One goroutine owns the reader so a
// prompt abandoned on cancellation never swallows the next line.
type Input struct {
	lines chan string
	err   error
	done  chan struct{}
}

// NewInput starts reading lines from r.
func NewInput(r io.Reader) *Input {
	in := &Input{
		lines: make(chan string),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(in.done)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			in.lines <- scanner.Text()
		}
		in.err = scanner.Err()
	}()
	return in
}

// ReadLine waits for the next line. It returns io.EOF when input ends and
// the context error when ctx is done first.
func (in *Input) ReadLine(ctx context.Context) (string, error) {
	select {
	case line := <-in.lines:
		return line, nil
	case <-in.done:
		if in.err != nil {
			return "", in.err
		}
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
