package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// Stream is a finite, ordered, non-restartable sequence of text chunks.
// Next returns io.EOF once the model has finished. A Stream is not safe for
// concurrent use, except that Close may be called from another goroutine to
// abort a blocked Next.
type Stream struct {
	ctx      context.Context
	recv     func() (string, error)
	closeFn  func()
	classify func(context.Context, error) error

	once sync.Once
	done bool
}

func newStream(ctx context.Context, recv func() (string, error), closeFn func(), classify func(context.Context, error) error) *Stream {
	return &Stream{ctx: ctx, recv: recv, closeFn: closeFn, classify: classify}
}

// NewStream builds a Stream from a chunk source. closeFn may be nil.
func NewStream(recv func() (string, error), closeFn func()) *Stream {
	if closeFn == nil {
		closeFn = func() {}
	}
	return &Stream{ctx: context.Background(), recv: recv, closeFn: closeFn}
}

// Next returns the next chunk, io.EOF at the end, or a classified error.
// After io.EOF or an error the stream stays exhausted.
func (s *Stream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	chunk, err := s.recv()
	if err == nil {
		return chunk, nil
	}

	s.done = true
	s.Close()
	if errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	if s.classify != nil {
		err = s.classify(s.ctx, err)
	}
	return "", err
}

// Close releases the underlying connection. It is idempotent.
func (s *Stream) Close() {
	s.once.Do(s.closeFn)
}

// Collect drains s, invoking onChunk (if non-nil) for each chunk, and returns
// the concatenated output. s is closed on return.
func Collect(ctx context.Context, s *Stream, onChunk func(string)) (string, error) {
	defer s.Close()

	var b strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return b.String(), err
		}
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
}
