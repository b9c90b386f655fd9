package assistant

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Stream is a pull-based view over a provider event stream. Next returns
// io.EOF once the provider closes the stream. Close must be called on every
// path and is safe to call more than once.
type Stream interface {
	Next(ctx context.Context) (Chunk, error)
	Close() error
}

type sseStream struct {
	body      io.ReadCloser
	br        *bufio.Reader
	closeOnce sync.Once
	closeErr  error
}

func newSSEStream(body io.ReadCloser) *sseStream {
	return &sseStream{body: body, br: bufio.NewReader(body)}
}

func (s *sseStream) Next(ctx context.Context) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}
	for {
		data, err := s.readEvent()
		if err != nil {
			return Chunk{}, err
		}
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return Chunk{}, io.EOF
		}
		var c Chunk
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return Chunk{}, fmt.Errorf("decode stream chunk: %w", err)
		}
		return c, nil
	}
}

// readEvent returns the joined data lines of the next event. Comment and
// event-name lines are skipped.
func (s *sseStream) readEvent() (string, error) {
	var dataLines []string
	for {
		line, err := s.br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		eof := err != nil
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if len(dataLines) > 0 {
				return strings.Join(dataLines, "\n"), nil
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		if eof {
			if len(dataLines) > 0 {
				return strings.Join(dataLines, "\n"), nil
			}
			return "", io.EOF
		}
	}
}

func (s *sseStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
