package assistant

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type closeCounter struct {
	io.Reader
	n int
}

func (c *closeCounter) Close() error { c.n++; return nil }

func TestSSEStreamMultilineAndTrailingEvent(t *testing.T) {
	body := &closeCounter{Reader: strings.NewReader("data: {\"type\":\"content_streaming\",\ndata: \"content\":\"a\"}\n\ndata: {\"type\":\"message_complete\"}")}
	s := newSSEStream(body)

	c, err := s.Next(context.Background())
	if err != nil || c.Type != ChunkContent || c.Content != "a" {
		t.Fatalf("first chunk = %+v, %v", c, err)
	}
	c, err = s.Next(context.Background())
	if err != nil || c.Type != ChunkMessageComplete {
		t.Fatalf("trailing chunk = %+v, %v", c, err)
	}
	if _, err := s.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	_ = s.Close()
	_ = s.Close()
	if body.n != 1 {
		t.Fatalf("body closed %d times", body.n)
	}
}

func TestSSEStreamHonoursCancelledContext(t *testing.T) {
	s := newSSEStream(&closeCounter{Reader: strings.NewReader("data: {}\n\n")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSSEStreamBadJSON(t *testing.T) {
	s := newSSEStream(&closeCounter{Reader: strings.NewReader("data: {not json}\n\n")})
	if _, err := s.Next(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}
