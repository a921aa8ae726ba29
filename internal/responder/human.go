package responder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"imitgame/internal/message"
)

// Human reads replies from a line-oriented input, typically a terminal.
type Human struct {
	name string
	out  io.Writer

	mu      sync.Mutex
	scanner *bufio.Scanner
}

func NewHuman(name string, in io.Reader, out io.Writer) *Human {
	if strings.TrimSpace(name) == "" {
		name = "Human"
	}
	if out == nil {
		out = io.Discard
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Human{name: name, out: out, scanner: scanner}
}

func (h *Human) Name() string {
	return h.name
}

func (h *Human) Respond(ctx context.Context, _ []message.Message, label string) (string, error) {
	return h.readLine(ctx, fmt.Sprintf("\n--- Your turn as %s ---\n> ", label))
}

func (h *Human) RespondVote(ctx context.Context, _ []message.Message, label string) (string, error) {
	return h.readLine(ctx, fmt.Sprintf("\n--- Vote as %s: who is the human? ---\n> ", label))
}

// readLine blocks until a line arrives. Cancellation is only observed before the
// read starts; a terminal read cannot be interrupted portably.
func (h *Human) readLine(ctx context.Context, promptText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := io.WriteString(h.out, promptText); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}
	if !h.scanner.Scan() {
		if err := h.scanner.Err(); err != nil {
			return "", fmt.Errorf("read human input: %w", err)
		}
		return "", errors.New("read human input: input closed")
	}
	return strings.TrimSpace(h.scanner.Text()), nil
}
