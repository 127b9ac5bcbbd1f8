package commands

import (
	"context"
	"log/slog"
)

// Replier delivers command replies back to the sender
type Replier interface {
	Send(ctx context.Context, to, body string) error
}

type request struct {
	sender string
	body   string
	reply  chan string
}

// Channel serializes the commands of one trusted channel: a single worker
// executes them strictly in arrival order.
type Channel struct {
	name        string
	interpreter *Interpreter
	replier     Replier
	queue       chan request
}

// NewChannel creates a channel with room for capacity queued commands.
// When replier is not nil every reply is also sent to the sender.
func NewChannel(name string, interpreter *Interpreter, replier Replier, capacity int) *Channel {
	if capacity < 1 {
		capacity = 1
	}
	return &Channel{
		name:        name,
		interpreter: interpreter,
		replier:     replier,
		queue:       make(chan request, capacity),
	}
}

// Run processes queued commands until ctx is cancelled
func (c *Channel) Run(ctx context.Context) error {
	slog.Info("Command channel started", "channel", c.name)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Command channel stopped", "channel", c.name)
			return ctx.Err()
		case req := <-c.queue:
			reply := c.interpreter.Handle(ctx, req.sender, req.body)
			req.reply <- reply
			if c.replier != nil && reply != ReplyUnauthorized {
				if err := c.replier.Send(ctx, req.sender, reply); err != nil {
					slog.Error("Failed to deliver command reply", "channel", c.name, "sender", req.sender, "error", err)
				}
			}
		}
	}
}

// Submit queues a command and waits for its reply
func (c *Channel) Submit(ctx context.Context, sender, body string) (string, error) {
	req := request{sender: sender, body: body, reply: make(chan string, 1)}
	select {
	case c.queue <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case reply := <-req.reply:
		return reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
