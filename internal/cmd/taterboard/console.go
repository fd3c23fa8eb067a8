package taterboard

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/gamma-delta/tater-board/internal/dispatch"
)

// console reads command lines from in and prints dispatch responses to out.
// It stands in for a chat transport during local operation.
type console struct {
	dispatcher *dispatch.Dispatcher
	cfg        Config
	in         io.Reader
	out        io.Writer
}

func newConsole(dispatcher *dispatch.Dispatcher, cfg Config, in io.Reader, out io.Writer) *console {
	return &console{dispatcher: dispatcher, cfg: cfg, in: in, out: out}
}

// run dispatches one command per input line until EOF or ctx cancellation.
// Scanning happens on its own goroutine because reads on stdin cannot be
// interrupted directly.
func (c *console) run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case line := <-lines:
			res := c.dispatcher.Handle(ctx, dispatch.Request{
				GuildID:      c.cfg.GuildID,
				AuthorID:     c.cfg.AuthorID,
				HasAdminRole: c.cfg.Admin,
				Content:      line,
			})
			c.print(res)
		}
	}
}

func (c *console) print(res dispatch.Result) {
	for _, msg := range res.Messages {
		if msg.Embed != nil {
			fmt.Fprintf(c.out, "== %s ==\n%s%s\n", msg.Embed.Title, msg.Embed.Description, msg.Embed.Footer)
			continue
		}
		fmt.Fprintln(c.out, msg.Text)
	}
}
