package client

import (
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"

	"chatline/wire"
)

// Renderer displays messages to the user. The receiver is the only caller.
type Renderer interface {
	Render(m wire.Message)
}

// ConsoleRenderer prints messages as "[HH:MM] [sender] body" in local time,
// then re-prints the input prompt the interactive loop is waiting behind.
type ConsoleRenderer struct {
	out io.Writer
}

func NewConsoleRenderer(out io.Writer) *ConsoleRenderer {
	return &ConsoleRenderer{out: out}
}

func (r *ConsoleRenderer) Render(m wire.Message) {
	fmt.Fprintf(r.out, "\n%s %s %s\n> ",
		color.Gray.Sprintf("[%s]", formatTimestamp(m.Timestamp)),
		color.Cyan.Sprintf("[%s]", m.Sender),
		m.Content,
	)
}

// formatTimestamp converts the wire RFC3339 UTC timestamp to compact local
// time. Falls back to the original string if parsing fails.
func formatTimestamp(ts string) string {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return parsed.Local().Format("15:04")
}
