// Package console is a line-oriented chat transport over a terminal or any
// reader/writer pair. Each input line is one message in a single channel.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mattjoyce/fumo/internal/chat"
)

// LineReader yields input lines without their trailing newline.
type LineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct {
	sc *bufio.Scanner
}

// NewLineReader reads newline separated lines from r.
func NewLineReader(r io.Reader) LineReader {
	return &scannerReader{sc: bufio.NewScanner(r)}
}

func (s *scannerReader) ReadLine() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Identity is who the console speaks as.
type Identity struct {
	Channel   chat.Channel
	User      chat.User
	Moderator bool
}

type line struct {
	text string
	err  error
}

// Console implements chat.Source, chat.Sender and chat.ChannelManager.
type Console struct {
	id  Identity
	in  LineReader
	out io.Writer

	startOnce sync.Once
	lines     chan line

	outMu  sync.Mutex
	parted atomic.Bool
	seq    atomic.Int64
}

func New(id Identity, in LineReader, out io.Writer) *Console {
	return &Console{
		id:    id,
		in:    in,
		out:   out,
		lines: make(chan line, 1),
	}
}

func (c *Console) readLoop() {
	for {
		text, err := c.in.ReadLine()
		c.lines <- line{text: text, err: err}
		if err != nil {
			return
		}
	}
}

// Next blocks for the next non-blank line. It returns io.EOF when input ends
// or the channel was parted.
func (c *Console) Next(ctx context.Context) (chat.Message, error) {
	c.startOnce.Do(func() { go c.readLoop() })
	for {
		if c.parted.Load() {
			return chat.Message{}, io.EOF
		}
		select {
		case <-ctx.Done():
			return chat.Message{}, ctx.Err()
		case l := <-c.lines:
			if l.err != nil {
				return chat.Message{}, l.err
			}
			tokens := strings.Fields(l.text)
			if len(tokens) == 0 {
				continue
			}
			return chat.Message{
				Channel: c.id.Channel,
				User:    c.id.User,
				Tokens:  tokens,
				Privmsg: chat.Privmsg{
					ID:          "console-" + strconv.FormatInt(c.seq.Add(1), 10),
					AuthorIsMod: c.id.Moderator,
				},
			}, nil
		}
	}
}

// Send prints text, prefixed with the reply target when there is one.
func (c *Console) Send(_ context.Context, channel, text, replyID string) error {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	var err error
	if replyID != "" {
		_, err = fmt.Fprintf(c.out, "#%s ↪ %s: %s\n", channel, replyID, text)
	} else {
		_, err = fmt.Fprintf(c.out, "#%s %s\n", channel, text)
	}
	return err
}

// Part ends the session once the console's channel is left.
func (c *Console) Part(_ context.Context, channel string) error {
	if channel != c.id.Channel.Name {
		return fmt.Errorf("not joined to %s", channel)
	}
	c.parted.Store(true)
	return nil
}
