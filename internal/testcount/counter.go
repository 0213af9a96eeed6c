package testcount

import (
	"bytes"
	"sync"

	"github.com/AndreyAkinshin/crucible/internal/model"
)

// maxLineLength caps the buffered partial line. Longer lines are dropped;
// no summary line comes close.
const maxLineLength = 64 * 1024

// Counter is an io.Writer that feeds complete lines to a Parser.
// It is safe for concurrent use.
type Counter struct {
	parser Parser

	mu      sync.Mutex
	partial []byte
	counts  model.TestCounts
	parsed  bool
	skip    bool
}

// NewCounter creates a Counter using parser.
func NewCounter(parser Parser) *Counter {
	return &Counter{parser: parser}
}

// Write never fails, so it can sit in an io.MultiWriter next to the console.
func (c *Counter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := p
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			c.buffer(data)
			break
		}
		c.buffer(data[:i])
		if !c.skip {
			c.line(string(c.partial))
		}
		c.partial = c.partial[:0]
		c.skip = false
		data = data[i+1:]
	}
	return len(p), nil
}

func (c *Counter) buffer(b []byte) {
	if c.skip {
		return
	}
	if len(c.partial)+len(b) > maxLineLength {
		c.partial = c.partial[:0]
		c.skip = true
		return
	}
	c.partial = append(c.partial, b...)
}

func (c *Counter) line(s string) {
	s = string(bytes.TrimRight([]byte(s), "\r"))
	if c.parser.ParseLine(s, &c.counts) {
		c.parsed = true
	}
}

// Counts returns the totals seen so far, including an unterminated last
// line, and whether any result line was recognized.
func (c *Counter) Counts() (model.TestCounts, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts, parsed := c.counts, c.parsed
	if len(c.partial) > 0 && !c.skip {
		if c.parser.ParseLine(string(bytes.TrimRight(c.partial, "\r")), &counts) {
			parsed = true
		}
	}
	return counts, parsed
}
