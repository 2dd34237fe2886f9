package telegram

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// counter drives the cosmetic "member count" message: it edits the bound
// message upward by a small random step each tick until the ceiling, then
// stops for good. Any edit failure also stops it, silently.
type counter struct {
	value    int
	ceiling  int
	interval time.Duration
	edit     func(text string) error
}

func newCounter(start, ceiling int, interval time.Duration, edit func(text string) error) *counter {
	return &counter{
		value:    start,
		ceiling:  ceiling,
		interval: interval,
		edit:     edit,
	}
}

func (c *counter) run(ctx context.Context) {
	for c.value < c.ceiling {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}

		c.value += rand.Intn(3) + 1
		if c.value > c.ceiling {
			c.value = c.ceiling
		}
		if err := c.edit(counterText(c.value)); err != nil {
			return
		}
	}
}

func counterText(value int) string {
	return fmt.Sprintf("🔥🔞 *Membros 👥⬆:* %s", formatThousands(value))
}

// formatThousands renders 137500 as "137.500", Brazilian style.
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
