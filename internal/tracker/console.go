package tracker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const (
	descriptionWidth = 50
	barWidth         = 20
)

// Console renders steps as a numbered list:
//
//	[01] ☀️  Begin coreos-setup                                ✅
//	[02] 🖥️  Connect to VCenter                                ✅
//
// On a terminal it uses emoji and redraws a progress bar in place. On any
// other writer it uses ASCII marks and skips the bar.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	tty      bool
	emoji    bool
	throttle time.Duration
	now      func() time.Time

	ok      lipgloss.Style
	fail    lipgloss.Style
	dim     lipgloss.Style
	barFull lipgloss.Style

	header     string
	headerStep int
	lastDraw   time.Time
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithEmoji forces emoji glyphs on or off regardless of terminal detection.
func WithEmoji(enabled bool) ConsoleOption {
	return func(c *Console) {
		c.emoji = enabled
	}
}

// WithProgressThrottle sets the minimum interval between progress redraws.
func WithProgressThrottle(d time.Duration) ConsoleOption {
	return func(c *Console) {
		c.throttle = d
	}
}

// NewConsole creates a console observer writing to w.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	tty := isTerminal(w)
	r := lipgloss.NewRenderer(w)
	c := &Console{
		w:        w,
		tty:      tty,
		emoji:    tty,
		throttle: time.Second,
		now:      time.Now,
		ok:       r.NewStyle().Foreground(lipgloss.Color("#22c55e")),
		fail:     r.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		dim:      r.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		barFull:  r.NewStyle().Foreground(lipgloss.Color("#3b82f6")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// OnEvent implements Observer.
func (c *Console) OnEvent(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Type {
	case EventStepStarted:
		c.startLine(e.Step)
		fmt.Fprint(c.w, c.header)
	case EventStepProgress:
		c.drawProgress(e.Step)
	case EventStepFinished:
		c.finishLine(e.Step, c.ok.Render(c.mark(true)))
	case EventStepFailed:
		c.finishLine(e.Step, c.fail.Render(c.mark(false)))
	case EventStepErrored:
		c.finishLine(e.Step, c.fail.Render(c.mark(false)))
	case EventRunFinished:
		fmt.Fprintf(c.w, "Completed in %d seconds\n", int(e.Elapsed.Seconds()))
	}
}

func (c *Console) mark(ok bool) string {
	switch {
	case ok && c.emoji:
		return emoji["white_check_mark"]
	case ok:
		return checkMark
	case c.emoji:
		return emoji["x"]
	default:
		return crossMark
	}
}

func (c *Console) startLine(s Step) {
	c.header = fmt.Sprintf("[%02d] %s  %-*s", s.Index, glyph(s.Tag, c.emoji), descriptionWidth, s.Description)
	c.headerStep = s.Index
	c.lastDraw = time.Time{}
}

func (c *Console) finishLine(s Step, mark string) {
	if c.headerStep != s.Index {
		// Step closed without a start event, such as a synthetic error step.
		c.startLine(s)
		fmt.Fprint(c.w, c.header)
	} else if c.tty && s.HasProgress && s.Total > 0 {
		fmt.Fprint(c.w, "\r\x1b[2K"+c.header)
	}
	c.headerStep = 0

	if s.Outcome == OutcomeErrored {
		fmt.Fprintf(c.w, " %s\n", mark)
		if s.Message != "" {
			fmt.Fprintln(c.w, s.Message)
		}
		return
	}
	if s.Message != "" {
		fmt.Fprintf(c.w, " %s  - %s\n", mark, s.Message)
		return
	}
	fmt.Fprintf(c.w, " %s\n", mark)
}

func (c *Console) drawProgress(s Step) {
	if !c.tty || s.Ticked == 0 {
		return
	}
	now := c.now()
	complete := s.Total > 0 && s.Ticked >= s.Total
	if !complete && !c.lastDraw.IsZero() && now.Sub(c.lastDraw) < c.throttle {
		return
	}
	c.lastDraw = now
	if s.Total <= 0 {
		// Unknown length: show the running byte count only.
		fmt.Fprint(c.w, "\r\x1b[2K"+c.header+" "+humanize.Bytes(uint64(s.Ticked)))
		return
	}
	fmt.Fprint(c.w, "\r\x1b[2K"+c.header+" "+c.renderBar(s))
}

func (c *Console) renderBar(s Step) string {
	ticked := min(s.Ticked, s.Total)
	filled := int(ticked * barWidth / s.Total)
	percent := ticked * 100 / s.Total

	bar := c.barFull.Render(strings.Repeat("■", filled)) + c.dim.Render(strings.Repeat("□", barWidth-filled))
	return fmt.Sprintf("[%s] %3d%% %s / %s", bar, percent,
		humanize.Bytes(uint64(ticked)), humanize.Bytes(uint64(s.Total)))
}
