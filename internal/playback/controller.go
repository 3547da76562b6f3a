// Package playback drives the stories viewer: one story at a time, auto-advance
// on a fixed duration, manual navigation, and a progress value derived from the
// time spent on the current story.
package playback

import (
	"time"

	"github.com/princekumarofficial/familybook/internal/types"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultDuration = 5 * time.Second
)

// Controller is the playback state machine. It has two states: Empty, when
// there are no stories, and Showing(i) for 0 <= i < n. It is not safe for
// concurrent use; Player serializes access to it.
type Controller struct {
	stories  []types.Story
	index    int
	elapsed  time.Duration
	interval time.Duration
	duration time.Duration
	seq      uint64
}

// NewController starts in Showing(0), or Empty for an empty list. Non-positive
// interval or duration fall back to the defaults.
func NewController(stories []types.Story, interval, duration time.Duration) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if duration <= 0 {
		duration = DefaultDuration
	}

	c := &Controller{interval: interval, duration: duration}
	c.ListRefetched(stories)
	return c
}

func (c *Controller) Interval() time.Duration { return c.interval }

func (c *Controller) Duration() time.Duration { return c.duration }

func (c *Controller) Len() int { return len(c.stories) }

func (c *Controller) Empty() bool { return len(c.stories) == 0 }

// Index is the current position, or -1 when Empty.
func (c *Controller) Index() int { return c.index }

func (c *Controller) Elapsed() time.Duration { return c.elapsed }

// Current returns the story being shown.
func (c *Controller) Current() (types.Story, bool) {
	if c.Empty() {
		return types.Story{}, false
	}
	return c.stories[c.index], true
}

// Progress is elapsed/duration as a percentage clamped to [0, 100].
func (c *Controller) Progress() float64 {
	if c.Empty() {
		return 0
	}
	p := float64(c.elapsed) / float64(c.duration) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Tick adds one polling interval. Once the duration is reached it moves to the
// next story, wrapping around, and reports true. A single story moves to
// itself, which still counts as a transition and resets progress.
func (c *Controller) Tick() bool {
	if c.Empty() {
		return false
	}

	c.elapsed += c.interval
	if c.elapsed < c.duration {
		return false
	}

	c.moveTo((c.index + 1) % len(c.stories))
	return true
}

func (c *Controller) Next() bool {
	if c.Empty() {
		return false
	}
	c.moveTo((c.index + 1) % len(c.stories))
	return true
}

func (c *Controller) Prev() bool {
	if c.Empty() {
		return false
	}
	n := len(c.stories)
	c.moveTo((c.index - 1 + n) % n)
	return true
}

// ListRefetched replaces the stories as given, without re-sorting, and goes
// to Showing(0) or Empty.
func (c *Controller) ListRefetched(stories []types.Story) {
	c.stories = append([]types.Story(nil), stories...)
	if len(c.stories) == 0 {
		c.index = -1
		c.elapsed = 0
		c.seq++
		return
	}
	c.moveTo(0)
}

func (c *Controller) moveTo(i int) {
	c.index = i
	c.elapsed = 0
	c.seq++
}

// Snapshot copies the current state for readers.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Stories:  append([]types.Story(nil), c.stories...),
		Index:    c.index,
		Elapsed:  c.elapsed,
		Progress: c.Progress(),
		Seq:      c.seq,
	}
}

// Snapshot is a read-only copy of the playback state. Seq increases on every
// transition, so two snapshots with the same Seq show the same story slot.
type Snapshot struct {
	Stories  []types.Story
	Index    int
	Elapsed  time.Duration
	Progress float64
	Seq      uint64
}

func (s Snapshot) Empty() bool { return len(s.Stories) == 0 }

func (s Snapshot) Current() (types.Story, bool) {
	if s.Empty() || s.Index < 0 || s.Index >= len(s.Stories) {
		return types.Story{}, false
	}
	return s.Stories[s.Index], true
}

// Frame converts the snapshot into the websocket payload.
func (s Snapshot) Frame() types.PlaybackFrame {
	frame := types.PlaybackFrame{
		Seq:       s.Seq,
		ElapsedMS: s.Elapsed.Milliseconds(),
		Index:     s.Index,
		Total:     len(s.Stories),
		Progress:  s.Progress,
	}
	if story, ok := s.Current(); ok {
		frame.Story = &story
	}
	return frame
}
