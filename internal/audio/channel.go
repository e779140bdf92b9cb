package audio

import (
	"sync"
	"time"
)

// Channel is a single-slot hand-off between the capture producer and the
// recognition consumer. It keeps only the most recent frame: recognition
// is real-time and lossy, so if the consumer falls behind, older frames
// are overwritten rather than queued.
//
// One mutex guards frame, levels, ready and recording; a condition
// variable wakes consumers blocked in WaitFrame.
type Channel struct {
	mu        sync.Mutex
	cond      *sync.Cond
	frame     Frame
	levels    LevelMeter
	ready     bool
	recording bool
}

func NewChannel() *Channel {
	c := &Channel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Start marks the channel as recording. Frames pushed before Start are
// dropped.
func (c *Channel) Start() {
	c.mu.Lock()
	c.recording = true
	c.mu.Unlock()
}

// Stop clears the stored frame, marks recording inactive and wakes every
// waiter so a blocked consumer returns promptly instead of hanging.
func (c *Channel) Stop() {
	c.mu.Lock()
	c.recording = false
	c.frame = Frame{}
	c.levels = LevelMeter{}
	c.ready = false
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Recording reports whether the channel currently accepts frames.
func (c *Channel) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Push stores a frame and its level meter, overwriting any frame the
// consumer has not picked up yet. It is a no-op while the channel is
// stopped. The critical section does no I/O so the capture callback is
// never stalled.
func (c *Channel) Push(frame Frame, levels LevelMeter) {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return
	}
	c.frame = frame
	c.levels = levels
	c.ready = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// WaitFrame blocks until a frame is ready or recording stops, whichever
// comes first. A zero timeout waits indefinitely. The returned bool is
// false when recording stopped (or the timeout expired) without a frame;
// picking up a frame atomically clears the ready flag.
func (c *Channel) WaitFrame(timeout time.Duration) (Frame, bool) {
	var deadline time.Time
	var timer *time.Timer
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
		// sync.Cond has no timed wait; a timer broadcast bounds the block.
		timer = time.AfterFunc(timeout, func() {
			c.mu.Lock()
			c.cond.Broadcast()
			c.mu.Unlock()
		})
		defer timer.Stop()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for !c.ready {
		if !c.recording {
			return Frame{}, false
		}
		if timeout > 0 && !time.Now().Before(deadline) {
			return Frame{}, false
		}
		c.cond.Wait()
	}

	frame := c.frame
	c.frame = Frame{}
	c.ready = false
	return frame, true
}

// Levels returns the most recent level meter for visualization polling.
func (c *Channel) Levels() LevelMeter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levels
}
