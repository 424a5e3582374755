package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsed(t *testing.T) {
	beg := time.Unix(100, 0)
	assert.Equal(t, 1500.0, Elapsed(beg, beg.Add(1500*time.Millisecond)))
	assert.Equal(t, 0.25, Elapsed(beg, beg.Add(250*time.Microsecond)))
	assert.Equal(t, -1000.0, Elapsed(beg.Add(time.Second), beg))
}

func TestStopwatch(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time {
		now = now.Add(2 * time.Millisecond)
		return now
	}

	sw := NewStopwatch(clock)
	sw.Start()
	assert.Equal(t, 2.0, sw.Stop())
	assert.Equal(t, 2.0, sw.ElapsedMs())

	sw.Start()
	assert.Equal(t, 2.0, sw.ElapsedMs())
}
