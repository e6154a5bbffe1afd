package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	c := NewFake(epoch)
	ch := c.After(2 * time.Second)

	c.Advance(time.Second)
	select {
	case <-ch:
		t.Fatal("fired early")
	default:
	}

	c.Advance(time.Second)
	select {
	case at := <-ch:
		assert.Equal(t, epoch.Add(2*time.Second), at)
	default:
		t.Fatal("expected fire after 2s")
	}
	assert.Equal(t, 0, c.Pending())
}

func TestFakeAfterFuncReschedulesFromDeadline(t *testing.T) {
	c := NewFake(epoch)
	var fired []time.Time
	var schedule func()
	schedule = func() {
		c.AfterFunc(time.Second, func() {
			fired = append(fired, c.Now())
			if len(fired) < 3 {
				schedule()
			}
		})
	}
	schedule()

	c.Advance(10 * time.Second)
	require.Len(t, fired, 3)
	assert.Equal(t, epoch.Add(3*time.Second), fired[2])
	assert.Equal(t, epoch.Add(10*time.Second), c.Now())
}

func TestFakeTimerStop(t *testing.T) {
	c := NewFake(epoch)
	called := false
	timer := c.AfterFunc(time.Second, func() { called = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Minute)
	assert.False(t, called)
}

func TestFakeWaitForPending(t *testing.T) {
	c := NewFake(epoch)
	done := make(chan struct{})
	go func() {
		<-c.After(time.Second)
		close(done)
	}()
	c.WaitForPending(1)
	c.Advance(time.Second)
	<-done
}
