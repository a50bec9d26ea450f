package utils

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_RapidTriggersRunLastOnce(t *testing.T) {
	var calls, last int32
	d := NewDebouncer(40 * time.Millisecond)

	for i := 1; i <= 5; i++ {
		v := int32(i)
		d.Trigger(func() {
			atomic.StoreInt32(&last, v)
			atomic.AddInt32(&calls, 1)
		})
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 5, atomic.LoadInt32(&last))
	assert.False(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	var calls int32
	d := NewDebouncer(30 * time.Millisecond)

	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Cancel()
	assert.False(t, d.Pending())

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&calls))
}
