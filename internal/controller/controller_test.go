package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/light-meter/internal/adjust"
)

type fakeHandler struct {
	mutex  sync.Mutex
	events []adjust.Event
	err    error
}

func (f *fakeHandler) Handle(ev adjust.Event) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeHandler) handled() []adjust.Event {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]adjust.Event(nil), f.events...)
}

type fakeRefresher struct {
	mutex sync.Mutex
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(time.Time) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls++
	return true, f.err
}

func (f *fakeRefresher) count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.calls
}

func start(t *testing.T, c *Controller) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestEventsAreHandledInOrder(t *testing.T) {
	handler := &fakeHandler{}
	c := New(handler, &fakeRefresher{})
	start(t, c)

	sequence := []adjust.Event{adjust.EventIncrease, adjust.EventSelectNext, adjust.EventDecrease, adjust.EventModeCycle}
	for _, ev := range sequence {
		require.NoError(t, c.Submit(context.Background(), ev))
	}

	assert.Eventually(t, func() bool { return len(handler.handled()) == len(sequence) }, time.Second, time.Millisecond)
	assert.Equal(t, sequence, handler.handled())
}

func TestCommitFailureDoesNotStopTheLoop(t *testing.T) {
	handler := &fakeHandler{err: errors.New("eeprom busy")}
	c := New(handler, &fakeRefresher{})
	start(t, c)

	c.Events() <- adjust.EventIncrease
	c.Events() <- adjust.EventIncrease

	assert.Eventually(t, func() bool { return len(handler.handled()) == 2 }, time.Second, time.Millisecond)
}

func TestRefreshRunsOnTick(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("bus stuck")}
	c := New(&fakeHandler{}, refresher)
	c.tick = time.Millisecond
	start(t, c)

	assert.Eventually(t, func() bool { return refresher.count() > 5 }, time.Second, time.Millisecond)
}

func TestSubmitGivesUpWhenCancelled(t *testing.T) {
	c := New(&fakeHandler{}, &fakeRefresher{})
	for i := 0; i < EventBuffer; i++ {
		require.NoError(t, c.Submit(context.Background(), adjust.EventIncrease))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Submit(ctx, adjust.EventIncrease), context.DeadlineExceeded)
}
