package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qxcheng/rtos-kernel/kernel"
)

func TestSuspendPollReturnsImmediately(t *testing.T) {
	k := New()
	th := k.NewThread(1)
	var q ThreadList

	k.Lock()
	reason := k.Suspend(th, kernel.TimeoutPoll(), &q)
	k.Unlock()

	require.Equal(t, WakeTimer, reason)
	require.True(t, q.Empty())
}

func TestSuspendTimesOut(t *testing.T) {
	k := New()
	th := k.NewThread(1)
	var q ThreadList

	k.Lock()
	start := time.Now()
	reason := k.Suspend(th, kernel.TimeoutIn(10*time.Millisecond), &q)
	k.Unlock()

	require.Equal(t, WakeTimer, reason)
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	// 超时路径要自己摘队
	require.True(t, q.Empty())
	require.Equal(t, StateRunning, th.State())
}

func TestReadyWakesSuspended(t *testing.T) {
	k := New()
	th := k.NewThread(1)
	var q ThreadList

	done := make(chan WakeReason, 1)
	go func() {
		k.Lock()
		reason := k.Suspend(th, kernel.TimeoutForever(), &q)
		k.Unlock()
		done <- reason
	}()

	waitBlocked(t, k, th)

	k.Lock()
	k.Ready(th, WakeEvent)
	k.Unlock()

	require.Equal(t, WakeEvent, <-done)
	require.True(t, q.Empty())
}

func TestReadyOnRunningThreadIsNoop(t *testing.T) {
	k := New()
	th := k.NewThread(1)

	k.Lock()
	k.Ready(th, WakeEvent)
	k.Unlock()

	require.Equal(t, StateRunning, th.State())
}

func TestInsertByPriorityOrderAndStability(t *testing.T) {
	k := New()
	a := k.NewThread(1)
	b := k.NewThread(3)
	c := k.NewThread(2)
	d := k.NewThread(3)

	var q ThreadList
	for _, th := range []*Thread{a, b, c, d} {
		insertByPriority(&q, th)
	}

	// 降序，同优先级先来先排
	var got []ThreadID
	for e := q.Front(); e != nil; e = e.Next() {
		got = append(got, e.ID())
	}
	require.Equal(t, []ThreadID{b.ID(), d.ID(), c.ID(), a.ID()}, got)
}

func waitBlocked(tb testing.TB, k *Kernel, th *Thread) {
	tb.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		k.Lock()
		blocked := th.State() == StateBlocked
		k.Unlock()
		if blocked {
			return
		}
		if time.Now().After(deadline) {
			tb.Fatal("thread did not block in time")
		}
		time.Sleep(time.Millisecond)
	}
}
