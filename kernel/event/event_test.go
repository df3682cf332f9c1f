package event_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qxcheng/rtos-kernel/kernel"
	"github.com/qxcheng/rtos-kernel/kernel/cap"
	"github.com/qxcheng/rtos-kernel/kernel/event"
	"github.com/qxcheng/rtos-kernel/kernel/mem"
	"github.com/qxcheng/rtos-kernel/kernel/multiwait"
	"github.com/qxcheng/rtos-kernel/kernel/sched"
)

func newManager() *multiwait.Manager {
	k := sched.New()
	return multiwait.NewManager(k, cap.NewTable(), mem.NewHeap(64<<10))
}

func TestSetClearBits(t *testing.T) {
	mgr := newManager()
	k := mgr.Kernel()
	c := event.New(mgr)

	bits := func() uint32 {
		k.Lock()
		defer k.Unlock()
		return c.Bits()
	}

	require.Nil(t, c.Set(0x5))
	require.Equal(t, uint32(0x5), bits())

	// 事件位粘滞，重复Set只做并集
	require.Nil(t, c.Set(0x3))
	require.Equal(t, uint32(0x7), bits())

	c.Clear(0x1)
	require.Equal(t, uint32(0x6), bits())
}

func TestSetOutOfRangeBits(t *testing.T) {
	mgr := newManager()
	c := event.New(mgr)

	require.Equal(t, kernel.ErrInvalidArgument, c.Set(1<<24))
	require.Equal(t, kernel.ErrInvalidArgument, c.Set(0xff000000))
}

func TestHandleUnsealsAsChannel(t *testing.T) {
	mgr := newManager()
	c := event.New(mgr)

	got := mgr.Caps().Unseal(c.Handle(), cap.TypeChannel)
	require.Same(t, c, got)
	require.Nil(t, mgr.Caps().Unseal(c.Handle(), cap.TypeQueue))
}
