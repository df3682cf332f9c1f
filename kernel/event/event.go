package event

import (
	"github.com/qxcheng/rtos-kernel/kernel"
	"github.com/qxcheng/rtos-kernel/kernel/cap"
	"github.com/qxcheng/rtos-kernel/kernel/multiwait"
)

// 事件通道只承载低24位，和等待槽的就绪掩码同宽
const bitsMask = 0xffffff

// Channel 事件通道：一组粘滞的事件位。Set置位并广播给所有匹配的
// 等待者，位一直保持到被显式Clear。
type Channel struct {
	mgr    *multiwait.Manager
	handle cap.Sealed

	// bits 只在内核临界区内读写
	bits uint32
}

// New 建立一个事件通道并封印为通道能力
func New(mgr *multiwait.Manager) *Channel {
	c := &Channel{mgr: mgr}
	c.handle = mgr.Caps().Seal(c, cap.TypeChannel)
	return c
}

// Handle 交给用户态注册等待用的封印句柄
func (c *Channel) Handle() cap.Sealed {
	return c.handle
}

// Set 置位并唤醒所有匹配的等待者。事件位广播没有"消费"一说，
// 不设唤醒上限。高8位越界属于调用方参数错误。
func (c *Channel) Set(bits uint32) *kernel.Error {
	if bits&^uint32(bitsMask) != 0 {
		return kernel.ErrInvalidArgument
	}
	k := c.mgr.Kernel()
	k.Lock()
	c.bits |= bits
	k.Unlock()

	c.mgr.WakeWaiters(c, bits, ^uint32(0))
	return nil
}

// Clear 清除指定的事件位
func (c *Channel) Clear(bits uint32) {
	k := c.mgr.Kernel()
	k.Lock()
	c.bits &^= bits
	k.Unlock()
}

// Bits 当前置位的事件位。
// 多路等待在内核临界区内回查，调用方必须持有内核锁。
func (c *Channel) Bits() uint32 {
	return c.bits
}
