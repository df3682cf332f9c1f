package queue

import (
	"github.com/qxcheng/rtos-kernel/kernel"
	"github.com/qxcheng/rtos-kernel/kernel/cap"
	"github.com/qxcheng/rtos-kernel/kernel/multiwait"
	"github.com/qxcheng/rtos-kernel/pkg/buffer"
)

// 队列可以满足的事件位
const (
	// EventRecv 队列非空，可以立即接收
	EventRecv uint32 = 1 << 0
	// EventSend 队列未满，可以立即发送
	EventSend uint32 = 1 << 1
)

// Queue 定长环形消息队列。收发都不阻塞，阻塞语义交给多路等待：
// 等待方注册EventRecv/EventSend，队列每次状态变化通知唤醒分发器。
type Queue struct {
	mgr    *multiwait.Manager
	handle cap.Sealed

	// ring 环形缓冲，head处出队，(head+size)%len处入队。
	// 全部字段都只在内核临界区内读写。
	ring []buffer.View
	head int
	size int
}

// New 建立一个容量为capacity的消息队列并封印为队列能力
func New(mgr *multiwait.Manager, capacity int) (*Queue, *kernel.Error) {
	if capacity <= 0 {
		return nil, kernel.ErrInvalidArgument
	}
	q := &Queue{
		mgr:  mgr,
		ring: make([]buffer.View, capacity),
	}
	q.handle = mgr.Caps().Seal(q, cap.TypeQueue)
	return q, nil
}

// Handle 交给用户态注册等待用的封印句柄
func (q *Queue) Handle() cap.Sealed {
	return q.handle
}

// Send 入队一条消息，队列已满立即返回ErrWouldBlock。
// 成功后至多唤醒一个等待者：一条消息只够一个消费者。
func (q *Queue) Send(msg buffer.View) *kernel.Error {
	k := q.mgr.Kernel()
	k.Lock()
	if q.size == len(q.ring) {
		k.Unlock()
		return kernel.ErrWouldBlock
	}
	q.ring[(q.head+q.size)%len(q.ring)] = msg
	q.size++
	k.Unlock()

	q.mgr.WakeWaiters(q, 0, 1)
	return nil
}

// Recv 出队一条消息，队列为空立即返回ErrWouldBlock。
// 成功后至多唤醒一个等待者：腾出的空位只够一个发送者。
func (q *Queue) Recv() (buffer.View, *kernel.Error) {
	k := q.mgr.Kernel()
	k.Lock()
	if q.size == 0 {
		k.Unlock()
		return nil, kernel.ErrWouldBlock
	}
	msg := q.ring[q.head]
	q.ring[q.head] = nil
	q.head = (q.head + 1) % len(q.ring)
	q.size--
	k.Unlock()

	q.mgr.WakeWaiters(q, 0, 1)
	return msg, nil
}

// Len 当前排队的消息数
func (q *Queue) Len() int {
	k := q.mgr.Kernel()
	k.Lock()
	defer k.Unlock()
	return q.size
}

// ReadyEvents 队列当前立即可满足的事件位。
// 多路等待在内核临界区内回查，调用方必须持有内核锁。
func (q *Queue) ReadyEvents() uint32 {
	var ev uint32
	if q.size > 0 {
		ev |= EventRecv
	}
	if q.size < len(q.ring) {
		ev |= EventSend
	}
	return ev
}
