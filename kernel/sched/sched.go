package sched

import (
	"time"

	"github.com/qxcheng/rtos-kernel/kernel"
	"github.com/qxcheng/rtos-kernel/pkg/tmutex"
)

// Kernel 串行化的内核执行环境：一把大锁加一张线程表。
// 事件源状态的全部修改、两张等待队列的全部操作都发生在持有这把锁
// 的调用路径里，等价于单核上关抢占的内核临界区。
type Kernel struct {
	mu tmutex.Mutex

	threads []*Thread
	nextID  ThreadID
}

func New() *Kernel {
	k := &Kernel{}
	k.mu.Init()
	return k
}

// Lock 进入内核临界区
func (k *Kernel) Lock() {
	k.mu.Lock()
}

// Unlock 离开内核临界区
func (k *Kernel) Unlock() {
	k.mu.Unlock()
}

// TryLock 探测内核是否空闲
func (k *Kernel) TryLock() bool {
	return k.mu.TryLock()
}

// NewThread 建立一个线程记录。priority越大优先级越高。
func (k *Kernel) NewThread(priority uint8) *Thread {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.nextID++
	t := &Thread{
		id:       k.nextID,
		priority: priority,
		wake:     make(chan struct{}, 1),
	}
	k.threads = append(k.threads, t)
	return t
}

// Suspend 把当前线程挂到q上直到被Ready唤醒或超时。
// 调用时必须持有内核锁；阻塞期间锁被释放，返回前重新取得。
// 非阻塞探测（IsPoll）不挂起，直接按超时原因返回。
func (k *Kernel) Suspend(t *Thread, timeout kernel.Timeout, q *ThreadList) WakeReason {
	if timeout.IsPoll() {
		t.reason = WakeTimer
		return WakeTimer
	}

	t.state = StateBlocked
	t.queue = q
	insertByPriority(q, t)

	k.mu.Unlock()
	if timeout.IsForever() {
		<-t.wake
	} else {
		tm := time.NewTimer(timeout.Duration())
		select {
		case <-t.wake:
			tm.Stop()
		case <-tm.C:
		}
	}
	k.mu.Lock()

	if t.state == StateBlocked {
		// 定时器先到，Ready没来过，自己摘队
		q.Remove(t)
		t.queue = nil
		t.reason = WakeTimer
	} else {
		// Ready可能在定时器触发之后、重获锁之前才投递令牌，丢掉它，
		// 免得污染下一次挂起
		select {
		case <-t.wake:
		default:
		}
	}
	t.state = StateRunning
	return t.reason
}

// Ready 把一个挂起的线程标记为就绪并摘下睡眠队列。
// 调用方必须持有内核锁；对未挂起的线程是无害的空操作。
func (k *Kernel) Ready(t *Thread, reason WakeReason) {
	if t.state != StateBlocked {
		return
	}
	if t.queue != nil {
		t.queue.Remove(t)
		t.queue = nil
	}
	t.state = StateReady
	t.reason = reason
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// insertByPriority 按优先级降序插入，同优先级保持先来先排，
// 使同一份资格集合下的唤醒次序稳定可预期。
func insertByPriority(q *ThreadList, t *Thread) {
	for e := q.Front(); e != nil; e = e.Next() {
		if e.priority < t.priority {
			q.InsertBefore(e, t)
			return
		}
	}
	q.PushBack(t)
}
