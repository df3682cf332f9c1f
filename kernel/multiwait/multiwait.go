package multiwait

import (
	"fmt"
	"unsafe"

	"github.com/qxcheng/rtos-kernel/kernel"
	"github.com/qxcheng/rtos-kernel/kernel/cap"
	"github.com/qxcheng/rtos-kernel/kernel/mem"
	"github.com/qxcheng/rtos-kernel/kernel/sched"
)

// MaxWaitCount 单个等待集的容量上限，限定每次触发O(容量)的扫描开销
const MaxWaitCount = 8

// Outcome SetEvents的三态结果
type Outcome uint8

const (
	// OutcomeError 注册失败，等待集已作废，调用方应销毁重建
	OutcomeError Outcome = iota
	// OutcomeWake 注册成功且已有事件触发，可以跳过挂起直接收取结果
	OutcomeWake
	// OutcomeSleep 注册成功但尚无事件触发，应当挂起等待
	OutcomeSleep
)

// MultiWait 多路等待集：一段创建时定长、之后绝不重分配的等待槽，
// 加上触发分发要用的簿记。同一时刻至多一个线程挂在它上面。
type MultiWait struct {
	mgr *Manager

	// id 供线程反向引用的非占有标识
	id uint64

	capacity uint8
	used     uint8

	// containedKinds 1<<kind的并集，让无关种类的触发O(1)跳过扫描
	containedKinds uint8

	// 待唤醒链表（单向）的链入点；onPendingList保证同一节点不会重复入链
	next          *MultiWait
	onPendingList bool

	destroyed bool

	// events 等待槽，len恒等于capacity，只有前used个有效
	events []EventWaiter
}

// Manager 唤醒分发器连同它要走的两张进程级共享表：
// 按优先级排序的睡眠线程队列、待唤醒等待集链表，以及
// 解析线程反向引用用的id表。显式持有而不做包级全局，便于隔离测试。
type Manager struct {
	k    *sched.Kernel
	caps *cap.Table
	heap *mem.Heap

	sleepers    sched.ThreadList
	pendingWake *MultiWait

	waiters map[uint64]*MultiWait
	nextID  uint64
}

func NewManager(k *sched.Kernel, caps *cap.Table, heap *mem.Heap) *Manager {
	return &Manager{
		k:       k,
		caps:    caps,
		heap:    heap,
		waiters: make(map[uint64]*MultiWait),
	}
}

// Kernel 所属的内核执行环境
func (m *Manager) Kernel() *sched.Kernel {
	return m.k
}

// Caps 封印表
func (m *Manager) Caps() *cap.Table {
	return m.caps
}

// 创建一个等待集的堆开销：头部加capacity个等待槽
func allocSize(capacity int) int64 {
	return int64(unsafe.Sizeof(MultiWait{})) + int64(capacity)*int64(unsafe.Sizeof(EventWaiter{}))
}

// Create 建立一个容量为capacity(1..8)的空等待集。
// 分配是非阻塞的，堆预算不足立即以ErrOutOfMemory失败。
func (m *Manager) Create(capacity int) (*MultiWait, *kernel.Error) {
	if capacity <= 0 || capacity > MaxWaitCount {
		return nil, kernel.ErrInvalidArgument
	}

	m.k.Lock()
	defer m.k.Unlock()

	if err := m.heap.Allocate(allocSize(capacity), kernel.TimeoutPoll()); err != nil {
		return nil, kernel.ErrOutOfMemory
	}
	m.nextID++
	mw := &MultiWait{
		mgr:      m,
		id:       m.nextID,
		capacity: uint8(capacity),
		events:   make([]EventWaiter, capacity),
	}
	m.waiters[mw.id] = mw
	return mw, nil
}

// Capacity 允许注册的事件数上限
func (mw *MultiWait) Capacity() int {
	return int(mw.capacity)
}

// Len 当前已注册的事件数
func (mw *MultiWait) Len() int {
	return int(mw.used)
}

// SetEvents 注册一批事件描述，覆盖之前的注册。逐项校验：
// 队列/通道解封句柄，通道还要求掩码低24位非全零；条件字检查加载权限；
// 未知种类一律失败。任何一项不过整批作废。
func (mw *MultiWait) SetEvents(specs []EventSpec) (Outcome, *kernel.Error) {
	m := mw.mgr
	if len(specs) > int(mw.capacity) {
		return OutcomeError, kernel.ErrInvalidArgument
	}

	m.k.Lock()
	defer m.k.Unlock()

	fired := false
	mw.containedKinds = 0
	for i := range specs {
		spec := &specs[i]
		switch spec.Kind {
		case EventQueue:
			h, ok := spec.Source.(cap.Sealed)
			if !ok {
				mw.invalidate()
				return OutcomeError, kernel.ErrBadHandle
			}
			q, ok := m.caps.Unseal(h, cap.TypeQueue).(QueueSource)
			if !ok {
				mw.invalidate()
				return OutcomeError, kernel.ErrBadHandle
			}
			fired = mw.events[i].resetQueue(q, spec.Value) || fired

		case EventChannel:
			h, ok := spec.Source.(cap.Sealed)
			if !ok {
				mw.invalidate()
				return OutcomeError, kernel.ErrBadHandle
			}
			c, ok := m.caps.Unseal(h, cap.TypeChannel).(ChannelSource)
			if !ok {
				mw.invalidate()
				return OutcomeError, kernel.ErrBadHandle
			}
			// 监视不到任何位的通道等待没有意义
			if spec.Value&readyEventsMask == 0 {
				mw.invalidate()
				return OutcomeError, kernel.ErrBadEventMask
			}
			fired = mw.events[i].resetChannel(c, spec.Value) || fired

		case EventFutex:
			addr, ok := spec.Source.(*uint32)
			if !ok || !m.caps.CheckLoad(addr) {
				mw.invalidate()
				return OutcomeError, kernel.ErrNoLoadPermission
			}
			fired = mw.events[i].resetFutex(addr, spec.Value) || fired

		default:
			mw.invalidate()
			return OutcomeError, kernel.ErrInvalidArgument
		}
		// 注册成功即记下含有这一种类，无论它是否已触发
		mw.containedKinds |= 1 << spec.Kind
	}
	mw.used = uint8(len(specs))

	if fired {
		return OutcomeWake, nil
	}
	return OutcomeSleep, nil
}

// invalidate 注册中途失败后把等待集置为"安全但未触发"的状态：
// 不会匹配任何触发，也不会报告任何就绪位。早先批次的残留一并清掉。
func (mw *MultiWait) invalidate() {
	mw.used = 0
	mw.containedKinds = 0
	for i := range mw.events {
		mw.events[i].ready = 0
	}
}

// Wait 在等待集上挂起直到事件触发、超时或被销毁强制唤醒。
// 挂起前先按水平语义重查一遍各槽：注册和挂起是两次内核调用，
// 之间落下的触发靠这次重查补上，不会丢失。
func (mw *MultiWait) Wait(t *sched.Thread, timeout kernel.Timeout) sched.WakeReason {
	m := mw.mgr
	m.k.Lock()
	defer m.k.Unlock()

	fired := false
	for i := 0; i < int(mw.used); i++ {
		fired = mw.events[i].poll() || fired
	}
	if fired {
		return sched.WakeEvent
	}

	t.SetWaitObject(mw.id)
	reason := m.k.Suspend(t, timeout, &m.sleepers)
	t.SetWaitObject(0)
	return reason
}

// Collect 把各槽的就绪掩码按槽序写回results各项的Value，
// 并报告是否有任何一槽触发。顺带从待唤醒链表上摘下自己。
// len(results)超过容量是内核自身的缺陷，直接断言失败。
func (mw *MultiWait) Collect(results []EventSpec) bool {
	m := mw.mgr
	m.k.Lock()
	defer m.k.Unlock()

	mw.removeFromPendingWake()
	if len(results) > int(mw.capacity) {
		panic(fmt.Sprintf("multiwait: invalid result count %d > %d", len(results), mw.capacity))
	}
	found := false
	for i := range results {
		results[i].Value = mw.events[i].ready
		found = found || mw.events[i].ready != 0
	}
	return found
}

// Destroy 释放等待集。从待唤醒链表和id表摘除后，凡是还记录着
// 这个等待集的睡眠线程都被清除引用并按超时原因强制唤醒——
// 绝不允许任何线程继续引用一个已销毁的等待集。
func (mw *MultiWait) Destroy() {
	m := mw.mgr
	m.k.Lock()
	defer m.k.Unlock()

	if mw.destroyed {
		return
	}
	mw.destroyed = true

	mw.removeFromPendingWake()
	delete(m.waiters, mw.id)
	m.heap.Free(allocSize(int(mw.capacity)))

	for t := m.sleepers.Front(); t != nil; {
		next := t.Next()
		if t.WaitObject() == mw.id {
			t.SetWaitObject(0)
			m.k.Ready(t, sched.WakeTimer)
		}
		t = next
	}
}

// trigger 把一次事件源状态变化投递到这个等待集的所有槽。
// 种类位图不含该种类时O(1)拒绝，不碰任何槽。
// 调用方必须持有内核锁。
func (mw *MultiWait) trigger(kind EventKind, source interface{}, info uint32) bool {
	if mw.containedKinds&(1<<kind) == 0 {
		return false
	}
	fired := false
	for i := 0; i < int(mw.used); i++ {
		if mw.events[i].trigger(kind, source, info) {
			fired = true
		}
	}
	return fired
}

// pushPendingWake 挂到待唤醒链表头，已在链上则不动
func (m *Manager) pushPendingWake(mw *MultiWait) {
	if mw.onPendingList {
		return
	}
	mw.next = m.pendingWake
	m.pendingWake = mw
	mw.onPendingList = true
}

// removeFromPendingWake 从待唤醒链表摘下自己，不在链上则为空操作。
// 调用方必须持有内核锁。
func (mw *MultiWait) removeFromPendingWake() {
	if !mw.onPendingList {
		return
	}
	prev := &mw.mgr.pendingWake
	for *prev != nil && *prev != mw {
		prev = &(*prev).next
	}
	if *prev == mw {
		*prev = mw.next
	}
	mw.next = nil
	mw.onPendingList = false
}

// WakeWaiters 事件源状态变化时的统一入口。source的动态类型决定事件
// 种类：QueueSource、ChannelSource或*uint32，其余类型不唤醒任何线程。
//
// 先无条件触发待唤醒链表上的等待集（它们的线程已被标记就绪但还没
// 恢复执行，本次事件必须照样反映进结果，且不计入maxWakes）；再按
// 优先级次序走睡眠队列，触发即把线程标记就绪、把等待集挂上待唤醒
// 链表，唤满maxWakes个为止。先走待唤醒链表保证了刚挂上去的等待集
// 不会在同一次分发里被访问两遍。
func (m *Manager) WakeWaiters(source interface{}, info uint32, maxWakes uint32) uint32 {
	kind, ok := kindOf(source)
	if !ok {
		return 0
	}

	m.k.Lock()
	defer m.k.Unlock()

	for mw := m.pendingWake; mw != nil; mw = mw.next {
		mw.trigger(kind, source, info)
	}

	woken := uint32(0)
	for t := m.sleepers.Front(); t != nil && woken < maxWakes; {
		next := t.Next()
		if mw := m.waiters[t.WaitObject()]; mw != nil && mw.trigger(kind, source, info) {
			m.k.Ready(t, sched.WakeEvent)
			woken++
			m.pushPendingWake(mw)
		}
		t = next
	}
	return woken
}

// kindOf 由触发源的动态类型推断事件种类
func kindOf(source interface{}) (EventKind, bool) {
	switch source.(type) {
	case QueueSource:
		return EventQueue, true
	case ChannelSource:
		return EventChannel, true
	case *uint32:
		return EventFutex, true
	}
	return 0, false
}
