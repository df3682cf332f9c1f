package sched

// ThreadID 线程表中的非占有标识
type ThreadID int32

// ThreadState 线程状态
type ThreadState uint8

const (
	StateRunning ThreadState = iota // 正在执行（或尚未挂起）
	StateBlocked                    // 挂在某个睡眠队列上
	StateReady                      // 已被标记就绪但还没恢复执行
)

// WakeReason 线程被唤醒的原因
type WakeReason uint8

const (
	// WakeEvent 监视的事件源触发
	WakeEvent WakeReason = iota
	// WakeTimer 超时；等待对象被销毁时也用这个原因强制唤醒
	WakeTimer
)

// Thread 一个协作式调度的内核线程。
// threadEntry把它直接链入所属的睡眠队列（侵入式链表，不额外分配节点）。
type Thread struct {
	threadEntry

	id       ThreadID
	priority uint8
	state    ThreadState
	reason   WakeReason

	// waitObject 当前挂起所等待对象的标识，0表示没有。
	// 用标识而不是指针做反向引用：对象销毁后标识解析不到任何东西，
	// 不会留下悬垂引用。
	waitObject uint64

	// wake 容量为1的唤醒令牌通道，Ready至多投递一次
	wake chan struct{}

	// queue 正挂着的睡眠队列，仅在StateBlocked期间非nil
	queue *ThreadList
}

func (t *Thread) ID() ThreadID {
	return t.id
}

func (t *Thread) Priority() uint8 {
	return t.priority
}

func (t *Thread) State() ThreadState {
	return t.state
}

// WakeReason 最近一次唤醒的原因，在Suspend返回后有效
func (t *Thread) WakeReason() WakeReason {
	return t.reason
}

// SetWaitObject 记录（或清除）线程正在等待的对象标识。
// 调用方必须持有内核锁。
func (t *Thread) SetWaitObject(id uint64) {
	t.waitObject = id
}

// WaitObject 线程正在等待的对象标识，0表示没有
func (t *Thread) WaitObject() uint64 {
	return t.waitObject
}
