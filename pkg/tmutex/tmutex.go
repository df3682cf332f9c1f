package tmutex

import "sync/atomic"

// Mutex 在Lock/Unlock之外额外提供TryLock的互斥锁。
// 内核用它充当串行化全部内核态修改的大锁：非阻塞路径可以用TryLock
// 探测内核是否空闲，而不必挂起。
type Mutex struct {
	v  int32
	ch chan struct{}
}

// Init 使用前必须初始化
func (m *Mutex) Init() {
	m.v = 1
	m.ch = make(chan struct{}, 1)
}

func (m *Mutex) Lock() {
	if atomic.AddInt32(&m.v, -1) == 0 {
		return
	}

	for {
		if v := atomic.LoadInt32(&m.v); v >= 0 && atomic.SwapInt32(&m.v, -1) == 1 {
			return
		}

		<-m.ch
	}
}

// TryLock 获取失败时立即返回false而不阻塞
func (m *Mutex) TryLock() bool {
	v := atomic.LoadInt32(&m.v)
	if v <= 0 {
		return false
	}
	return atomic.CompareAndSwapInt32(&m.v, 1, 0)
}

func (m *Mutex) Unlock() {
	if atomic.SwapInt32(&m.v, 1) == 0 {
		return
	}

	select {
	case m.ch <- struct{}{}:
	default:
	}
}
