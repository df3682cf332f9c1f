package mem

import (
	"sync"

	"github.com/qxcheng/rtos-kernel/kernel"
)

// Heap 有预算上限的内核堆。只实现"带超时分配，不成则失败"这一契约：
// 目前没有任何回收路径可等，所以无论超时多长，预算不足都立即失败，
// 是否重试由调用方决定。
type Heap struct {
	mu   sync.Mutex
	free int64
}

func NewHeap(size int64) *Heap {
	return &Heap{free: size}
}

// Allocate 从预算中划走size字节
func (h *Heap) Allocate(size int64, _ kernel.Timeout) *kernel.Error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if size < 0 {
		return kernel.ErrInvalidArgument
	}
	if size > h.free {
		return kernel.ErrOutOfMemory
	}
	h.free -= size
	return nil
}

// Free 归还size字节
func (h *Heap) Free(size int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.free += size
}

// Remaining 剩余预算
func (h *Heap) Remaining() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.free
}
