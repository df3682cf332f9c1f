package multiwait

import (
	"fmt"
)

// EventKind 事件源的种类
type EventKind uint8

const (
	EventQueue   EventKind = iota // 消息队列
	EventChannel                  // 事件通道
	EventFutex                    // 条件字（裸内存字）
	numEventKinds
)

// 就绪掩码只有低24位可用，0保留表示"尚未触发"
const readyEventsMask = 0xffffff

// 条件字触发时置入就绪掩码的固定标志
const futexFired = 1

// QueueSource 消息队列事件源要满足的契约
type QueueSource interface {
	// ReadyEvents 返回队列当前立即可满足的事件位（可收/可发）
	ReadyEvents() uint32
}

// ChannelSource 事件通道事件源要满足的契约
type ChannelSource interface {
	// Bits 返回通道当前置位的事件位
	Bits() uint32
}

// EventSpec 用户提交的单个事件描述。内容不可信：Source里是什么、
// 指向哪里都由注册时逐项校验，校验不过整批失败。
type EventSpec struct {
	// Kind 事件源种类
	Kind EventKind
	// Source 队列/事件通道传封印句柄(cap.Sealed)，条件字传字地址(*uint32)
	Source interface{}
	// Value 注册时是种类相关的条件：队列/通道为位掩码，条件字为期望值快照。
	// Collect把各槽的就绪掩码写回到这里。
	Value uint32
}

// EventWaiter 监视单个事件源的等待槽，作用相当于kqueue里的knote。
// 固定大小，无论哪种事件源都不做每种类的额外分配。
type EventWaiter struct {
	// source 被监视的对象：QueueSource、ChannelSource或*uint32
	source interface{}
	// value 种类相关的触发条件
	value uint32
	// kind 事件源种类，注册周期内不变
	kind EventKind
	// ready 已发生事件的累积掩码，0表示尚未触发
	ready uint32
}

// setReady 向就绪掩码累积置位。高8位越界说明某个触发源实现有缺陷，
// 属于内核自身的契约违规，直接断言失败。
func (w *EventWaiter) setReady(bits uint32) {
	if bits&^uint32(readyEventsMask) != 0 {
		panic(fmt.Sprintf("multiwait: ready bits %#x out of range for a delivered event", bits))
	}
	w.ready |= bits
}

// fired 该槽是否已经触发
func (w *EventWaiter) fired() bool {
	return w.ready != 0
}

// reset一族：记录事件源和触发条件，并回答"条件是否已经满足"。

func (w *EventWaiter) resetQueue(q QueueSource, conditions uint32) bool {
	w.source = q
	w.value = conditions
	w.kind = EventQueue
	w.ready = 0
	if bits := q.ReadyEvents() & conditions; bits != 0 {
		w.setReady(bits)
		return true
	}
	return false
}

func (w *EventWaiter) resetChannel(c ChannelSource, bits uint32) bool {
	w.source = c
	w.value = bits
	w.kind = EventChannel
	w.ready = 0
	if set := c.Bits() & bits; set != 0 {
		w.setReady(set)
		return true
	}
	return false
}

func (w *EventWaiter) resetFutex(addr *uint32, expected uint32) bool {
	w.source = addr
	w.value = expected
	w.kind = EventFutex
	w.ready = 0
	// 注册时值已和期望不同：沿已越过，立即触发
	if *addr != expected {
		w.setReady(futexFired)
		return true
	}
	return false
}

// trigger 事件源状态变化时调用。种类或对象身份不符则什么都不做；
// 匹配时把本次事件的有效位并入就绪掩码，返回掩码当前是否非零。
func (w *EventWaiter) trigger(kind EventKind, source interface{}, info uint32) bool {
	if w.kind != kind || w.source != source {
		return false
	}
	switch kind {
	case EventQueue:
		w.setReady(w.source.(QueueSource).ReadyEvents() & w.value)
	case EventChannel:
		w.setReady(info & w.value)
	case EventFutex:
		w.setReady(futexFired)
	}
	return w.ready != 0
}

// poll 重新按水平语义检查条件是否满足，用于补上注册与挂起之间的窗口
func (w *EventWaiter) poll() bool {
	switch w.kind {
	case EventQueue:
		w.setReady(w.source.(QueueSource).ReadyEvents() & w.value)
	case EventChannel:
		w.setReady(w.source.(ChannelSource).Bits() & w.value)
	case EventFutex:
		if *w.source.(*uint32) != w.value {
			w.setReady(futexFired)
		}
	}
	return w.ready != 0
}
