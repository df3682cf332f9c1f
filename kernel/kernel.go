package kernel

import (
	"time"
)

// Error 内核调用的错误类型 ///////////////

type Error struct {
	msg string
}

func (e *Error) String() string {
	return e.msg
}

var (
	ErrInvalidArgument  = &Error{msg: "invalid argument"}
	ErrOutOfMemory      = &Error{msg: "out of memory"}
	ErrBadHandle        = &Error{msg: "bad or forged handle"}
	ErrBadEventMask     = &Error{msg: "event mask has no usable bits"}
	ErrNoLoadPermission = &Error{msg: "address lacks load permission"}
	ErrWouldBlock       = &Error{msg: "operation would block"}
	ErrTimeout          = &Error{msg: "operation timed out"}
)

// Timeout 超时相关 ////////////////////////////////////////////////////

// Timeout 描述一次阻塞内核调用允许等待的时长。
// 零值表示非阻塞探测；forever 表示只受事件或销毁唤醒约束的无限等待。
type Timeout struct {
	duration time.Duration
	forever  bool
}

// TimeoutPoll 非阻塞探测：不满足则立即按超时返回。
func TimeoutPoll() Timeout {
	return Timeout{}
}

// TimeoutIn 有界等待。
func TimeoutIn(d time.Duration) Timeout {
	return Timeout{duration: d}
}

// TimeoutForever 无限等待。
func TimeoutForever() Timeout {
	return Timeout{forever: true}
}

// IsPoll 是否为非阻塞探测
func (t Timeout) IsPoll() bool {
	return !t.forever && t.duration <= 0
}

// IsForever 是否为无限等待
func (t Timeout) IsForever() bool {
	return t.forever
}

// Duration 有界等待的时长，仅在既非探测也非无限等待时有意义。
func (t Timeout) Duration() time.Duration {
	return t.duration
}

// 工具相关 ////////////////////////////////////////////////////////////

// A Clock provides the current time.
//
// Times returned by a Clock should always be used for application-visible
// time, but never for kernel internal timekeeping.
type Clock interface {
	// NowNanoseconds returns the current real time as a number of
	// nanoseconds since the Unix epoch.
	NowNanoseconds() int64

	// NowMonotonic returns a monotonic time value.
	NowMonotonic() int64
}

// StdClock 基于标准库时间的Clock实现
type StdClock struct{}

func (StdClock) NowNanoseconds() int64 {
	return time.Now().UnixNano()
}

func (StdClock) NowMonotonic() int64 {
	return int64(time.Since(monotonicBase))
}

var monotonicBase = time.Now()
