package sched

type threadElementMapper struct{}

//go:nosplit
func (threadElementMapper) linkerFor(elem *Thread) *Thread { return elem }

// ThreadList 线程的侵入式双向链表，按优先级降序维护时即为睡眠队列
type ThreadList struct {
	head *Thread
	tail *Thread
}

func (l *ThreadList) Reset() {
	l.head = nil
	l.tail = nil
}

func (l *ThreadList) Empty() bool {
	return l.head == nil
}

func (l *ThreadList) Front() *Thread {
	return l.head
}

func (l *ThreadList) Back() *Thread {
	return l.tail
}

func (l *ThreadList) PushFront(e *Thread) {
	threadElementMapper{}.linkerFor(e).SetNext(l.head)
	threadElementMapper{}.linkerFor(e).SetPrev(nil)

	if l.head != nil {
		threadElementMapper{}.linkerFor(l.head).SetPrev(e)
	} else {
		l.tail = e
	}

	l.head = e
}

func (l *ThreadList) PushBack(e *Thread) {
	threadElementMapper{}.linkerFor(e).SetNext(nil)
	threadElementMapper{}.linkerFor(e).SetPrev(l.tail)

	if l.tail != nil {
		threadElementMapper{}.linkerFor(l.tail).SetNext(e)
	} else {
		l.head = e
	}

	l.tail = e
}

// InsertAfter inserts e after b.
func (l *ThreadList) InsertAfter(b, e *Thread) {
	a := threadElementMapper{}.linkerFor(b).Next()
	threadElementMapper{}.linkerFor(e).SetNext(a)
	threadElementMapper{}.linkerFor(e).SetPrev(b)
	threadElementMapper{}.linkerFor(b).SetNext(e)

	if a != nil {
		threadElementMapper{}.linkerFor(a).SetPrev(e)
	} else {
		l.tail = e
	}
}

// InsertBefore inserts e before a.
func (l *ThreadList) InsertBefore(a, e *Thread) {
	b := threadElementMapper{}.linkerFor(a).Prev()
	threadElementMapper{}.linkerFor(e).SetNext(a)
	threadElementMapper{}.linkerFor(e).SetPrev(b)
	threadElementMapper{}.linkerFor(a).SetPrev(e)

	if b != nil {
		threadElementMapper{}.linkerFor(b).SetNext(e)
	} else {
		l.head = e
	}
}

// Remove removes e from l.
func (l *ThreadList) Remove(e *Thread) {
	prev := threadElementMapper{}.linkerFor(e).Prev()
	next := threadElementMapper{}.linkerFor(e).Next()

	if prev != nil {
		threadElementMapper{}.linkerFor(prev).SetNext(next)
	} else {
		l.head = next
	}

	if next != nil {
		threadElementMapper{}.linkerFor(next).SetPrev(prev)
	} else {
		l.tail = prev
	}
}

type threadEntry struct {
	next *Thread
	prev *Thread
}

func (e *threadEntry) Next() *Thread {
	return e.next
}

func (e *threadEntry) Prev() *Thread {
	return e.prev
}

func (e *threadEntry) SetNext(elem *Thread) {
	e.next = elem
}

func (e *threadEntry) SetPrev(elem *Thread) {
	e.prev = elem
}
