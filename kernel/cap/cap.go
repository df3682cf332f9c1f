package cap

import (
	"sync"
)

// Type 被封印对象的类型标记
type Type uint8

const (
	TypeInvalid Type = iota
	TypeQueue        // 消息队列
	TypeChannel      // 事件通道
)

// Sealed 封印后的不透明句柄。用户态只能持有并原样传回这个值，
// 0保留为无效句柄。伪造的句柄在解封时查不到表项，得到nil。
type Sealed uint32

// Table 封印/解封表：把不可信的句柄还原为带类型校验的内核对象引用，
// 同时登记允许作为条件字监视的裸内存字。
type Table struct {
	mu      sync.Mutex
	entries map[Sealed]entry
	next    uint32
	words   map[*uint32]struct{}
}

type entry struct {
	obj interface{}
	typ Type
}

func NewTable() *Table {
	return &Table{
		entries: make(map[Sealed]entry),
		words:   make(map[*uint32]struct{}),
	}
}

// Seal 封印一个内核对象，返回可以交给用户态的句柄
func (t *Table) Seal(obj interface{}, typ Type) Sealed {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	h := Sealed(t.next)
	t.entries[h] = entry{obj: obj, typ: typ}
	return h
}

// Unseal 校验并解封句柄。句柄伪造、已吊销或类型不符时返回nil。
func (t *Table) Unseal(h Sealed, typ Type) interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[h]
	if !ok || e.typ != typ {
		return nil
	}
	return e.obj
}

// Revoke 吊销句柄，之后的解封一律失败
func (t *Table) Revoke(h Sealed) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, h)
}

// GrantLoad 登记一个允许以加载权限监视的内存字
func (t *Table) GrantLoad(addr *uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.words[addr] = struct{}{}
}

// RevokeLoad 收回加载权限
func (t *Table) RevokeLoad(addr *uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.words, addr)
}

// CheckLoad 监视条件字前的权限检查
func (t *Table) CheckLoad(addr *uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.words[addr]
	return ok
}
