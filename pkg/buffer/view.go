package buffer

// View 一段连续的消息负载
type View []byte

func NewView(size int) View {
	return make(View, size)
}

func NewViewFromBytes(b []byte) View {
	return append(View(nil), b...)
}

// TrimFront 移除前count个字节
func (v *View) TrimFront(count int) {
	*v = (*v)[count:]
}

// CapLength 减小切片长度至length
func (v *View) CapLength(length int) {
	*v = (*v)[:length:length]
}
