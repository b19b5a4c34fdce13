package postprocess

// FlipRows reverses the row order of a packed pixel buffer in place. It
// turns a bottom-up GPU readback into top-down image order.
func FlipRows(pix []byte, stride, h int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, h-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
