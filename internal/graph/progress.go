package graph

import "io"

// ProgressFunc receives the bytes transferred so far and the expected total.
// total is -1 when the size is not known in advance.
type ProgressFunc func(done, total int64)

// downloadBufferSize is the read granularity for downloads and exports;
// progress is reported once per filled buffer.
const downloadBufferSize = 256 * 1024

// progressWriter reports the running byte count after every write.
type progressWriter struct {
	w     io.Writer
	done  int64
	total int64
	fn    ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.done += int64(n)

	if p.fn != nil && n > 0 {
		p.fn(p.done, p.total)
	}

	return n, err
}

// copyWithProgress streams src into dst in bounded chunks.
func copyWithProgress(dst io.Writer, src io.Reader, total int64, fn ProgressFunc) (int64, error) {
	pw := &progressWriter{w: dst, total: total, fn: fn}
	buf := make([]byte, downloadBufferSize)

	return io.CopyBuffer(pw, src, buf)
}

// uploadProgress adapts the library's resumable progress callback and
// guarantees a final done == total report once the upload succeeds, which
// single-request uploads never emit on their own.
type uploadProgress struct {
	fn    ProgressFunc
	total int64
	last  int64
}

func (u *uploadProgress) update(current, _ int64) {
	u.last = current
	u.fn(current, u.total)
}

func (u *uploadProgress) finish() {
	if u.total >= 0 && u.last < u.total {
		u.last = u.total
		u.fn(u.total, u.total)
	}
}
