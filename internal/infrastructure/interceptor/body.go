package interceptor

import (
	"bytes"
	"io"
	"sync"
	"unicode/utf8"
)

// recordingBody tees what the caller reads, up to limit bytes, and reports it
// once the caller hits EOF, a read error, or closes the body.
type recordingBody struct {
	rc    io.ReadCloser
	limit int64
	buf   bytes.Buffer
	once  sync.Once
	done  func(body []byte)
}

func (b *recordingBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 {
		if room := b.limit - int64(b.buf.Len()); room > 0 {
			chunk := p[:n]
			if int64(len(chunk)) > room {
				chunk = chunk[:room]
			}
			b.buf.Write(chunk)
		}
	}
	if err != nil {
		b.finish()
	}
	return n, err
}

func (b *recordingBody) Close() error {
	err := b.rc.Close()
	b.finish()
	return err
}

func (b *recordingBody) finish() {
	b.once.Do(func() { b.done(b.buf.Bytes()) })
}

func isText(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	return bytes.IndexByte(b, 0) < 0
}
