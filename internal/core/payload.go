package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// utf8BOM is the byte order mark Windows editors put in front of UTF-8 files.
const utf8BOM = "\xef\xbb\xbf"

// bomSkippingReader drops a leading UTF-8 BOM.
type bomSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: bufio.NewReader(r)}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return 0, err
		}
		if bytes.Equal(head, []byte(utf8BOM)) {
			b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

// ReadPayload reads an import payload from r, dropping a leading BOM. It
// returns ErrPayloadTooLarge when more than limit bytes follow; a
// non-positive limit reads everything.
func ReadPayload(r io.Reader, limit int64) (string, error) {
	src := io.Reader(newBOMSkippingReader(r))
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}

	b, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read payload: %w", err)
	}
	if limit > 0 && int64(len(b)) > limit {
		return "", fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, limit)
	}
	return string(b), nil
}
