package mscfb

import (
	"errors"
	"io"
)

// memFile is an in-memory io.WriteSeeker that grows on demand.
type memFile struct {
	buf []byte
	pos int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		m.buf = append(m.buf, make([]byte, end-int64(len(m.buf)))...)
	}

	copy(m.buf[m.pos:], p)
	m.pos = end

	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = m.pos + offset
	case io.SeekEnd:
		pos = int64(len(m.buf)) + offset
	}

	if pos < 0 {
		return 0, errors.New("negative position")
	}

	m.pos = pos
	return pos, nil
}

func (m *memFile) Bytes() []byte {
	return m.buf
}
