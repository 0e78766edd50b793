package mscfb

import (
	"io"
)

// Stream reads the contents of one stream. Reads past the stream length
// return io.EOF even though the underlying chain is sector padded.
type Stream struct {
	Entry *Entry

	chain    io.ReadSeeker
	totalLen uint64
	position uint64
}

func newStream(entry *Entry, chain io.ReadSeeker) *Stream {
	return &Stream{
		Entry:    entry,
		chain:    chain,
		totalLen: entry.StreamLen,
	}
}

func (s *Stream) Len() uint64 {
	return s.totalLen
}

func (s *Stream) CurrentPosition() uint64 {
	return s.position
}

func (s *Stream) Read(p []byte) (int, error) {
	if s.position >= s.totalLen {
		return 0, io.EOF
	}

	if remaining := s.totalLen - s.position; uint64(len(p)) > remaining {
		p = p[:remaining]
	}

	if _, err := s.chain.Seek(int64(s.position), io.SeekStart); err != nil {
		return 0, err
	}

	n, err := s.chain.Read(p)
	s.position += uint64(n)
	if err == io.EOF && s.position < s.totalLen {
		return n, io.ErrUnexpectedEOF
	}

	return n, err
}

func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	pos, err := seekOffset(int64(s.position), int64(s.totalLen), offset, whence)
	if err != nil {
		return 0, err
	}

	s.position = uint64(pos)
	return pos, nil
}
