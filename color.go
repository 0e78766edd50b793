package mscfb

import "fmt"

type Color int

const (
	Red Color = iota
	Black
)

func (c Color) AsByte() byte {
	switch c {
	case Red:
		return COLOR_RED
	case Black:
		return COLOR_BLACK
	default:
		return 0
	}
}

func ColorFromByte(b byte) (Color, error) {
	switch b {
	case COLOR_RED:
		return Red, nil
	case COLOR_BLACK:
		return Black, nil
	default:
		return Black, fmt.Errorf("invalid node color: %v", b)
	}
}
