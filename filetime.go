package mscfb

import "time"

// 100ns intervals between 1601-01-01 and 1970-01-01.
const filetimeUnixOffset uint64 = 116444736000000000

// FiletimeToTime converts a Windows FILETIME. Zero maps to the zero Time.
func FiletimeToTime(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}

	if ft < filetimeUnixOffset {
		ticks := filetimeUnixOffset - ft
		return time.Unix(-int64(ticks/10000000), -int64(ticks%10000000)*100).UTC()
	}

	ticks := ft - filetimeUnixOffset
	return time.Unix(int64(ticks/10000000), int64(ticks%10000000)*100).UTC()
}

// TimeToFiletime converts t into a Windows FILETIME. The zero Time maps to 0.
func TimeToFiletime(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}

	ns := t.UnixNano()
	if ns < 0 {
		return filetimeUnixOffset - uint64(-ns)/100
	}

	return uint64(ns)/100 + filetimeUnixOffset
}
