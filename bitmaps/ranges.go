// Copyright (c) Geofrey Ernest
// SPDX-License-Identifier: AGPL-3.0-only

package bitmaps

import "fmt"

// Range is a half open [Start, End) span of instruction addresses whose bits
// are all set.
type Range struct {
	Start uint32
	End   uint32
}

// Len returns number of addresses covered by r.
func (r Range) Len() uint64 {
	return uint64(r.End - r.Start)
}

func (r Range) String() string {
	return fmt.Sprintf("[0x%08X, 0x%08X]", r.Start, r.End)
}

// Ranges appends to dst maximal runs of set bits found in bitmap for the
// address window [start, end). Offset o maps to bit o%8 of bitmap[o/8], least
// significant bit first.
//
// Runs are closed at end, so ranges from different windows never coalesce even
// when the windows are numerically adjacent.
//
// bitmap must hold at least ceil((end-start)/8) bytes. When end <= start the
// window is empty and dst is returned unchanged.
func Ranges(dst []Range, start, end uint32, bitmap []byte) []Range {
	if end <= start {
		return dst
	}
	bits := end - start
	var (
		open     bool
		runStart uint32
	)
	for o := uint32(0); o < bits; o++ {
		set := (bitmap[o>>3]>>(o&7))&1 == 1
		switch {
		case set && !open:
			open = true
			runStart = start + o
		case !set && open:
			open = false
			dst = append(dst, Range{Start: runStart, End: start + o})
		}
	}
	if open {
		dst = append(dst, Range{Start: runStart, End: end})
	}
	return dst
}

// Count returns total number of addresses covered by all ranges.
func Count(ranges []Range) (n uint64) {
	for i := range ranges {
		n += ranges[i].Len()
	}
	return
}

// BytesFor returns minimum bitmap size in bytes needed to describe the
// [start, end) window.
func BytesFor(start, end uint32) uint64 {
	if end <= start {
		return 0
	}
	return (uint64(end-start) + 7) / 8
}
