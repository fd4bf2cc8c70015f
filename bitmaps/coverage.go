package bitmaps

import "github.com/gernest/roaring"

// Coverage adds every address covered by ranges into ra.
func Coverage(ra *roaring.Bitmap, ranges []Range) {
	for i := range ranges {
		for a := uint64(ranges[i].Start); a < uint64(ranges[i].End); a++ {
			ra.DirectAdd(a)
		}
	}
}

// FromRoaring converts addresses stored in ra back to maximal ranges.
//
// Unlike Ranges, adjacent addresses always coalesce because ra carries no
// window boundaries. Addresses a half open uint32 range cannot express
// (>= 0xFFFFFFFF) are ignored.
func FromRoaring(dst []Range, ra *roaring.Bitmap) []Range {
	var (
		open bool
		cur  Range
	)
	for a := range ra.RangeAll() {
		if a >= 0xFFFFFFFF {
			break
		}
		v := uint32(a)
		if open && v == cur.End {
			cur.End++
			continue
		}
		if open {
			dst = append(dst, cur)
		}
		open = true
		cur = Range{Start: v, End: v + 1}
	}
	if open {
		dst = append(dst, cur)
	}
	return dst
}
