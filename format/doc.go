// Package format reads execution coverage bitmap files.
//
// A file is a fixed header followed by a sequence of segments, all integers
// little endian:
//
//	int32  number       label assigned by the producer
//	int32  range_count  number of segments that follow
//
//	repeated range_count times:
//	  uint32 start      first address of the window (inclusive)
//	  uint32 end        last address of the window (exclusive)
//	  uint32 size       number of bitmap bytes that follow
//	  [size]byte        bit o%8 of byte o/8 marks address start+o
//
// Segments are consumed strictly in order and decoded independently; set bits
// never form a run across two segments.
package format
