// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package loader parses Intel HEX program images into the segment map the
// Debug Module's Access Memory abstract command simulates memory reads and
// writes against, grounded on the original emulator's ihex_loader.
package loader

// segmentWords is the natural segment size: a segment covers 16384 32-bit
// words (64KiB of address space), matching typical Intel HEX extended
// linear/segment address granularity.
const segmentWords = 16384
const segmentBytes = segmentWords * 4

// Image is a sparse, word-addressed memory image: a mapping from segment
// base address to a fixed-size array of 32-bit words. Unmapped addresses
// read as zero, matching the Debug Module's Access Memory fallback.
type Image struct {
	Segments map[uint32][]uint32
}

// NewImage returns an empty image.
func NewImage() *Image {
	return &Image{Segments: make(map[uint32][]uint32)}
}

func segmentBase(addr uint32) uint32 {
	return addr &^ (segmentBytes - 1)
}

func (img *Image) segment(base uint32, create bool) []uint32 {
	seg, ok := img.Segments[base]
	if !ok {
		if !create {
			return nil
		}
		seg = make([]uint32, segmentWords)
		img.Segments[base] = seg
	}
	return seg
}

// Read32 returns the 32-bit word at addr, or zero if addr falls in an
// unmapped segment.
func (img *Image) Read32(addr uint32) uint32 {
	base := segmentBase(addr)
	seg := img.segment(base, false)
	if seg == nil {
		return 0
	}
	idx := (addr - base) / 4
	return seg[idx]
}

// Write32 stores val at addr, allocating the covering segment on first
// write.
func (img *Image) Write32(addr uint32, val uint32) {
	base := segmentBase(addr)
	seg := img.segment(base, true)
	idx := (addr - base) / 4
	seg[idx] = val
}

// WriteByte stores a single byte (little-endian) into the word covering
// addr, read-modify-writing the containing 32-bit word. Used while loading
// Intel HEX records, which are byte-addressed.
func (img *Image) WriteByte(addr uint32, b byte) {
	wordAddr := addr &^ 3
	shift := (addr & 3) * 8
	word := img.Read32(wordAddr)
	word = (word &^ (0xff << shift)) | uint32(b)<<shift
	img.Write32(wordAddr, word)
}

