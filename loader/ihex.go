// https://github.com/usbarmory/tamago
//
// Copyright (c) The TamaGo Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package loader

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strings"
)

// Intel HEX record types, per https://en.wikipedia.org/wiki/Intel_HEX.
const (
	recData                = 0x00
	recEndOfFile           = 0x01
	recExtendedSegmentAddr = 0x02
	recStartSegmentAddr    = 0x03
	recExtendedLinearAddr  = 0x04
	recStartLinearAddr     = 0x05
)

// Load parses an Intel HEX stream into a program image, returning the start
// address recorded by a Start Linear/Segment Address record (zero if the
// file carries none).
func Load(r io.Reader) (*Image, uint32, error) {
	img := NewImage()

	var upperAddr uint32 // set by extended segment/linear address records
	var start uint32

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, ":") {
			return nil, 0, fmt.Errorf("loader: line %d: missing record mark", lineNo)
		}

		raw, err := hex.DecodeString(line[1:])
		if err != nil {
			return nil, 0, fmt.Errorf("loader: line %d: %w", lineNo, err)
		}
		if len(raw) < 5 {
			return nil, 0, fmt.Errorf("loader: line %d: record too short", lineNo)
		}

		byteCount := int(raw[0])
		addr := uint32(raw[1])<<8 | uint32(raw[2])
		recType := raw[3]
		data := raw[4 : 4+byteCount]

		if len(raw) != byteCount+5 {
			return nil, 0, fmt.Errorf("loader: line %d: byte count mismatch", lineNo)
		}
		if !validChecksum(raw) {
			return nil, 0, fmt.Errorf("loader: line %d: checksum mismatch", lineNo)
		}

		switch recType {
		case recData:
			base := upperAddr + addr
			for i, b := range data {
				img.WriteByte(base+uint32(i), b)
			}
		case recEndOfFile:
			return img, start, nil
		case recExtendedSegmentAddr:
			upperAddr = (uint32(data[0])<<8 | uint32(data[1])) << 4
		case recExtendedLinearAddr:
			upperAddr = (uint32(data[0])<<8 | uint32(data[1])) << 16
		case recStartSegmentAddr, recStartLinearAddr:
			if len(data) == 4 {
				start = uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
			}
		default:
			log.Printf("loader: line %d: unsupported record type %#x, ignoring", lineNo, recType)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}

	return img, start, nil
}

func validChecksum(raw []byte) bool {
	var sum byte
	for _, b := range raw[:len(raw)-1] {
		sum += b
	}
	checksum := raw[len(raw)-1]
	return byte(-sum) == checksum
}
