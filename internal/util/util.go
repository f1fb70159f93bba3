package util

import (
	"fmt"
	"strings"
)

// HexDump renders up to limit bytes of data, 16 bytes per row grouped in pairs.
func HexDump(data []byte, limit int) string {
	return HexDumpCfg(data, limit, 2, 8)
}

func HexDumpCfg(data []byte, limit int, group int, cols int) string {
	if limit > len(data) || limit < 0 {
		limit = len(data)
	}
	if group <= 0 { group = 1 }
	if cols <= 0 { cols = 1 }
	rowLen := group * cols

	var b strings.Builder
	for i := 0; i < limit; i += rowLen {
		fmt.Fprintf(&b, "+%04x | ", i)
		for j := 0; j < rowLen; j++ {
			if i+j < limit {
				fmt.Fprintf(&b, "%02x", data[i+j])
			} else {
				b.WriteString("  ")
			}
			// Handle grouping (space between byte groups)
			if (j+1)%group == 0 {
				b.WriteByte(' ')
			}
		}
		b.WriteString("| ")
		for j := 0; j < rowLen && i+j < limit; j++ {
			c := data[i+j]
			if c < 0x20 || c > 0x7e { c = '.' }
			b.WriteByte(c)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// splitmix64
func Hash(val uint64) uint64 {
	x := val
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x =  x ^ (x >> 31)
	return x
}

// Fill writes a deterministic pseudo-random pattern derived from seed.
func Fill(buf []byte, seed uint64) {
	var word uint64
	for i := range buf {
		if i%8 == 0 {
			word = Hash(seed + uint64(i/8))
		}
		buf[i] = byte(word >> (8 * (i % 8)))
	}
}
