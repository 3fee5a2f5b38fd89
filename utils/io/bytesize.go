package io

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
)

// ParseByteSize accepts either a plain byte count ("4096") or a human
// readable size ("64K", "64KB", "1M").
func ParseByteSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative byte size %d", n)
		}
		return n, nil
	}
	n, err := bytefmt.ToBytes(s)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("byte size %s is too large", s)
	}
	return int(n), nil
}

// FormatByteSize renders n the way ParseByteSize reads it back. bytefmt keeps
// one decimal, so sizes it would round are written as plain byte counts.
func FormatByteSize(n int) string {
	if n < 0 {
		return strconv.Itoa(n)
	}
	s := bytefmt.ByteSize(uint64(n))
	if back, err := ParseByteSize(s); err != nil || back != n {
		return strconv.Itoa(n)
	}
	return s
}
