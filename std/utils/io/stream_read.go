package io

import (
	"errors"
	"fmt"
	"io"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/ndn"
)

// ReadTlvStream reads TLV frames from a byte stream and calls onFrame
// for every complete frame. Reading stops when onFrame returns false,
// on EOF (returning nil) or on the first error not accepted by ignoreError.
// The frame passed to onFrame is only valid during the call.
func ReadTlvStream(
	reader io.Reader,
	onFrame func([]byte) bool,
	ignoreError func(error) bool,
) error {
	buf := make([]byte, ndn.MaxNDNPacketSize*8)
	end := 0
	start := 0

	for {
		if len(buf)-end < ndn.MaxNDNPacketSize {
			copy(buf, buf[start:end])
			end -= start
			start = 0
		}

		n, err := reader.Read(buf[end:])
		end += n
		if err != nil {
			if ignoreError != nil && ignoreError(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		for start < end {
			size, ok := frameSize(buf[start:end])
			if !ok {
				if end-start > ndn.MaxNDNPacketSize {
					return fmt.Errorf("received too much data without valid TLV block")
				}
				break
			}
			if size > ndn.MaxNDNPacketSize {
				return fmt.Errorf("TLV block of %d bytes exceeds maximum packet size", size)
			}
			if end-start < size {
				break
			}
			if !onFrame(buf[start : start+size]) {
				return nil
			}
			start += size
		}
	}
}

// frameSize returns the total size of the TLV block at the head of buf.
func frameSize(buf []byte) (int, bool) {
	_, tpos := enc.ParseTLNum(buf)
	if tpos == 0 {
		return 0, false
	}
	l, lpos := enc.ParseTLNum(buf[tpos:])
	if lpos == 0 {
		return 0, false
	}
	return tpos + lpos + int(l), true
}
