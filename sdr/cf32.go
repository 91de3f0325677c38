package sdr

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeCF32 appends iq to dst as interleaved little-endian float32 pairs,
// the on-disk and on-wire sample format.
func EncodeCF32(dst []byte, iq []complex64) []byte {
	for _, s := range iq {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(real(s)))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(imag(s)))
	}
	return dst
}

// DecodeCF32 parses interleaved little-endian float32 pairs.
func DecodeCF32(raw []byte) ([]complex64, error) {
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("cf32 payload length %d is not a multiple of 8", len(raw))
	}
	iq := make([]complex64, len(raw)/8)
	for i := range iq {
		re := math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(raw[8*i+4:]))
		iq[i] = complex(re, im)
	}
	return iq, nil
}
