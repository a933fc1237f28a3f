package service

// Bit-level fixture helpers, duplicated from the fingerprint package's
// own test helpers so this package's HTTP-layer tests can drive a
// fake encoder with a real, parseable Annex-B stream without importing
// fingerprint's _test.go files.

func packBits(fields ...[2]uint32) []byte {
	var bitstr []byte
	for _, f := range fields {
		value, width := f[0], f[1]
		for i := int(width) - 1; i >= 0; i-- {
			bitstr = append(bitstr, byte((value>>uint(i))&1))
		}
	}
	out := make([]byte, (len(bitstr)+7)/8)
	for i, b := range bitstr {
		if b == 1 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func ue(v uint32) [2]uint32 {
	n := v + 1
	width := 0
	for t := n; t > 0; t >>= 1 {
		width++
	}
	return [2]uint32{n, uint32(2*width - 1)}
}

func se(v int32) [2]uint32 {
	var codeNum uint32
	if v <= 0 {
		codeNum = uint32(-2 * v)
	} else {
		codeNum = uint32(2*v - 1)
	}
	return ue(codeNum)
}

func flag(b bool) [2]uint32 {
	if b {
		return [2]uint32{1, 1}
	}
	return [2]uint32{0, 1}
}

func bitsField(v uint32, width uint32) [2]uint32 { return [2]uint32{v, width} }

func annexB(nalRefIDC, nalType uint8, rbsp []byte) []byte {
	header := (nalRefIDC&0x03)<<5 | (nalType & 0x1F)
	out := []byte{0x00, 0x00, 0x00, 0x01, header}
	return append(out, rbsp...)
}
