package fingerprint

import (
	"encoding/binary"
	"math"

	"github.com/ugparu/fingerprint/internal/errs"
)

const headerSize = 32

// Field offsets within the fixed-layout header.
const (
	offWidth       = 0
	offHeight      = 2
	offWidthMbs    = 4
	offHeightMbs   = 6
	offQPAvg       = 8
	offSkipRatio   = 9
	offIntraRatio  = 11
	offDCMean      = 13
	offDCStd       = 15
	offEdgeDensity = 17

	pyramid2x2Bytes = 8  // 4 * int16
	pyramid4x4Bytes = 32 // 16 * int16
)

// Serialize encodes the fingerprint into the little-endian fixed
// layout described in the binary serialization section of the spec:
// a 32-byte header (summary fields, padded to offset 32), the five
// num_mbs-length per-macroblock arrays, and the two pyramids.
func (f Fingerprint) Serialize() []byte {
	n := f.NumMbs()
	total := headerSize + 2*n + 3*2*n + pyramid2x2Bytes + pyramid4x4Bytes
	buf := make([]byte, total)

	binary.LittleEndian.PutUint16(buf[offWidth:], f.Width)
	binary.LittleEndian.PutUint16(buf[offHeight:], f.Height)
	binary.LittleEndian.PutUint16(buf[offWidthMbs:], f.WidthMbs)
	binary.LittleEndian.PutUint16(buf[offHeightMbs:], f.HeightMbs)
	buf[offQPAvg] = f.QPAvg
	binary.LittleEndian.PutUint16(buf[offSkipRatio:], float32ToHalf(f.SkipRatio))
	binary.LittleEndian.PutUint16(buf[offIntraRatio:], float32ToHalf(f.IntraRatio))
	binary.LittleEndian.PutUint16(buf[offDCMean:], uint16(f.DCMean))
	binary.LittleEndian.PutUint16(buf[offDCStd:], float32ToHalf(f.DCStd))
	binary.LittleEndian.PutUint16(buf[offEdgeDensity:], float32ToHalf(f.EdgeDensity))
	// bytes [19, 32) stay zero: padding.

	off := headerSize
	off += copyUint8(buf[off:], f.MBTypes)
	off += copyUint8(buf[off:], f.IntraModes)
	off += copyInt16(buf[off:], f.DCLuma)
	off += copyInt16(buf[off:], f.DCCb)
	off += copyInt16(buf[off:], f.DCCr)
	off += copyInt16(buf[off:], f.Pyramid2x2)
	copyInt16(buf[off:], f.Pyramid4x4)

	return buf
}

// Deserialize decodes a Fingerprint from its Serialize layout. It
// fails with InvalidDataError if the buffer is shorter than the
// header or its length is inconsistent with the macroblock count
// encoded in the header.
func Deserialize(data []byte) (Fingerprint, error) {
	if len(data) < headerSize {
		return Fingerprint{}, errs.InvalidDataError{}
	}

	var fp Fingerprint
	fp.Width = binary.LittleEndian.Uint16(data[offWidth:])
	fp.Height = binary.LittleEndian.Uint16(data[offHeight:])
	fp.WidthMbs = binary.LittleEndian.Uint16(data[offWidthMbs:])
	fp.HeightMbs = binary.LittleEndian.Uint16(data[offHeightMbs:])
	fp.QPAvg = data[offQPAvg]
	fp.SkipRatio = halfToFloat32(binary.LittleEndian.Uint16(data[offSkipRatio:]))
	fp.IntraRatio = halfToFloat32(binary.LittleEndian.Uint16(data[offIntraRatio:]))
	fp.DCMean = int16(binary.LittleEndian.Uint16(data[offDCMean:]))
	fp.DCStd = halfToFloat32(binary.LittleEndian.Uint16(data[offDCStd:]))
	fp.EdgeDensity = halfToFloat32(binary.LittleEndian.Uint16(data[offEdgeDensity:]))

	n := fp.NumMbs()
	total := headerSize + 2*n + 3*2*n + pyramid2x2Bytes + pyramid4x4Bytes
	if len(data) != total {
		return Fingerprint{}, errs.InvalidDataError{}
	}

	off := headerSize
	fp.MBTypes, off = readUint8(data, off, n)
	fp.IntraModes, off = readUint8(data, off, n)
	fp.DCLuma, off = readInt16(data, off, n)
	fp.DCCb, off = readInt16(data, off, n)
	fp.DCCr, off = readInt16(data, off, n)
	fp.Pyramid2x2, off = readInt16(data, off, 4)
	fp.Pyramid4x4, _ = readInt16(data, off, 16)

	return fp, nil
}

func copyUint8(dst []byte, src []uint8) int {
	copy(dst, src)
	return len(src)
}

func copyInt16(dst []byte, src []int16) int {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(v))
	}
	return 2 * len(src)
}

func readUint8(data []byte, off, n int) ([]uint8, int) {
	out := make([]uint8, n)
	copy(out, data[off:off+n])
	return out, off + n
}

func readInt16(data []byte, off, n int) ([]int16, int) {
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[off+2*i:]))
	}
	return out, off + 2*n
}

// float32ToHalf converts to the IEEE-754 binary16 bit pattern. The Go
// standard library has no half-precision type; none of the pipeline's
// dependencies carry one either, so this is the one place the module
// falls back to a hand-rolled conversion instead of an imported
// library.
func float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint(14 - exp)
		return sign | uint16(mant>>shift)
	case exp >= 0x1f:
		return sign | 0x7c00
	default:
		return sign | uint16(exp)<<10 | uint16(mant>>13)
	}
}

// halfToFloat32 converts an IEEE-754 binary16 bit pattern back to a
// float32.
func halfToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := (h >> 10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		e := 0
		for mant&0x400 == 0 {
			mant <<= 1
			e++
		}
		mant &= 0x3ff
		exp32 := uint32(127 - 14 - e)
		return math.Float32frombits(sign | exp32<<23 | mant<<13)
	case 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	default:
		exp32 := uint32(int32(exp) - 15 + 127)
		return math.Float32frombits(sign | exp32<<23 | mant<<13)
	}
}
