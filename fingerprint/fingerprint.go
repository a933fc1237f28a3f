// Package fingerprint computes and compares perceptual fingerprints of
// still images mined from the macroblock decisions of an H.264
// encode, rather than from reconstructed pixels.
package fingerprint

// Fingerprint is an immutable record produced by Extract. Every slice
// field has length NumMbs() except Pyramid2x2 (length 4) and
// Pyramid4x4 (length 16).
type Fingerprint struct {
	Width, Height         uint16
	WidthMbs, HeightMbs   uint16
	MBTypes               []uint8
	IntraModes            []uint8
	DCLuma, DCCb, DCCr    []int16
	QPAvg                 uint8
	SkipRatio, IntraRatio float32
	DCMean                int16
	DCStd                 float32
	EdgeDensity           float32
	Pyramid2x2            []int16
	Pyramid4x4            []int16
}

// NumMbs is the macroblock grid's total cell count.
func (f Fingerprint) NumMbs() int {
	return int(f.WidthMbs) * int(f.HeightMbs)
}
