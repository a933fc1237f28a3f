package fingerprint

import (
	"math"

	"github.com/ugparu/fingerprint/internal/bits"
	"github.com/ugparu/fingerprint/internal/errs"
	"github.com/ugparu/fingerprint/internal/h264syntax"
	"github.com/ugparu/fingerprint/internal/logging"
	"github.com/ugparu/fingerprint/internal/nal"
)

const logSubject = "fingerprint.Extract"

const defaultQP = 26

// dcApproxStride is the number of bits the degraded DC approximation
// skips between a macroblock's luma byte and its Cb byte. See
// readApproxDC and SPEC_FULL.md's FeatureExtractor section.
const dcApproxStride = 8

// Extract parses a cleaned Annex-B H.264 byte stream and mines it for
// a perceptual Fingerprint. The first SPS and PPS encountered govern
// the macroblock grid; every slice NAL thereafter is walked in order.
func Extract(data []byte) (Fingerprint, error) {
	scanner := nal.NewScanner(data)

	var sps h264syntax.SPS
	var pps h264syntax.PPS
	haveSPS, havePPS := false, false

	var qpSum, qpCount int

	var fp Fingerprint
	allocated := false

	for {
		unit, ok := scanner.Next()
		if !ok {
			break
		}

		switch unit.Type {
		case nal.TypeSPS:
			if haveSPS {
				continue
			}
			parsed, err := h264syntax.ParseSPS(unit.RBSP)
			if err != nil {
				return Fingerprint{}, err
			}
			sps = parsed
			haveSPS = true
		case nal.TypePPS:
			if havePPS {
				continue
			}
			parsed, err := h264syntax.ParsePPS(unit.RBSP)
			if err != nil {
				return Fingerprint{}, err
			}
			pps = parsed
			havePPS = true
		case nal.TypeSliceIDR, nal.TypeSliceNonIDR:
			if !haveSPS {
				return Fingerprint{}, errs.MissingSpsError{}
			}
			if !havePPS {
				return Fingerprint{}, errs.MissingPpsError{}
			}
			if !allocated {
				fp = newFingerprint(sps)
				allocated = true
			}
			if err := walkSlice(unit.RBSP, sps, pps, &fp, &qpSum, &qpCount); err != nil {
				return Fingerprint{}, err
			}
		}
	}

	if !allocated {
		return Fingerprint{}, errs.MissingSpsError{}
	}

	finalizeSummary(&fp, qpSum, qpCount)
	return fp, nil
}

// newFingerprint allocates the per-macroblock arrays and sets the
// grid dimensions from a parsed SPS, per §4.4 step 2.
func newFingerprint(sps h264syntax.SPS) Fingerprint {
	numMbs := int(sps.WidthMbs()) * int(sps.HeightMbs())

	fp := Fingerprint{
		Width:      uint16(sps.PixelWidth()),
		Height:     uint16(sps.PixelHeight()),
		WidthMbs:   uint16(sps.WidthMbs()),
		HeightMbs:  uint16(sps.HeightMbs()),
		MBTypes:    make([]uint8, numMbs),
		IntraModes: make([]uint8, numMbs),
		DCLuma:     make([]int16, numMbs),
		DCCb:       make([]int16, numMbs),
		DCCr:       make([]int16, numMbs),
	}
	for i := range fp.IntraModes {
		fp.IntraModes[i] = h264syntax.PredDC
	}
	return fp
}

// walkSlice decodes one slice's header and macroblock records into fp.
// A malformed macroblock record after a successfully parsed slice
// header is logged and abandons the rest of the slice, per §7's
// log-and-continue policy; macroblocks already written are kept.
func walkSlice(rbsp []byte, sps h264syntax.SPS, pps h264syntax.PPS, fp *Fingerprint, qpSum, qpCount *int) error {
	r := bits.NewReader(rbsp)

	header, err := h264syntax.ParseSliceHeader(r, sps, pps)
	if err != nil {
		return err
	}

	*qpSum += int(header.SliceQP(pps))
	*qpCount++

	numMbs := fp.NumMbs()
	mb := int(header.FirstMbInSlice)

	for mb < numMbs {
		if !header.IsIntra() {
			skipRun, err := r.ReadUE()
			if err != nil {
				logging.Warningf(logSubject, "slice abandoned decoding mb_skip_run at mb %d: %v", mb, err)
				return nil
			}
			skipCode := uint8(h264syntax.CodePSkip)
			if header.Type == h264syntax.SliceTypeB {
				skipCode = h264syntax.CodeBSkip
			}
			for i := uint32(0); i < skipRun && mb < numMbs; i++ {
				fp.MBTypes[mb] = skipCode
				mb++
			}
			if mb >= numMbs {
				break
			}
			if r.BitsRemaining() == 0 {
				// The slice ended exactly on a skip run; nothing more to walk.
				break
			}
		}

		rec, err := h264syntax.DecodeMBType(header.Type, r)
		if err != nil {
			logging.Warningf(logSubject, "slice abandoned decoding mb_type at mb %d: %v", mb, err)
			return nil
		}

		dcLuma, dcCb, dcCr, err := readApproxDC(r)
		if err != nil {
			logging.Warningf(logSubject, "slice abandoned decoding dc coefficients at mb %d: %v", mb, err)
			return nil
		}

		fp.MBTypes[mb] = rec.TypeCode
		fp.IntraModes[mb] = rec.IntraMode
		fp.DCLuma[mb] = dcLuma
		fp.DCCb[mb] = dcCb
		fp.DCCr[mb] = dcCr
		mb++

		if r.BitsRemaining() == 0 {
			break
		}
	}

	return nil
}

// readApproxDC implements the fallback DC approximation: one byte per
// plane, read at the macroblock's current bit position, stride-offset
// as if sampling the macroblock's coded residual bytes.
func readApproxDC(r *bits.Reader) (luma, cb, cr int16, err error) {
	lumaByte, err := r.ReadBits(8)
	if err != nil {
		return 0, 0, 0, err
	}
	if err := r.SkipBits(dcApproxStride); err != nil {
		return 0, 0, 0, err
	}
	cbByte, err := r.ReadBits(8)
	if err != nil {
		return 0, 0, 0, err
	}
	crByte, err := r.ReadBits(8)
	if err != nil {
		return 0, 0, 0, err
	}
	return int16(int32(lumaByte) - 128), int16(int32(cbByte) - 128), int16(int32(crByte) - 128), nil
}

// finalizeSummary computes the summary statistics and spatial
// pyramids from the accumulated per-macroblock arrays, per §4.4 steps
// 4-5.
func finalizeSummary(fp *Fingerprint, qpSum, qpCount int) {
	fp.QPAvg = defaultQP
	if qpCount > 0 {
		fp.QPAvg = clampQP(roundDiv(qpSum, qpCount))
	}

	n := fp.NumMbs()
	if n == 0 {
		fp.Pyramid2x2 = make([]int16, 4)
		fp.Pyramid4x4 = make([]int16, 16)
		return
	}

	var skipCount, intraCount, edgeCount int
	var dcSum int64
	for i := 0; i < n; i++ {
		if h264syntax.IsSkipCode(fp.MBTypes[i]) {
			skipCount++
		}
		if h264syntax.IsIntraCode(fp.MBTypes[i]) {
			intraCount++
		}
		if fp.IntraModes[i] != h264syntax.PredPlanar && fp.IntraModes[i] != h264syntax.PredDC {
			edgeCount++
		}
		dcSum += int64(fp.DCLuma[i])
	}

	fp.SkipRatio = float32(skipCount) / float32(n)
	fp.IntraRatio = float32(intraCount) / float32(n)
	fp.EdgeDensity = float32(edgeCount) / float32(n)
	fp.DCMean = int16(dcSum / int64(n))

	var variance float64
	for i := 0; i < n; i++ {
		d := float64(fp.DCLuma[i]) - float64(dcSum)/float64(n)
		variance += d * d
	}
	variance /= float64(n)
	fp.DCStd = float32(math.Sqrt(variance))

	fp.Pyramid2x2 = buildPyramid(fp, 2)
	fp.Pyramid4x4 = buildPyramid(fp, 4)
}

// buildPyramid computes the tiles·tiles spatial pyramid of dc_luma
// means described in §4.4 step 5.
func buildPyramid(fp *Fingerprint, tiles int) []int16 {
	w, h := int(fp.WidthMbs), int(fp.HeightMbs)
	tileW := w / tiles
	if tileW < 1 {
		tileW = 1
	}
	tileH := h / tiles
	if tileH < 1 {
		tileH = 1
	}

	out := make([]int16, tiles*tiles)
	for py := 0; py < tiles; py++ {
		for px := 0; px < tiles; px++ {
			x0, x1 := px*tileW, min((px+1)*tileW, w)
			y0, y1 := py*tileH, min((py+1)*tileH, h)

			var sum int64
			var count int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					sum += int64(fp.DCLuma[y*w+x])
					count++
				}
			}
			if count > 0 {
				out[py*tiles+px] = int16(sum / int64(count))
			}
		}
	}
	return out
}

func clampQP(qp int) uint8 {
	switch {
	case qp < 0:
		return 0
	case qp > 51:
		return 51
	default:
		return uint8(qp)
	}
}

func roundDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	if a >= 0 {
		return (a + b/2) / b
	}
	return -((-a + b/2) / b)
}
