package h264syntax

import (
	"github.com/ugparu/fingerprint/internal/bits"
	"github.com/ugparu/fingerprint/internal/errs"
)

// PPS is a picture parameter set, trimmed to the fields the pipeline
// needs: the QP baseline and the entropy mode.
type PPS struct {
	ID                    uint32
	SPSID                 uint32
	EntropyCodingModeFlag bool
	NumSliceGroupsMinus1  uint32
	PicInitQPMinus26      int32
}

// ParsePPS decodes a picture parameter set from a cleaned RBSP
// payload. Only the prefix up to pic_init_qp_minus26 is read; the
// remaining PPS syntax is never needed by this pipeline. Fails with
// UnsupportedEntropyModeError when entropy_coding_mode_flag selects
// CABAC.
func ParsePPS(rbsp []byte) (PPS, error) {
	r := bits.NewReader(rbsp)
	pps := PPS{}

	var err error
	if pps.ID, err = r.ReadUE(); err != nil {
		return PPS{}, err
	}
	if pps.SPSID, err = r.ReadUE(); err != nil {
		return PPS{}, err
	}
	if pps.EntropyCodingModeFlag, err = r.ReadFlag(); err != nil {
		return PPS{}, err
	}
	if pps.EntropyCodingModeFlag {
		return PPS{}, errs.UnsupportedEntropyModeError{}
	}
	if _, err := r.ReadFlag(); err != nil { // bottom_field_pic_order_in_frame_present_flag
		return PPS{}, err
	}
	if pps.NumSliceGroupsMinus1, err = r.ReadUE(); err != nil {
		return PPS{}, err
	}
	if pps.NumSliceGroupsMinus1 > 0 {
		// Slice-group-map syntax is never exercised by this pipeline's
		// inputs (single-slice-group CAVLC streams); bail out rather
		// than silently mis-skip it.
		return PPS{}, errs.UnsupportedProfileError{}
	}
	if _, err := r.ReadUE(); err != nil { // num_ref_idx_l0_default_active_minus1
		return PPS{}, err
	}
	if _, err := r.ReadUE(); err != nil { // num_ref_idx_l1_default_active_minus1
		return PPS{}, err
	}
	if _, err := r.ReadFlag(); err != nil { // weighted_pred_flag
		return PPS{}, err
	}
	if _, err := r.ReadBits(2); err != nil { // weighted_bipred_idc
		return PPS{}, err
	}
	if pps.PicInitQPMinus26, err = r.ReadSE(); err != nil {
		return PPS{}, err
	}

	// pic_init_qs_minus26 onward (deblocking, transform-8x8, scaling
	// lists) is never read: nothing downstream needs it.
	return pps, nil
}

// QP returns the clamped baseline slice QP for a given slice_qp_delta.
func (p PPS) QP(sliceQPDelta int32) uint8 {
	qp := 26 + p.PicInitQPMinus26 + sliceQPDelta
	switch {
	case qp < 0:
		return 0
	case qp > 51:
		return 51
	default:
		return uint8(qp)
	}
}
