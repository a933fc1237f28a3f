// Package h264syntax decodes the H.264 syntax elements the fingerprint
// pipeline needs: sequence and picture parameter sets, slice headers,
// and per-macroblock records. It deliberately stops short of a full
// decoder — no pixel reconstruction, no motion vectors, no CABAC.
package h264syntax

import (
	"github.com/ugparu/fingerprint/internal/bits"
	"github.com/ugparu/fingerprint/internal/errs"
)

// SPS is a sequence parameter set, trimmed to the fields the pipeline
// needs to size the macroblock grid and frame a slice's frame_num.
type SPS struct {
	ID                      uint32
	ProfileIDC              uint8
	ChromaFormatIDC         uint32
	Log2MaxFrameNumMinus4   uint32
	PicWidthInMbsMinus1     uint32
	PicHeightInMapUnitsMin1 uint32
	FrameMbsOnlyFlag        bool
	CropLeft                uint32
	CropRight               uint32
	CropTop                 uint32
	CropBottom              uint32
}

// highProfileIDC lists the profile_idc values whose SPS carries
// chroma_format_idc, bit-depth and scaling-list fields (ITU-T H.264
// §7.3.2.1.1, the "if profile_idc is one of ..." clause).
var highProfileIDC = map[uint8]bool{
	100: true, 110: true, 122: true, 244: true, 44: true,
	83: true, 86: true, 118: true, 128: true,
	138: true, 139: true, 134: true, 135: true,
}

// ParseSPS decodes a sequence parameter set from a cleaned RBSP
// payload (emulation-prevention bytes already removed). VUI and any
// trailing bits are never read.
func ParseSPS(rbsp []byte) (SPS, error) {
	r := bits.NewReader(rbsp)
	sps := SPS{ChromaFormatIDC: 1, Log2MaxFrameNumMinus4: 4}

	profileIDC, err := r.ReadBits(8)
	if err != nil {
		return SPS{}, err
	}
	sps.ProfileIDC = uint8(profileIDC)

	if err := r.SkipBits(8); err != nil { // constraint flags + reserved
		return SPS{}, err
	}
	if err := r.SkipBits(8); err != nil { // level_idc
		return SPS{}, err
	}

	if sps.ID, err = r.ReadUE(); err != nil {
		return SPS{}, err
	}

	if highProfileIDC[sps.ProfileIDC] {
		if sps.ChromaFormatIDC, err = r.ReadUE(); err != nil {
			return SPS{}, err
		}
		if sps.ChromaFormatIDC == 3 {
			if _, err := r.ReadFlag(); err != nil { // separate_colour_plane_flag
				return SPS{}, err
			}
		}
		if _, err := r.ReadUE(); err != nil { // bit_depth_luma_minus8
			return SPS{}, err
		}
		if _, err := r.ReadUE(); err != nil { // bit_depth_chroma_minus8
			return SPS{}, err
		}
		if _, err := r.ReadFlag(); err != nil { // qpprime_y_zero_transform_bypass_flag
			return SPS{}, err
		}
		seqScalingMatrixPresent, err := r.ReadFlag()
		if err != nil {
			return SPS{}, err
		}
		if seqScalingMatrixPresent {
			numLists := 8
			if sps.ChromaFormatIDC == 3 {
				numLists = 12
			}
			for i := 0; i < numLists; i++ {
				present, err := r.ReadFlag()
				if err != nil {
					return SPS{}, err
				}
				if present {
					size := 16
					if i >= 6 {
						size = 64
					}
					if err := skipScalingList(r, size); err != nil {
						return SPS{}, err
					}
				}
			}
		}
		if sps.ChromaFormatIDC != 1 {
			return SPS{}, errs.UnsupportedProfileError{}
		}
	}

	if sps.Log2MaxFrameNumMinus4, err = r.ReadUE(); err != nil {
		return SPS{}, err
	}

	picOrderCntType, err := r.ReadUE()
	if err != nil {
		return SPS{}, err
	}
	switch picOrderCntType {
	case 0:
		if _, err := r.ReadUE(); err != nil { // log2_max_pic_order_cnt_lsb_minus4
			return SPS{}, err
		}
	case 1:
		if _, err := r.ReadFlag(); err != nil { // delta_pic_order_always_zero_flag
			return SPS{}, err
		}
		if _, err := r.ReadSE(); err != nil { // offset_for_non_ref_pic
			return SPS{}, err
		}
		if _, err := r.ReadSE(); err != nil { // offset_for_top_to_bottom_field
			return SPS{}, err
		}
		numRefFrames, err := r.ReadUE()
		if err != nil {
			return SPS{}, err
		}
		for i := uint32(0); i < numRefFrames; i++ {
			if _, err := r.ReadSE(); err != nil { // offset_for_ref_frame[i]
				return SPS{}, err
			}
		}
	}

	if _, err := r.ReadUE(); err != nil { // max_num_ref_frames
		return SPS{}, err
	}
	if _, err := r.ReadFlag(); err != nil { // gaps_in_frame_num_value_allowed_flag
		return SPS{}, err
	}

	if sps.PicWidthInMbsMinus1, err = r.ReadUE(); err != nil {
		return SPS{}, err
	}
	if sps.PicHeightInMapUnitsMin1, err = r.ReadUE(); err != nil {
		return SPS{}, err
	}
	if sps.FrameMbsOnlyFlag, err = r.ReadFlag(); err != nil {
		return SPS{}, err
	}
	if !sps.FrameMbsOnlyFlag {
		if _, err := r.ReadFlag(); err != nil { // mb_adaptive_frame_field_flag
			return SPS{}, err
		}
	}
	if _, err := r.ReadFlag(); err != nil { // direct_8x8_inference_flag
		return SPS{}, err
	}

	cropPresent, err := r.ReadFlag()
	if err != nil {
		return SPS{}, err
	}
	if cropPresent {
		if sps.CropLeft, err = r.ReadUE(); err != nil {
			return SPS{}, err
		}
		if sps.CropRight, err = r.ReadUE(); err != nil {
			return SPS{}, err
		}
		if sps.CropTop, err = r.ReadUE(); err != nil {
			return SPS{}, err
		}
		if sps.CropBottom, err = r.ReadUE(); err != nil {
			return SPS{}, err
		}
	}

	// VUI parameters, if present, are never read: nothing downstream needs them.
	return sps, nil
}

// skipScalingList advances past a scaling_list of the given size using
// the standard delta-coded algorithm (H.264 §7.3.2.1.1.1): last_scale
// and next_scale start at 8, each entry updates next_scale by a signed
// delta, and once next_scale is 0 no further deltas are read (the
// remaining entries repeat last_scale).
func skipScalingList(r *bits.Reader, size int) error {
	lastScale, nextScale := int32(8), int32(8)
	for j := 0; j < size; j++ {
		if nextScale != 0 {
			delta, err := r.ReadSE()
			if err != nil {
				return err
			}
			nextScale = (lastScale + delta + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
	return nil
}

// WidthMbs is the macroblock grid width.
func (s SPS) WidthMbs() uint32 { return s.PicWidthInMbsMinus1 + 1 }

// HeightMbs is the macroblock grid height, accounting for field coding.
func (s SPS) HeightMbs() uint32 {
	frameHeightInMapUnits := s.PicHeightInMapUnitsMin1 + 1
	if s.FrameMbsOnlyFlag {
		return frameHeightInMapUnits
	}
	return frameHeightInMapUnits * 2
}

// PixelWidth is the cropped display width in pixels.
func (s SPS) PixelWidth() uint32 {
	return s.WidthMbs()*16 - 2*(s.CropLeft+s.CropRight)
}

// PixelHeight is the cropped display height in pixels.
func (s SPS) PixelHeight() uint32 {
	return s.HeightMbs()*16 - 2*(s.CropTop+s.CropBottom)
}

// FrameNumBits is the bit width of the slice header's frame_num field.
func (s SPS) FrameNumBits() uint32 { return s.Log2MaxFrameNumMinus4 + 4 }
