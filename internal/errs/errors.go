// Package errs collects the sentinel error kinds shared across the bit
// reader, the NAL scanner, the syntax parser and the fingerprint codec.
// Each kind is a comparable struct (zero-size except EncoderFailureError
// and UnsupportedPayloadError, which carry a detail field) so callers can
// match it with errors.Is/errors.As instead of string-matching a message.
package errs

// TruncatedBitstreamError is returned by BitReader when a read requests
// more bits than remain in the buffer.
type TruncatedBitstreamError struct{}

func (TruncatedBitstreamError) Error() string { return "bits: truncated bitstream" }

// InvalidExpGolombError is returned when an Exp-Golomb UE code's leading
// zero run exceeds 31 bits.
type InvalidExpGolombError struct{}

func (InvalidExpGolombError) Error() string { return "bits: invalid exp-golomb code" }

// MissingSpsError is returned when a slice NAL is encountered before any
// SPS has been parsed.
type MissingSpsError struct{}

func (MissingSpsError) Error() string { return "h264syntax: missing SPS" }

// MissingPpsError is returned when a slice NAL is encountered before any
// PPS has been parsed.
type MissingPpsError struct{}

func (MissingPpsError) Error() string { return "h264syntax: missing PPS" }

// UnsupportedEntropyModeError is returned when a PPS sets CABAC
// (entropy_coding_mode_flag = 1); only CAVLC streams are supported.
type UnsupportedEntropyModeError struct{}

func (UnsupportedEntropyModeError) Error() string { return "h264syntax: unsupported entropy mode (CABAC)" }

// UnsupportedProfileError is returned when an SPS declares a chroma
// format other than 4:2:0, or when a PPS declares more than one slice
// group.
type UnsupportedProfileError struct{}

func (UnsupportedProfileError) Error() string {
	return "h264syntax: unsupported profile (chroma format or slice groups)"
}

// InvalidDataError is returned by Deserialize when a buffer's length is
// inconsistent with the macroblock count encoded in its header.
type InvalidDataError struct{}

func (InvalidDataError) Error() string { return "fingerprint: invalid serialized data" }

// EncoderFailureError wraps a failure reported by the hardware encoder
// collaborator.
type EncoderFailureError struct {
	Reason string
}

func (e EncoderFailureError) Error() string { return "encoder: failure: " + e.Reason }

// TimeoutError is returned when the encoder collaborator does not
// complete before the caller-supplied deadline.
type TimeoutError struct{}

func (TimeoutError) Error() string { return "encoder: timed out" }

// NoOutputError is returned when the encoder collaborator reports
// completion without producing any bytes.
type NoOutputError struct{}

func (NoOutputError) Error() string { return "encoder: no output produced" }

// EmptyPacketSetError is returned by DepacketizeH264 when given no RTP
// packets to reassemble.
type EmptyPacketSetError struct{}

func (EmptyPacketSetError) Error() string { return "rtpingest: no packets to depacketize" }

// FragmentedPacketLossError is returned when an FU-A fragmentation run
// is missing its start or end marker, indicating a dropped packet.
type FragmentedPacketLossError struct{}

func (FragmentedPacketLossError) Error() string {
	return "rtpingest: incomplete FU-A fragmentation run"
}

// UnsupportedPayloadError is returned when an RTP payload's NAL header
// byte names a fragmentation/aggregation type this adapter does not
// implement.
type UnsupportedPayloadError struct {
	NalType uint8
}

func (e UnsupportedPayloadError) Error() string {
	return "rtpingest: unsupported H.264 RTP payload type"
}
