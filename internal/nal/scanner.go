// Package nal locates NAL units in an Annex-B H.264 byte stream and
// strips emulation-prevention bytes from their payloads.
package nal

// Unit is one NAL unit located by a Scanner: its header fields plus the
// RBSP payload with emulation-prevention bytes already removed. A Unit
// is only valid until the next call to Scanner.Next; callers that need
// to keep the payload must copy it.
type Unit struct {
	RefIDC uint8
	Type   uint8
	RBSP   []byte
}

// Known NAL unit types consumed by the syntax parser. Others are
// surfaced by the scanner but ignored by the fingerprint pipeline.
const (
	TypeSliceNonIDR = 1
	TypeSPS         = 7
	TypePPS         = 8
	TypeSliceIDR    = 5
)

// Scanner walks an Annex-B byte stream start-code by start-code. It is
// single-pass and stateful: construct one per stream.
type Scanner struct {
	data []byte
	pos  int
}

// NewScanner wraps an Annex-B byte stream for NAL-unit iteration.
func NewScanner(data []byte) *Scanner {
	s := &Scanner{data: data}
	s.pos = s.firstStartCode(0)
	return s
}

// firstStartCode returns the index of the first byte after the next
// start code at or after from, or len(s.data) if none is found.
func (s *Scanner) firstStartCode(from int) int {
	idx, length := findStartCode(s.data, from)
	if idx < 0 {
		return len(s.data)
	}
	return idx + length
}

// Next returns the next NAL unit in stream order, or ok=false once the
// stream is exhausted.
func (s *Scanner) Next() (unit Unit, ok bool) {
	if s.pos >= len(s.data) {
		return Unit{}, false
	}

	nextIdx, nextLen := findStartCode(s.data, s.pos)
	end := len(s.data)
	if nextIdx >= 0 {
		end = nextIdx
	}

	raw := s.data[s.pos:end]
	if nextIdx >= 0 {
		s.pos = nextIdx + nextLen
	} else {
		s.pos = len(s.data)
	}

	if len(raw) == 0 {
		return s.Next()
	}

	header := raw[0]
	payload := removeEmulationPrevention(raw[1:])

	return Unit{
		RefIDC: (header >> 5) & 0x03,
		Type:   header & 0x1F,
		RBSP:   payload,
	}, true
}

// findStartCode returns the index of the next 3- or 4-byte start code
// (00 00 01 / 00 00 00 01) at or after from, and its length, or (-1, 0)
// if none is found.
func findStartCode(data []byte, from int) (idx, length int) {
	for i := from; i+2 < len(data); i++ {
		if data[i] != 0 || data[i+1] != 0 {
			continue
		}
		if data[i+2] == 1 {
			return i, 3
		}
		if data[i+2] == 0 && i+3 < len(data) && data[i+3] == 1 {
			return i, 4
		}
	}
	return -1, 0
}

// removeEmulationPrevention replaces every 00 00 03 sequence with 00 00,
// per H.264's emulation-prevention-byte scheme (the inserted 0x03 is
// dropped whenever it follows two zero bytes).
func removeEmulationPrevention(b []byte) []byte {
	out := make([]byte, 0, len(b))
	zeros := 0
	for _, c := range b {
		if zeros >= 2 && c == 0x03 {
			zeros = 0
			continue
		}
		out = append(out, c)
		if c == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}
