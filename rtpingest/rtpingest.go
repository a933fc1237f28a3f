// Package rtpingest adapts RFC 6184 H.264 RTP packets into the
// contiguous Annex-B byte stream the rest of the pipeline expects.
// Some hardware encoders stream their compressed output already
// packetized for transport rather than handing back one buffer; this
// package exists purely to undo that packetization at the boundary.
package rtpingest

import (
	"sort"

	"github.com/pion/rtp"

	"github.com/ugparu/fingerprint/internal/errs"
)

const (
	startCode = "\x00\x00\x00\x01"

	nalTypeMask  = 0x1F
	stapA        = 24
	fuA          = 28
	singleNALMax = 23
)

// DepacketizeH264 reassembles single-NAL, STAP-A, and FU-A RTP payloads
// into one Annex-B byte stream, in sequence-number order, with start
// codes re-inserted ahead of every reconstructed NAL unit. Packets may
// arrive out of order; sequence-number wraparound is handled by
// sorting on the unwrapped 16-bit value modulo-distance from the first
// packet rather than a plain numeric sort.
func DepacketizeH264(packets []*rtp.Packet) ([]byte, error) {
	if len(packets) == 0 {
		return nil, errs.EmptyPacketSetError{}
	}

	ordered := make([]*rtp.Packet, len(packets))
	copy(ordered, packets)
	sortBySequence(ordered)

	var out []byte
	var fragment []byte
	fragmenting := false

	for _, pkt := range ordered {
		if len(pkt.Payload) == 0 {
			continue
		}
		header := pkt.Payload[0]
		nalType := header & nalTypeMask

		switch {
		case nalType >= 1 && nalType <= singleNALMax:
			out = appendNAL(out, pkt.Payload)

		case nalType == stapA:
			units, err := splitSTAPA(pkt.Payload[1:])
			if err != nil {
				return nil, err
			}
			for _, u := range units {
				out = appendNAL(out, u)
			}

		case nalType == fuA:
			if len(pkt.Payload) < 2 {
				return nil, errs.FragmentedPacketLossError{}
			}
			fuHeader := pkt.Payload[1]
			start := fuHeader&0x80 != 0
			end := fuHeader&0x40 != 0

			if start {
				reconstructedHeader := (header & 0xE0) | (fuHeader & nalTypeMask)
				fragment = append([]byte{reconstructedHeader}, pkt.Payload[2:]...)
				fragmenting = true
			} else {
				if !fragmenting {
					return nil, errs.FragmentedPacketLossError{}
				}
				fragment = append(fragment, pkt.Payload[2:]...)
			}

			if end {
				if !fragmenting {
					return nil, errs.FragmentedPacketLossError{}
				}
				out = appendNAL(out, fragment)
				fragment = nil
				fragmenting = false
			}

		default:
			return nil, errs.UnsupportedPayloadError{NalType: nalType}
		}
	}

	if fragmenting {
		return nil, errs.FragmentedPacketLossError{}
	}

	return out, nil
}

// appendNAL appends a start code followed by nal to out.
func appendNAL(out []byte, nal []byte) []byte {
	out = append(out, startCode...)
	return append(out, nal...)
}

// splitSTAPA splits a STAP-A aggregation unit's payload (header byte
// already stripped) into its constituent NAL units, each prefixed in
// the wire format by a 2-byte big-endian size.
func splitSTAPA(payload []byte) ([][]byte, error) {
	var units [][]byte
	for len(payload) > 0 {
		if len(payload) < 2 {
			return nil, errs.FragmentedPacketLossError{}
		}
		size := int(payload[0])<<8 | int(payload[1])
		payload = payload[2:]
		if size > len(payload) {
			return nil, errs.FragmentedPacketLossError{}
		}
		units = append(units, payload[:size])
		payload = payload[size:]
	}
	return units, nil
}

// sortBySequence orders packets by RTP sequence number, unwrapping
// 16-bit wraparound relative to the first packet in the slice so a
// stream crossing the 65535->0 boundary still sorts correctly.
func sortBySequence(packets []*rtp.Packet) {
	if len(packets) == 0 {
		return
	}
	base := packets[0].SequenceNumber
	unwrapped := func(seq uint16) int32 {
		delta := int32(seq) - int32(base)
		if delta < -0x8000 {
			delta += 0x10000
		} else if delta > 0x8000 {
			delta -= 0x10000
		}
		return delta
	}
	sort.SliceStable(packets, func(i, j int) bool {
		return unwrapped(packets[i].SequenceNumber) < unwrapped(packets[j].SequenceNumber)
	})
}
