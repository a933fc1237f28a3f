package rtpingest

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"

	"github.com/ugparu/fingerprint/internal/errs"
)

func packet(seq uint16, payload []byte) *rtp.Packet {
	return &rtp.Packet{
		Header:  rtp.Header{SequenceNumber: seq},
		Payload: payload,
	}
}

func TestDepacketizeSingleNAL(t *testing.T) {
	t.Parallel()

	pkts := []*rtp.Packet{
		packet(1, []byte{0x67, 0xAA, 0xBB}),
		packet(2, []byte{0x68, 0xCC}),
	}

	got, err := DepacketizeH264(pkts)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0, 0, 0, 1, 0x67, 0xAA, 0xBB,
		0, 0, 0, 1, 0x68, 0xCC,
	}, got)
}

func TestDepacketizeOutOfOrder(t *testing.T) {
	t.Parallel()

	pkts := []*rtp.Packet{
		packet(5, []byte{0x68, 0xCC}),
		packet(4, []byte{0x67, 0xAA}),
	}

	got, err := DepacketizeH264(pkts)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0, 0, 0, 1, 0x67, 0xAA,
		0, 0, 0, 1, 0x68, 0xCC,
	}, got)
}

func TestDepacketizeSequenceWraparound(t *testing.T) {
	t.Parallel()

	pkts := []*rtp.Packet{
		packet(65535, []byte{0x67, 0xAA}),
		packet(0, []byte{0x68, 0xCC}),
	}

	got, err := DepacketizeH264(pkts)
	require.NoError(t, err)
	require.Equal(t, []byte{
		0, 0, 0, 1, 0x67, 0xAA,
		0, 0, 0, 1, 0x68, 0xCC,
	}, got)
}

func TestDepacketizeSTAPA(t *testing.T) {
	t.Parallel()

	// STAP-A header (type=24), then two size-prefixed NAL units.
	payload := []byte{24}
	payload = append(payload, 0x00, 0x02, 0x67, 0xAA)
	payload = append(payload, 0x00, 0x01, 0x68)

	got, err := DepacketizeH264([]*rtp.Packet{packet(1, payload)})
	require.NoError(t, err)
	require.Equal(t, []byte{
		0, 0, 0, 1, 0x67, 0xAA,
		0, 0, 0, 1, 0x68,
	}, got)
}

func TestDepacketizeFUA(t *testing.T) {
	t.Parallel()

	// Original NAL header: ref_idc=3, type=5 (IDR slice) -> 0x65.
	// FU indicator: same ref_idc bits, type=28 -> 0x7C.
	fuIndicator := uint8(0x7C)
	start := packet(1, []byte{fuIndicator, 0x85, 0xAA, 0xBB}) // S=1,E=0,type=5
	mid := packet(2, []byte{fuIndicator, 0x05, 0xCC})         // S=0,E=0
	end := packet(3, []byte{fuIndicator, 0x45, 0xDD})         // S=0,E=1

	got, err := DepacketizeH264([]*rtp.Packet{start, mid, end})
	require.NoError(t, err)
	require.Equal(t, []byte{
		0, 0, 0, 1, 0x65, 0xAA, 0xBB, 0xCC, 0xDD,
	}, got)
}

func TestDepacketizeFUAMissingEndMarker(t *testing.T) {
	t.Parallel()

	fuIndicator := uint8(0x7C)
	start := packet(1, []byte{fuIndicator, 0x85, 0xAA})

	_, err := DepacketizeH264([]*rtp.Packet{start})
	require.ErrorIs(t, err, errs.FragmentedPacketLossError{})
}

func TestDepacketizeFUAMissingStartMarker(t *testing.T) {
	t.Parallel()

	fuIndicator := uint8(0x7C)
	mid := packet(1, []byte{fuIndicator, 0x05, 0xAA})

	_, err := DepacketizeH264([]*rtp.Packet{mid})
	require.ErrorIs(t, err, errs.FragmentedPacketLossError{})
}

func TestDepacketizeEmptyPacketSet(t *testing.T) {
	t.Parallel()

	_, err := DepacketizeH264(nil)
	require.ErrorIs(t, err, errs.EmptyPacketSetError{})
}

func TestDepacketizeUnsupportedPayloadType(t *testing.T) {
	t.Parallel()

	_, err := DepacketizeH264([]*rtp.Packet{packet(1, []byte{30})})
	var unsupported errs.UnsupportedPayloadError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, uint8(30), unsupported.NalType)
}
