package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFingerprintRejectsMissingAnnexBFile(t *testing.T) {
	t.Parallel()

	_, err := loadFingerprint("does-not-exist.h264", "")
	require.Error(t, err)
}

func TestLoadFingerprintLocalImageRequiresEncoderOrRemote(t *testing.T) {
	t.Parallel()

	_, err := loadFingerprint("does-not-exist.png", "")
	require.ErrorContains(t, err, "no hardware encoder registered")
}

func TestRawImageExtsRecognizesCommonFormats(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"} {
		require.True(t, rawImageExts[ext])
	}
	require.False(t, rawImageExts[".h264"])
}
