// Package encoder defines the boundary contract for the opaque
// hardware H.264 compressor the fingerprint pipeline treats as an
// external collaborator: given a raster image and a configuration, it
// yields an Annex-B byte stream. This package never implements that
// compressor; it only adapts whatever callback/async idiom the real
// driver uses into the synchronous, context-aware shape the rest of
// the codebase expects.
package encoder

import (
	"context"
	"image"
	"time"
)

// Profile names accepted by Config.Profile.
const (
	ProfileBaseline = "baseline"
	ProfileMain     = "main"
)

// EntropyMode names accepted by Config.EntropyMode. Only CAVLC is
// supported by the syntax parser downstream.
const (
	EntropyCAVLC = "cavlc"
	EntropyCABAC = "cabac"
)

const (
	defaultBitrateBps = 2_000_000
	defaultQuality    = 70
)

// Config describes how the encoder collaborator should compress a
// raster. Zero-value fields are filled in by WithDefaults.
type Config struct {
	Width, Height int
	BitrateBps    int
	Profile       string
	IFrameOnly    bool
	Quality       int
	EntropyMode   string
}

// WithDefaults returns a copy of c with documented defaults applied
// to any zero-valued field: bitrate 2 Mbps, baseline profile, quality
// 70, CAVLC entropy mode, single-frame (I-frame-only) output.
func (c Config) WithDefaults() Config {
	if c.BitrateBps == 0 {
		c.BitrateBps = defaultBitrateBps
	}
	if c.Profile == "" {
		c.Profile = ProfileBaseline
	}
	if c.Quality == 0 {
		c.Quality = defaultQuality
	}
	if c.EntropyMode == "" {
		c.EntropyMode = EntropyCAVLC
	}
	c.IFrameOnly = true
	return c
}

// Encoder is the synchronous contract the rest of the pipeline
// depends on. ctx carries the caller's deadline/cancellation; a real
// driver's callback-based completion must be translated into this
// blocking shape (see BlockingEncoder).
type Encoder interface {
	Encode(ctx context.Context, raster image.Image, cfg Config) ([]byte, error)
}

// DefaultTimeout is the deadline a caller should apply to ctx when it
// has no domain-specific preference, per §5's "default 5 s" contract.
const DefaultTimeout = 5 * time.Second
