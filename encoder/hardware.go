package encoder

import (
	"context"
	"fmt"
	"image"

	"github.com/ugparu/fingerprint/internal/errs"
	"github.com/ugparu/fingerprint/internal/logging"
)

// CallbackDriver is the shape most hardware H.264 encoder SDKs
// actually expose: start an encode, get notified later through a
// callback rather than a return value. StartEncode must return
// promptly; onDone may be invoked from any goroutine, exactly once.
type CallbackDriver interface {
	StartEncode(raster image.Image, cfg Config, onDone func(data []byte, err error)) error
}

// BlockingEncoder adapts a CallbackDriver into the synchronous
// Encoder contract, translating the driver's callback-plus-signal
// idiom into a single context-bound blocking call, per §9's
// "callback-driven encoder output" design note.
type BlockingEncoder struct {
	driver CallbackDriver
}

// NewBlockingEncoder wraps driver as an Encoder.
func NewBlockingEncoder(driver CallbackDriver) *BlockingEncoder {
	return &BlockingEncoder{driver: driver}
}

type encodeResult struct {
	data []byte
	err  error
}

// Encode blocks until the driver's callback fires or ctx is done,
// whichever comes first. A ctx deadline expiry surfaces as
// errs.TimeoutError; a callback error surfaces as
// errs.EncoderFailureError; an empty successful result surfaces as
// errs.NoOutputError.
func (b *BlockingEncoder) Encode(ctx context.Context, raster image.Image, cfg Config) ([]byte, error) {
	cfg = cfg.WithDefaults()
	resultCh := make(chan encodeResult, 1)

	if err := b.driver.StartEncode(raster, cfg, func(data []byte, err error) {
		resultCh <- encodeResult{data: data, err: err}
	}); err != nil {
		return nil, fmt.Errorf("encoder: start: %w", err)
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			logging.Warningf("encoder.BlockingEncoder", "hardware encode failed: %v", res.err)
			return nil, errs.EncoderFailureError{Reason: res.err.Error()}
		}
		if len(res.data) == 0 {
			return nil, errs.NoOutputError{}
		}
		return res.data, nil
	case <-ctx.Done():
		return nil, errs.TimeoutError{}
	}
}
