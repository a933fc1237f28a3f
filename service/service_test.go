package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ugparu/fingerprint/encoder"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// buildMiniStream mirrors fingerprint.buildMiniStream: a 2x2
// macroblock I-only frame, duplicated here since it is an unexported
// test fixture in another package.
func buildMiniStream() []byte {
	sps := packBits(
		bitsField(66, 8),
		bitsField(0, 8),
		bitsField(30, 8),
		ue(0), ue(0), ue(0), ue(4), ue(1), flag(false),
		ue(1), ue(1), flag(true), flag(false), flag(false),
	)

	pps := packBits(
		ue(0), ue(0), flag(false), flag(false),
		ue(0), ue(0), ue(0), flag(false),
		bitsField(0, 2), se(0),
	)

	sliceFields := []([2]uint32){
		ue(0), ue(7), ue(0), bitsField(0, 4), se(0),
	}
	for i := 0; i < 4; i++ {
		sliceFields = append(sliceFields,
			ue(3),
			bitsField(130, 8),
			bitsField(0xFF, 8),
			bitsField(128, 8),
			bitsField(128, 8),
		)
	}
	slice := packBits(sliceFields...)

	var stream []byte
	stream = append(stream, annexB(3, 7, sps)...)
	stream = append(stream, annexB(3, 8, pps)...)
	stream = append(stream, annexB(2, 5, slice)...)
	return stream
}

type fakeEncoder struct {
	stream []byte
	err    error
}

func (f *fakeEncoder) Encode(_ context.Context, _ image.Image, _ encoder.Config) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func pngUpload(t *testing.T, field, filename string, w, h int) (*bytes.Buffer, string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Gray{Y: 128})
		}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestHandleFingerprintSuccess(t *testing.T) {
	t.Parallel()

	srv := New(&fakeEncoder{stream: buildMiniStream()})

	body, contentType := pngUpload(t, "image", "a.png", 32, 32)
	req := httptest.NewRequest(http.MethodPost, "/v1/fingerprint", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"width_mbs":2`)
	require.Contains(t, rec.Body.String(), `"qp_avg":26`)
}

func TestHandleFingerprintMissingField(t *testing.T) {
	t.Parallel()

	srv := New(&fakeEncoder{stream: buildMiniStream()})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/fingerprint", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCompareSuccess(t *testing.T) {
	t.Parallel()

	srv := New(&fakeEncoder{stream: buildMiniStream()})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, field := range []string{"a", "b"} {
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		part, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		require.NoError(t, png.Encode(part, img))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/compare", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"is_similar":true`)
}

func TestHandleFingerprintEncodeFailure(t *testing.T) {
	t.Parallel()

	srv := New(&fakeEncoder{err: context.DeadlineExceeded})

	body, contentType := pngUpload(t, "image", "a.png", 32, 32)
	req := httptest.NewRequest(http.MethodPost, "/v1/fingerprint", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}
