package service

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ugparu/fingerprint/encoder"
	"github.com/ugparu/fingerprint/fingerprint"
	"github.com/ugparu/fingerprint/internal/logging"
)

const logSubject = "service.Server"

// fingerprintSummary is the JSON shape returned for a single image: the
// scalar summary fields of fingerprint.Fingerprint, omitting the
// per-macroblock arrays a human debugging a mismatch rarely needs.
type fingerprintSummary struct {
	Width       uint16  `json:"width"`
	Height      uint16  `json:"height"`
	WidthMbs    uint16  `json:"width_mbs"`
	HeightMbs   uint16  `json:"height_mbs"`
	QPAvg       uint8   `json:"qp_avg"`
	SkipRatio   float32 `json:"skip_ratio"`
	IntraRatio  float32 `json:"intra_ratio"`
	DCMean      int16   `json:"dc_mean"`
	DCStd       float32 `json:"dc_std"`
	EdgeDensity float32 `json:"edge_density"`
}

func toSummary(fp fingerprint.Fingerprint) fingerprintSummary {
	return fingerprintSummary{
		Width:       fp.Width,
		Height:      fp.Height,
		WidthMbs:    fp.WidthMbs,
		HeightMbs:   fp.HeightMbs,
		QPAvg:       fp.QPAvg,
		SkipRatio:   fp.SkipRatio,
		IntraRatio:  fp.IntraRatio,
		DCMean:      fp.DCMean,
		DCStd:       fp.DCStd,
		EdgeDensity: fp.EdgeDensity,
	}
}

type compareResponse struct {
	A                fingerprintSummary `json:"a"`
	B                fingerprintSummary `json:"b"`
	DistanceFast     float64            `json:"distance_fast"`
	DistancePyramid  float64            `json:"distance_pyramid"`
	DistanceFull     float64            `json:"distance_full"`
	CosineSimilarity float64            `json:"cosine_similarity"`
	HammingDistance  uint32             `json:"hamming_distance"`
	Similarity       float64            `json:"similarity"`
	IsSimilar        bool               `json:"is_similar"`
}

// handleFingerprint implements POST /v1/fingerprint: a multipart image
// is compressed via the encoder collaborator and reduced to a
// fingerprint summary.
func (s *Server) handleFingerprint(c *gin.Context) {
	fp, err := s.fingerprintUpload(c, "image")
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, toSummary(fp))
}

// handleCompare implements POST /v1/compare: two multipart images are
// each compressed and fingerprinted, and all five distance metrics
// between them are reported.
func (s *Server) handleCompare(c *gin.Context) {
	a, err := s.fingerprintUpload(c, "a")
	if err != nil {
		return
	}
	b, err := s.fingerprintUpload(c, "b")
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, compareResponse{
		A:                toSummary(a),
		B:                toSummary(b),
		DistanceFast:     a.DistanceFast(b),
		DistancePyramid:  a.DistancePyramid(b),
		DistanceFull:     a.DistanceFull(b),
		CosineSimilarity: a.CosineSimilarity(b),
		HammingDistance:  a.HammingDistance(b),
		Similarity:       a.Similarity(b),
		IsSimilar:        a.IsSimilar(b, fingerprint.DefaultSimilarityThreshold),
	})
}

// fingerprintUpload reads the named multipart field, drives the
// encoder collaborator, and extracts a fingerprint from the result. On
// any failure it writes the appropriate JSON error response itself and
// returns a non-nil error so the caller can bail out early.
func (s *Server) fingerprintUpload(c *gin.Context, field string) (fingerprint.Fingerprint, error) {
	file, _, err := c.Request.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing field: " + field})
		return fingerprint.Fingerprint{}, err
	}
	defer closeUpload(file)

	raster, err := decodeRaster(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unrecognized image format"})
		return fingerprint.Fingerprint{}, err
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), encoder.DefaultTimeout)
	defer cancel()

	bounds := raster.Bounds()
	cfg := encoder.Config{Width: bounds.Dx(), Height: bounds.Dy()}.WithDefaults()

	stream, err := s.enc.Encode(ctx, raster, cfg)
	if err != nil {
		logging.Warningf(logSubject, "encode failed for field %q: %v", field, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "encode failed"})
		return fingerprint.Fingerprint{}, err
	}

	fp, err := fingerprint.Extract(stream)
	if err != nil {
		logging.Warningf(logSubject, "extract failed for field %q: %v", field, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return fingerprint.Fingerprint{}, err
	}

	return fp, nil
}

func closeUpload(f multipart.File) {
	_ = f.Close()
}
