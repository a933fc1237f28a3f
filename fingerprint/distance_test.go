package fingerprint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func uniform(numMbs int, widthMbs, heightMbs uint16, dcLuma int16) Fingerprint {
	fp := Fingerprint{
		WidthMbs:   widthMbs,
		HeightMbs:  heightMbs,
		MBTypes:    make([]uint8, numMbs),
		IntraModes: make([]uint8, numMbs),
		DCLuma:     make([]int16, numMbs),
		DCCb:       make([]int16, numMbs),
		DCCr:       make([]int16, numMbs),
		Pyramid2x2: make([]int16, 4),
		Pyramid4x4: make([]int16, 16),
	}
	for i := range fp.DCLuma {
		fp.DCLuma[i] = dcLuma
		fp.IntraModes[i] = 2
	}
	for i := range fp.Pyramid2x2 {
		fp.Pyramid2x2[i] = dcLuma
	}
	for i := range fp.Pyramid4x4 {
		fp.Pyramid4x4[i] = dcLuma
	}
	fp.DCMean = dcLuma
	return fp
}

func TestReflexiveDistances(t *testing.T) {
	t.Parallel()

	f := uniform(16, 4, 4, 100)
	require.Equal(t, 0.0, f.DistanceFast(f))
	require.Equal(t, 0.0, f.DistancePyramid(f))
	require.Equal(t, 0.0, f.DistanceFull(f))
	require.InDelta(t, 1.0, f.CosineSimilarity(f), 1e-9)
	require.Equal(t, uint32(0), f.HammingDistance(f))
}

func TestIdenticalFingerprintsS2(t *testing.T) {
	t.Parallel()

	a := uniform(16, 4, 4, 100)
	b := uniform(16, 4, 4, 100)

	require.Equal(t, 0.0, a.DistanceFull(b))
	require.InDelta(t, 1.0, a.CosineSimilarity(b), 1e-9)
	require.Equal(t, uint32(0), a.HammingDistance(b))
}

func TestBrightnessShiftS3(t *testing.T) {
	t.Parallel()

	a := uniform(16, 4, 4, 50)
	b := uniform(16, 4, 4, 200)

	require.Greater(t, a.DistanceFast(b), 0.0)
	require.Greater(t, a.DistanceFull(b), 0.0)
	require.InDelta(t, 1.0, a.CosineSimilarity(b), 1e-9)
}

func TestDimensionMismatchReturnsSentinel(t *testing.T) {
	t.Parallel()

	a := uniform(16, 4, 4, 10)
	b := uniform(9, 3, 3, 10)

	require.True(t, math.IsInf(a.DistanceFast(b), 1))
	require.True(t, math.IsInf(a.DistancePyramid(b), 1))
	require.True(t, math.IsInf(a.DistanceFull(b), 1))
	require.Equal(t, 0.0, a.CosineSimilarity(b))
	require.Equal(t, uint32(math.MaxUint32), a.HammingDistance(b))
}

func TestSimilarityAndIsSimilar(t *testing.T) {
	t.Parallel()

	a := uniform(16, 4, 4, 100)
	b := uniform(16, 4, 4, 100)
	require.InDelta(t, 1.0, a.Similarity(b), 1e-9)
	require.True(t, a.IsSimilar(b, DefaultSimilarityThreshold))
	require.True(t, a.IsSimilar(a, DefaultSimilarityThreshold))
}

func TestPyramidTilingUniformGrid(t *testing.T) {
	t.Parallel()

	f := uniform(16, 4, 4, 77)
	for _, v := range buildPyramid(&f, 2) {
		require.Equal(t, int16(77), v)
	}
	for _, v := range buildPyramid(&f, 4) {
		require.Equal(t, int16(77), v)
	}
}

func TestCosineSimilarityZeroMagnitude(t *testing.T) {
	t.Parallel()

	a := uniform(4, 2, 2, 0)
	b := uniform(4, 2, 2, 50)
	require.Equal(t, 0.0, a.CosineSimilarity(b))
}
