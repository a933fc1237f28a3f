// Command fingerprint is a local CLI around the fingerprint pipeline:
// it fingerprints one or two Annex-B H.264 files or raw test images
// and prints the result or the comparison. Raw images require either a
// registered hardware encoder (none ships with this module — see
// encoder.SetDefault) or --remote pointed at a running inspection
// service, which owns that collaborator instead.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/ugparu/fingerprint/encoder"
	"github.com/ugparu/fingerprint/fingerprint"
	"github.com/ugparu/fingerprint/internal/logging"
	"github.com/ugparu/fingerprint/internal/nal"
)

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
	image.RegisterFormat("webp", "RIFF", webp.Decode, webp.DecodeConfig)
}

func decodeImage(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

var rawImageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".bmp": true, ".webp": true,
}

func main() {
	logging.Init(logrus.InfoLevel)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "fingerprint":
		err = runFingerprint(os.Args[2:])
	case "compare":
		err = runCompare(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "fingerprint:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fingerprint <fingerprint|compare|stats> [flags] <file> [file2]")
}

func runFingerprint(args []string) error {
	fs := flag.NewFlagSet("fingerprint", flag.ExitOnError)
	remote := fs.String("remote", "", "inspection service base URL, e.g. http://localhost:8080")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("fingerprint: expected exactly one file argument")
	}
	path := fs.Arg(0)

	fp, err := loadFingerprint(path, *remote)
	if err != nil {
		return err
	}
	printSummary(path, fp)
	return nil
}

func runCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	remote := fs.String("remote", "", "inspection service base URL, e.g. http://localhost:8080")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("compare: expected exactly two file arguments")
	}

	a, err := loadFingerprint(fs.Arg(0), *remote)
	if err != nil {
		return err
	}
	b, err := loadFingerprint(fs.Arg(1), *remote)
	if err != nil {
		return err
	}

	fmt.Printf("distance_fast:      %.4f\n", a.DistanceFast(b))
	fmt.Printf("distance_pyramid:   %.4f\n", a.DistancePyramid(b))
	fmt.Printf("distance_full:      %.4f\n", a.DistanceFull(b))
	fmt.Printf("cosine_similarity:  %.4f\n", a.CosineSimilarity(b))
	fmt.Printf("hamming_distance:   %d\n", a.HammingDistance(b))
	fmt.Printf("similarity:         %.4f\n", a.Similarity(b))
	fmt.Printf("is_similar:         %v\n", a.IsSimilar(b, fingerprint.DefaultSimilarityThreshold))
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("stats: expected exactly one file argument")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	counts := map[uint8]int{}
	scanner := nal.NewScanner(data)
	for {
		unit, ok := scanner.Next()
		if !ok {
			break
		}
		counts[unit.Type]++
	}

	for _, t := range []uint8{nal.TypeSliceNonIDR, nal.TypeSliceIDR, nal.TypeSPS, nal.TypePPS} {
		fmt.Printf("nal_type %2d: %d\n", t, counts[t])
		delete(counts, t)
	}
	for t, n := range counts {
		fmt.Printf("nal_type %2d: %d (other)\n", t, n)
	}
	return nil
}

// loadFingerprint resolves path to a fingerprint: Annex-B files are
// parsed directly, raw test images go through --remote (if set) or the
// process-wide encoder singleton.
func loadFingerprint(path, remote string) (fingerprint.Fingerprint, error) {
	if rawImageExts[strings.ToLower(filepath.Ext(path))] {
		if remote != "" {
			return fingerprintRemote(remote, path)
		}
		return fingerprintLocalImage(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	return fingerprint.Extract(data)
}

func fingerprintLocalImage(path string) (fingerprint.Fingerprint, error) {
	enc := encoder.Default()
	if enc == nil {
		return fingerprint.Fingerprint{}, fmt.Errorf(
			"%s: no hardware encoder registered and no --remote given; "+
				"call encoder.SetDefault at startup or pass --remote", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	defer f.Close()

	img, _, err := decodeImage(f)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), encoder.DefaultTimeout)
	defer cancel()

	bounds := img.Bounds()
	cfg := encoder.Config{Width: bounds.Dx(), Height: bounds.Dy()}.WithDefaults()
	stream, err := enc.Encode(ctx, img, cfg)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	return fingerprint.Extract(stream)
}

// fingerprintRemote posts the image at path to remote's /v1/fingerprint
// endpoint and reports the summary fields present in the JSON body.
func fingerprintRemote(remote, path string) (fingerprint.Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return fingerprint.Fingerprint{}, err
	}
	if err := mw.Close(); err != nil {
		return fingerprint.Fingerprint{}, err
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(remote, "/")+"/v1/fingerprint", &buf)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fingerprint.Fingerprint{}, fmt.Errorf("remote %s: status %d", remote, resp.StatusCode)
	}

	var summary struct {
		Width, Height, WidthMbs, HeightMbs uint16
		QPAvg                              uint8
		SkipRatio, IntraRatio              float32
		DCMean                             int16
		DCStd, EdgeDensity                 float32
	}
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return fingerprint.Fingerprint{}, err
	}

	return fingerprint.Fingerprint{
		Width: summary.Width, Height: summary.Height,
		WidthMbs: summary.WidthMbs, HeightMbs: summary.HeightMbs,
		QPAvg: summary.QPAvg, SkipRatio: summary.SkipRatio, IntraRatio: summary.IntraRatio,
		DCMean: summary.DCMean, DCStd: summary.DCStd, EdgeDensity: summary.EdgeDensity,
	}, nil
}

func printSummary(path string, fp fingerprint.Fingerprint) {
	fmt.Printf("%s: %dx%d (%dx%d mbs)\n", path, fp.Width, fp.Height, fp.WidthMbs, fp.HeightMbs)
	fmt.Printf("  qp_avg=%d skip_ratio=%.3f intra_ratio=%.3f\n", fp.QPAvg, fp.SkipRatio, fp.IntraRatio)
	fmt.Printf("  dc_mean=%d dc_std=%.3f edge_density=%.3f\n", fp.DCMean, fp.DCStd, fp.EdgeDensity)
}
