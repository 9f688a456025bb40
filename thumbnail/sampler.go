// Package thumbnail picks a representative frame from a video file for use as a cover image.
//
// Rather than requiring a frame-accurate decoder, it probes the file with ffprobe, extracts a
// handful of evenly spaced frames with ffmpeg, and keeps the brightest one by grayscale mean,
// which is a cheap proxy for "not a near-black or corrupted frame".
package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/clipforge/clipforge"
)

// DefaultSamples is the number of evenly spaced timestamps probed per video.
const DefaultSamples = 5

// fallbackOffset is where the single-frame fallback extraction happens.
const fallbackOffset = "00:00:01.000"

type Sampler struct {
	ffmpegPath  string
	ffprobePath string
	samples     int
}

// NewSampler locates ffmpeg and ffprobe in PATH.
func NewSampler() (*Sampler, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &Sampler{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		samples:     DefaultSamples,
	}, nil
}

// SelectFrame writes the best sampled frame of the video to thumbPath. If no sampled frame can
// be decoded (unknown duration included), it falls back to a single fixed-offset extraction.
// The error wraps clipforge.ErrThumbnail only if both paths produce nothing.
func (s *Sampler) SelectFrame(ctx context.Context, videoPath string, thumbPath string) error {
	log := zap.S().Named("thumbnail")

	best, ok := s.sampleBest(ctx, videoPath, log)
	if ok {
		if err := os.WriteFile(thumbPath, best, 0644); err != nil {
			return fmt.Errorf("%w: writing selected frame: %v", clipforge.ErrThumbnail, err)
		}
		return nil
	}

	log.Debugf("sampling produced no frame for %s, using fixed-offset fallback", videoPath)
	if err := s.extractAt(ctx, videoPath, fallbackOffset, thumbPath); err != nil {
		return fmt.Errorf("%w: %v", clipforge.ErrThumbnail, err)
	}
	if stat, err := os.Stat(thumbPath); err != nil || stat.Size() == 0 {
		return fmt.Errorf("%w: fallback extraction produced no image", clipforge.ErrThumbnail)
	}
	return nil
}

// sampleBest extracts the evenly spaced candidate frames and returns the encoded bytes of the
// one with the strictly highest grayscale mean, or ok=false if nothing decoded.
func (s *Sampler) sampleBest(ctx context.Context, videoPath string, log *zap.SugaredLogger) ([]byte, bool) {
	duration, err := s.probeDuration(ctx, videoPath)
	if err != nil || duration <= 0 {
		return nil, false
	}

	workDir, err := os.MkdirTemp("", "clipforge-frames-*")
	if err != nil {
		return nil, false
	}
	defer os.RemoveAll(workDir)

	bestScore := -1.0
	var bestPath string
	for i, ts := range SamplePoints(duration, s.samples) {
		framePath := filepath.Join(workDir, fmt.Sprintf("frame_%03d.jpg", i))
		if err := s.extractAt(ctx, videoPath, formatSeconds(ts), framePath); err != nil {
			// Skip timestamps that fail to decode
			continue
		}
		img, err := decodeImage(framePath)
		if err != nil {
			continue
		}
		if score := GrayMean(img); score > bestScore {
			bestScore = score
			bestPath = framePath
		}
	}
	if bestPath == "" {
		return nil, false
	}
	log.Debugf("selected frame %s (brightness %.1f)", filepath.Base(bestPath), bestScore)
	data, err := os.ReadFile(bestPath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// probeDuration determines duration as frame count over frame rate, via ffprobe.
func (s *Sampler) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return durationFromProbe(output)
}

func (s *Sampler) extractAt(ctx context.Context, videoPath string, offset string, outPath string) error {
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-y",
		"-ss", offset,
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg frame extraction: %w", err)
	}
	return nil
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

// durationFromProbe computes frame count / frame rate from ffprobe JSON output, returning an
// error when either is missing or zero.
func durationFromProbe(data []byte) (float64, error) {
	var parsed probeOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	for _, stream := range parsed.Streams {
		if stream.CodecType != "video" {
			continue
		}
		fps := parseRate(stream.AvgFrameRate)
		frames, _ := strconv.ParseFloat(stream.NbFrames, 64)
		if fps > 0 && frames > 0 {
			return frames / fps, nil
		}
	}
	return 0, fmt.Errorf("no usable frame rate / frame count in probe output")
}

func parseRate(rate string) float64 {
	parts := strings.SplitN(rate, "/", 2)
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// SamplePoints returns n timestamps evenly spaced inside the duration, excluding the very
// start and end: the duration is divided into n+1 equal segments and the boundaries 1..n are
// sampled.
func SamplePoints(duration float64, n int) []float64 {
	points := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		points = append(points, float64(i)*duration/float64(n+1))
	}
	return points
}

// GrayMean scores a frame by its mean grayscale brightness (0..255).
func GrayMean(img image.Image) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}
	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			total += float64(g.Y)
		}
	}
	return total / float64(pixels)
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return jpeg.Decode(f)
}

func formatSeconds(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 3, 64)
}
