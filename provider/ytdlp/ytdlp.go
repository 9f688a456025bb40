// Package ytdlp provides a catch-all media provider backed by the yt-dlp executable. It
// matches any http(s) URL, so it should be registered at the lowest priority, behind any
// native providers.
package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/clipforge/clipforge"
	"github.com/clipforge/clipforge/generic"
)

const DefaultBinary = "yt-dlp"

// Flags every invocation gets: exactly one video per URL, and as few geographic/certificate
// refusals as possible.
var commonArgs = []string{
	"--no-playlist",
	"--geo-bypass",
	"--no-check-certificates",
	"--user-agent", "Mozilla/5.0",
	"--quiet",
	"--no-warnings",
}

type Config struct {
	Binary    string
	Protocols generic.Set[string]
}

func NewConfig() Config {
	return Config{
		Binary:    DefaultBinary,
		Protocols: generic.NewSet("http", "https"),
	}
}

func (c Config) Match(s string) (clipforge.Source, error) {
	parsedURL, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !c.Protocols.Contains(parsedURL.Scheme) {
		return nil, fmt.Errorf("unknown URL scheme %v", parsedURL.Scheme)
	}
	return &source{url: s, binary: c.Binary}, nil
}

func (c Config) Provider() clipforge.Provider {
	return clipforge.Provider{
		Name:  "ytdlp",
		Match: c.Match,
	}
}

type source struct {
	url    string
	binary string
}

func (s *source) URL() string {
	return s.url
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Recon(ctx context.Context) (*clipforge.SourceInfo, error) {
	args := append([]string{"--dump-json", "--skip-download"}, commonArgs...)
	args = append(args, s.url)
	output, err := exec.CommandContext(ctx, s.binary, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clipforge.ErrExtraction, commandError(err))
	}
	info, err := ParseMetadata(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clipforge.ErrExtraction, err)
	}
	return info, nil
}

func (s *source) Download(ctx context.Context, destBase string, progress clipforge.ProgressFunc) (string, error) {
	args := append([]string{
		"-f", "bestvideo*+bestaudio/best",
		"--merge-output-format", "mp4",
		"-o", destBase + ".%(ext)s",
	}, commonArgs...)
	args = append(args, s.url)
	if err := exec.CommandContext(ctx, s.binary, args...).Run(); err != nil {
		return "", fmt.Errorf("%w: %v", clipforge.ErrDownload, commandError(err))
	}
	// The merge format pins the container, so the landing path is known
	path := destBase + ".mp4"
	stat, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: download finished but %s is missing", clipforge.ErrDownload, path)
	}
	if progress != nil {
		progress(stat.Size(), stat.Size())
	}
	return path, nil
}

// metadata is the subset of yt-dlp's --dump-json output the pipeline needs.
type metadata struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// ParseMetadata decodes one yt-dlp metadata JSON object. yt-dlp occasionally emits more than
// one line on stdout; the last decodable object with an ID wins.
func ParseMetadata(data []byte) (*clipforge.SourceInfo, error) {
	trimmed := strings.TrimSpace(string(data))
	var info metadata
	if err := json.Unmarshal([]byte(trimmed), &info); err != nil {
		lines := strings.Split(trimmed, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			line := strings.TrimSpace(lines[i])
			if line == "" {
				continue
			}
			var candidate metadata
			if json.Unmarshal([]byte(line), &candidate) == nil && candidate.ID != "" {
				info = candidate
				err = nil
				break
			}
		}
		if err != nil {
			return nil, fmt.Errorf("parse metadata JSON: %w", err)
		}
	}
	if info.ID == "" && info.Title == "" {
		return nil, fmt.Errorf("metadata JSON contained no video")
	}
	return &clipforge.SourceInfo{
		ID:           info.ID,
		Title:        info.Title,
		ThumbnailURL: info.Thumbnail,
	}, nil
}

// commandError surfaces yt-dlp's stderr when available, as the exit status alone is useless in
// a log line.
func commandError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%v: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return err
}

func init() {
	clipforge.DefaultProviderRegistry.MustAdd(
		NewConfig().Provider().WithPriority(clipforge.PriorityLowest),
	)
}
