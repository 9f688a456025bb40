// Package youtube provides a native YouTube media provider, avoiding the yt-dlp subprocess
// for the URLs it recognises.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/clipforge/clipforge"
)

type source struct {
	videoID string
}

func (s *source) URL() string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", s.videoID)
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Recon(ctx context.Context) (*clipforge.SourceInfo, error) {
	client := youtube.Client{}
	video, err := client.GetVideoContext(ctx, s.URL())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clipforge.ErrExtraction, err)
	}
	return &clipforge.SourceInfo{
		ID:           video.ID,
		Title:        video.Title,
		ThumbnailURL: bestThumbnailURL(video),
	}, nil
}

func (s *source) Download(ctx context.Context, destBase string, progress clipforge.ProgressFunc) (string, error) {
	client := youtube.Client{}
	video, err := client.GetVideoContext(ctx, s.URL())
	if err != nil {
		return "", fmt.Errorf("%w: %v", clipforge.ErrDownload, err)
	}
	// Muxed formats only, so the result is a single playable file without a merge step
	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", fmt.Errorf("%w: no audio+video format available", clipforge.ErrDownload)
	}
	format := &formats[0]

	stream, size, err := client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", clipforge.ErrDownload, err)
	}
	defer stream.Close()

	path := destBase + ".mp4"
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", clipforge.ErrDownload, err)
	}
	defer f.Close()

	counter := &progressWriter{expected: size, progress: progress}
	if _, err := io.Copy(io.MultiWriter(f, counter), stream); err != nil {
		return "", fmt.Errorf("%w: %v", clipforge.ErrDownload, err)
	}
	return path, nil
}

// progressWriter discards the data but reports the running byte count. Keep it last in the
// MultiWriter so failed writes aren't counted.
type progressWriter struct {
	downloaded int64
	expected   int64
	progress   clipforge.ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.downloaded += int64(len(p))
	if w.progress != nil {
		w.progress(w.downloaded, w.expected)
	}
	return len(p), nil
}

func bestThumbnailURL(video *youtube.Video) string {
	best := ""
	var bestWidth uint
	for _, t := range video.Thumbnails {
		if t.URL != "" && t.Width >= bestWidth {
			best = t.URL
			bestWidth = t.Width
		}
	}
	return best
}

func Match(s string) (clipforge.Source, error) {
	parsedURL, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	videoID, err := extractVideoID(parsedURL)
	if err != nil {
		return nil, err
	}
	return &source{videoID: videoID}, nil
}

func New() clipforge.Provider {
	return clipforge.Provider{Name: "youtube", Match: Match}
}

// Extract video ID from a YouTube URL.
//
// Allowed URL formats:
//
//	http(s?)://(www|m).youtube.com/(watch|details)?v={VIDEO_ID}
//	http(s?)://(www|m).youtube.com/v/{VIDEO_ID}
//	http(s?)://youtu.be/{VIDEO_ID}
func extractVideoID(url *url.URL) (string, error) {
	var id string
	switch url.Hostname() {
	case "www.youtube.com", "m.youtube.com":
		if strings.HasPrefix(url.Path, "/v/") {
			id = strings.SplitN(url.Path, "/", 3)[2]
		} else if url.Path == "/watch" || url.Path == "/details" {
			if url.Query().Has("v") {
				id = url.Query().Get("v")
			} else {
				return "", fmt.Errorf("missing ?v= query parameter")
			}
		}
	case "youtu.be":
		id = strings.Trim(url.Path, "/")
	default:
		return "", fmt.Errorf("unrecognised hostname")
	}
	if id == "" {
		return "", fmt.Errorf("could not extract video ID")
	}
	return id, nil
}

func init() {
	clipforge.DefaultProviderRegistry.MustAdd(New())
}
