package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/clipforge/clipforge"
	"github.com/clipforge/clipforge/internal/history"
	"github.com/clipforge/clipforge/util"
)

func (i *Item) runPreview(source clipforge.Source, state ItemState) {
	info, err := i.recon(source)
	if err != nil {
		i.log().Warnf("preview failed: %v", err)
		i.update(func(s *ItemState) {
			s.Preview = PreviewStatusNone
			s.LastError = err.Error()
		})
		i.taskLog(OpPreview, "metadata fetch failed: %v", err)
		i.finish(OpPreview, err)
		return
	}

	// Best effort: a missing preview image doesn't fail the preview
	thumbnail := i.pipeline.fetchThumbnail(i.ctx, info.ThumbnailURL)

	i.apply(func(it *Item) {
		it.thumbnail = thumbnail
		it.updateState(func(s *ItemState) {
			s.Title = info.Title
			s.ThumbnailURL = info.ThumbnailURL
			s.Preview = PreviewStatusReady
			s.LastError = ""
		})
		it.events.Send(PreviewReady{itemEvent{it}, info.Title, thumbnail})
	})
	i.finish(OpPreview, nil)
}

func (i *Item) runDownload(source clipforge.Source, state ItemState) {
	fail := func(err error) {
		i.update(func(s *ItemState) {
			s.Status = StatusDownloadFailed
			s.LastError = err.Error()
		})
		i.taskLog(OpDownload, "download failed: %v", err)
		i.finish(OpDownload, err)
	}

	title, err := i.ensureTitle(source, state)
	if err != nil {
		fail(err)
		return
	}

	if err := os.MkdirAll(state.DownloadDir, 0755); err != nil {
		fail(err)
		return
	}
	destBase := filepath.Join(state.DownloadDir, util.SanitizeFilename(title))
	path, err := source.Download(i.ctx, destBase, i.progressFunc())
	if err != nil {
		fail(err)
		return
	}

	i.update(func(s *ItemState) {
		s.Status = StatusDownloaded
		s.Progress = 100
		s.FilePath = path
	})
	i.taskLog(OpDownload, "saved to %s", path)
	i.finish(OpDownload, nil)
}

func (i *Item) runPublish(source clipforge.Source, state ItemState, opt PublishOptions) {
	config := i.pipeline.config
	log := i.log()
	var tempFiles []string

	fail := func(err error) {
		i.pipeline.cleanupFiles(tempFiles, false)
		i.update(func(s *ItemState) {
			s.Status = StatusPublishFailed
			s.LastError = err.Error()
		})
		i.taskLog(OpPublish, "publish failed: %v", err)
		i.finish(OpPublish, err)
	}

	title, err := i.ensureTitle(source, state)
	if err != nil {
		fail(err)
		return
	}

	// Publish intermediates live in the item's download directory under names that cannot
	// collide with a concurrent download of the same item
	if err := os.MkdirAll(state.DownloadDir, 0755); err != nil {
		fail(err)
		return
	}

	// Use an already-downloaded file if there is one
	videoPath := state.FilePath
	if !fileExists(videoPath) {
		destBase := filepath.Join(state.DownloadDir, util.TempBaseName(state.URL, string(OpPublish)))
		videoPath, err = source.Download(i.ctx, destBase, i.progressFunc())
		if err != nil {
			fail(err)
			return
		}
		tempFiles = append(tempFiles, videoPath)
	}

	i.update(func(s *ItemState) { s.Status = StatusThumbnailSelecting })
	thumbPath := ""
	if config.Sampler != nil {
		candidate := filepath.Join(state.DownloadDir, util.TempBaseName(state.URL, "thumbnail")+".jpg")
		if err := config.Sampler.SelectFrame(i.ctx, videoPath, candidate); err != nil {
			if config.RequireThumbnail {
				fail(err)
				return
			}
			log.Warnf("thumbnail selection failed, publishing without: %v", err)
			i.taskLog(OpPublish, "thumbnail selection failed: %v", err)
		} else {
			thumbPath = candidate
			tempFiles = append(tempFiles, candidate)
		}
	}

	i.update(func(s *ItemState) { s.Status = StatusCaptioning })
	caption := config.Composer.Compose(title, opt.TagCount)
	i.update(func(s *ItemState) { s.Caption = caption })

	i.update(func(s *ItemState) { s.Status = StatusAuthenticating })
	if err := config.Publisher.Authenticate(i.ctx, config.Credentials); err != nil {
		fail(err)
		return
	}

	i.update(func(s *ItemState) { s.Status = StatusUploading })
	req := clipforge.PublishRequest{
		VideoPath:     videoPath,
		Caption:       caption,
		ThumbnailPath: thumbPath,
	}
	if err := config.Publisher.Publish(i.ctx, config.Credentials, req); err != nil {
		fail(err)
		return
	}

	i.update(func(s *ItemState) {
		s.Status = StatusPublished
		s.Progress = 100
	})
	if config.History != nil {
		record := &history.Publish{
			URL:     state.URL,
			Title:   title,
			Caption: caption,
			Account: config.Credentials.Username,
		}
		if err := config.History.InsertPublish(record); err != nil {
			log.Warnf("failed to record publish history: %v", err)
		}
	}
	i.pipeline.cleanupFiles(tempFiles, true)
	i.taskLog(OpPublish, "published")
	i.finish(OpPublish, nil)
	i.pipeline.Remove(state.ID)
}

// recon fetches metadata within the configured timeout.
func (i *Item) recon(source clipforge.Source) (*clipforge.SourceInfo, error) {
	ctx, cancel := context.WithTimeout(i.ctx, i.pipeline.config.MetadataTimeout)
	defer cancel()
	return source.Recon(ctx)
}

// ensureTitle returns the previewed title, fetching metadata first if no preview has
// happened yet. The fetched title is committed so later tasks get it for free.
func (i *Item) ensureTitle(source clipforge.Source, state ItemState) (string, error) {
	if state.Preview == PreviewStatusReady {
		return state.Title, nil
	}
	info, err := i.recon(source)
	if err != nil {
		return "", err
	}
	i.update(func(s *ItemState) {
		s.Title = info.Title
		s.ThumbnailURL = info.ThumbnailURL
	})
	return info.Title, nil
}

// progressFunc throttles progress commits so a fast download doesn't flood the event stream.
func (i *Item) progressFunc() clipforge.ProgressFunc {
	interval := i.pipeline.config.ProgressUpdateInterval
	var last time.Time
	var lastPercent int
	return func(downloaded, expected int64) {
		if expected <= 0 {
			return
		}
		percent := int(downloaded * 100 / expected)
		if percent > 100 {
			percent = 100
		}
		now := time.Now()
		if percent != 100 && now.Sub(last) < interval {
			return
		}
		if percent == lastPercent {
			return
		}
		last = now
		lastPercent = percent
		i.update(func(s *ItemState) {
			s.Progress = percent
		})
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
