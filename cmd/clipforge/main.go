package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clipforge/clipforge"
	"github.com/clipforge/clipforge/async"
	"github.com/clipforge/clipforge/internal/history"
	"github.com/clipforge/clipforge/internal/pipeline"
	"github.com/clipforge/clipforge/internal/sessionstore"
	"github.com/clipforge/clipforge/internal/settings"
	"github.com/clipforge/clipforge/internal/sync_"
	_ "github.com/clipforge/clipforge/providers"
	"github.com/clipforge/clipforge/publish/instagram"
	"github.com/clipforge/clipforge/thumbnail"
)

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:  "clipforge",
		Usage: "queue videos for preview, download and publish",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-dir",
				Value: defaultConfigDir(),
				Usage: "read settings and state from `DIR`",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "download",
				Usage:     "download videos to disk",
				ArgsUsage: "URL...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "target",
						Usage: "save downloaded videos to `DIR` (default: configured download directory)",
					},
				},
				Action: func(c *cli.Context) error {
					return runDownload(ctx, c)
				},
			},
			{
				Name:      "publish",
				Usage:     "publish videos with generated caption and thumbnail",
				ArgsUsage: "URL...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "tags",
						Value: -1,
						Usage: "number of hashtags to append (default: configured tag count)",
					},
					&cli.BoolFlag{
						Name:  "require-thumbnail",
						Usage: "fail the publish if thumbnail selection fails",
					},
					&cli.BoolFlag{
						Name:  "keep-files",
						Usage: "keep temporary files after publishing",
					},
				},
				Action: func(c *cli.Context) error {
					return runPublish(ctx, c)
				},
			},
			{
				Name:  "history",
				Usage: "list previously published videos",
				Action: func(c *cli.Context) error {
					return runHistory(c)
				},
			},
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		stop()
		err = <-result
		if err != nil {
			logger.Fatal(err.Error())
		}
	}
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "clipforge")
	}
	return "."
}

func loadSettings(c *cli.Context) (*settings.Manager, *settings.Settings, error) {
	manager := settings.NewManager(c.String("config-dir"))
	cfg, err := manager.Load()
	return manager, cfg, err
}

func runDownload(ctx context.Context, c *cli.Context) error {
	urls := c.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given")
	}
	manager, cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	if target := c.String("target"); target != "" && target != cfg.DownloadDir {
		cfg.DownloadDir = target
		if err := manager.Save(cfg); err != nil {
			zap.S().Warnf("failed to save settings: %v", err)
		}
	}

	pipelineConfig := pipeline.DefaultConfig
	pipelineConfig.DownloadDir = cfg.DownloadDir
	p, err := pipeline.New(pipelineConfig, ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	return runBatch(ctx, p, urls, pipeline.OpDownload, func(ids []pipeline.ItemID) {
		p.StartDownload(ids...)
	})
}

func runPublish(ctx context.Context, c *cli.Context) error {
	urls := c.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given")
	}
	_, cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	if cfg.Username == "" || cfg.Password == "" {
		return fmt.Errorf("no credentials configured (set CLIPFORGE_USERNAME and CLIPFORGE_PASSWORD)")
	}

	logger := zap.S()
	configDir := c.String("config-dir")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	sessions, err := sessionstore.New(filepath.Join(configDir, "sessions.db"))
	if err != nil {
		return err
	}
	defer sessions.Close()

	db, err := history.NewDatabase(filepath.Join(configDir, "history.db"))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	pipelineConfig := pipeline.DefaultConfig
	pipelineConfig.DownloadDir = cfg.DownloadDir
	pipelineConfig.Publisher = instagram.New(instagram.Config{Sessions: sessions})
	pipelineConfig.History = db
	pipelineConfig.Credentials = clipforge.Credentials{Username: cfg.Username, Password: cfg.Password}
	pipelineConfig.TagCount = cfg.TagCount
	pipelineConfig.RequireThumbnail = c.Bool("require-thumbnail")
	if c.Bool("keep-files") {
		pipelineConfig.Cleanup = pipeline.CleanupNever
	}
	if sampler, err := thumbnail.NewSampler(); err != nil {
		logger.Warnf("thumbnail selection unavailable: %v", err)
	} else {
		pipelineConfig.Sampler = sampler
	}

	p, err := pipeline.New(pipelineConfig, ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	var opt *pipeline.PublishOptions
	if tags := c.Int("tags"); tags >= 0 {
		opt = &pipeline.PublishOptions{TagCount: tags}
	}
	return runBatch(ctx, p, urls, pipeline.OpPublish, func(ids []pipeline.ItemID) {
		p.StartPublish(opt, ids...)
	})
}

func runHistory(c *cli.Context) error {
	db, err := history.NewDatabase(filepath.Join(c.String("config-dir"), "history.db"))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	publishes, err := db.GetAllPublishes()
	if err != nil {
		return err
	}
	if len(publishes) == 0 {
		fmt.Println("no publish history")
		return nil
	}
	for _, p := range publishes {
		fmt.Printf("%s  %-20s  %s\n    %s\n", p.PublishedAt.Format(time.RFC3339), p.Account, p.Title, p.URL)
	}
	return nil
}

// runBatch queues the URLs, previews them all, then runs the requested operation on each,
// reporting the event stream until every task has finished.
func runBatch(ctx context.Context, p *pipeline.Pipeline, urls []string, op pipeline.Op, start func([]pipeline.ItemID)) error {
	logger := zap.S()

	events, err := p.Subscribe()
	if err != nil {
		return err
	}

	var previewsDone, tasksDone sync_.Event
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		watchEvents(events.Receive(), len(urls), op, &previewsDone, &tasksDone)
	}()

	ids := make([]pipeline.ItemID, 0, len(urls))
	for _, url := range urls {
		item, err := p.Add(url, nil)
		if err != nil {
			return err
		}
		item.SetSelected(true)
		state, err := item.State()
		if err != nil {
			return err
		}
		ids = append(ids, state.ID)
	}

	logger.Infof("fetching metadata for %d item(s)", len(ids))
	p.StartPreview(ids...)
	select {
	case <-previewsDone.Wait():
	case <-ctx.Done():
		logger.Info("Exiting gracefully...")
		p.Close()
		wg.Wait()
		return nil
	}

	selected := p.SelectedItems()
	logger.Infof("starting %s of %d item(s)", op, len(selected))
	start(selected)
	select {
	case <-tasksDone.Wait():
	case <-ctx.Done():
		logger.Info("Exiting gracefully...")
	}

	p.Close()
	wg.Wait()
	return nil
}

// watchEvents reports the stream: progress bars per downloading item, state diffs at debug
// level, task logs at info level. Sets previewsDone after total preview completions and
// tasksDone after total completions of op.
func watchEvents(events <-chan pipeline.Event, total int, op pipeline.Op, previewsDone, tasksDone *sync_.Event) {
	logger := zap.S()
	bars := make(map[pipeline.ItemID]*progressbar.ProgressBar)
	previews := 0
	tasks := 0

	for event := range events {
		logger.Debugf("event: %T: %v", event, event.Item())
		switch e := event.(type) {
		case pipeline.PreviewReady:
			logger.Infof("previewed: %s", e.Title)
		case pipeline.TaskLog:
			logger.Infof("[%s] %s", e.Op, e.Message)
		case pipeline.TaskDone:
			switch e.Op {
			case pipeline.OpPreview:
				previews++
				if previews == total {
					previewsDone.Set()
				}
			case op:
				if e.Err != nil {
					logger.Errorf("%s failed: %v", e.Op, e.Err)
				}
				tasks++
				if tasks == total {
					tasksDone.Set()
				}
			}
		case pipeline.ItemUpdated:
			reportProgress(bars, e)
			changes, err := diff.Diff(e.OldState, e.NewState)
			if err != nil {
				logger.Errorf("failed to diff old and new item state: %v", err)
			} else {
				for _, change := range changes {
					logger.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
				}
			}
		}
	}
}

func reportProgress(bars map[pipeline.ItemID]*progressbar.ProgressBar, e pipeline.ItemUpdated) {
	state := e.NewState
	if !state.Status.IsRunning() || state.Progress == e.OldState.Progress {
		return
	}
	bar, ok := bars[state.ID]
	if !ok {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription(state.Title),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionShowCount(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		)
		bars[state.ID] = bar
	}
	_ = bar.Set(state.Progress)
}
