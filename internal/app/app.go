// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paperwheel/arxiv-feed-bot/internal/clock/system"
	"github.com/paperwheel/arxiv-feed-bot/internal/config"
	"github.com/paperwheel/arxiv-feed-bot/internal/feed"
	"github.com/paperwheel/arxiv-feed-bot/internal/fetch"
	"github.com/paperwheel/arxiv-feed-bot/internal/filter"
	"github.com/paperwheel/arxiv-feed-bot/internal/history"
	"github.com/paperwheel/arxiv-feed-bot/internal/id/uuid"
	"github.com/paperwheel/arxiv-feed-bot/internal/ledger"
	"github.com/paperwheel/arxiv-feed-bot/internal/logging"
	"github.com/paperwheel/arxiv-feed-bot/internal/notifier"
	"github.com/paperwheel/arxiv-feed-bot/internal/notion"
	"github.com/paperwheel/arxiv-feed-bot/internal/pipeline"
	"github.com/paperwheel/arxiv-feed-bot/internal/scheduler"
)

// App holds the shared, long-lived services for the application.
type App struct {
	Config config.Config
	Logger *zap.Logger
	Clock  pipeline.Clock

	fetcher pipeline.Fetcher
	history pipeline.HistoryStore
	reader  *feed.Reader
	ids     pipeline.IDGenerator
}

// New creates and initializes an App from the configuration at cfgPath.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	clock := system.New()
	ids := uuid.NewUUIDGenerator()

	return &App{
		Config:  cfg,
		Logger:  logger,
		Clock:   clock,
		fetcher: fetch.NewRetryingFetcher(fetch.NewArxivFetcher(logger), logger),
		history: history.NewFileStore(cfg.Paths.HistoryDir, cfg.History.Enabled, ids, clock, logger),
		reader:  feed.NewReader(),
		ids:     ids,
	}, nil
}

// Close flushes buffered log entries.
func (a *App) Close() {
	_ = a.Logger.Sync()
}

// Run executes one full pipeline invocation: fetch, filter, write the feed,
// record history, and deliver to the sink when publish-on-run is enabled.
func (a *App) Run(ctx context.Context) (pipeline.RunResult, error) {
	overrides, err := config.LoadSearchOverrides(a.Config.Paths.SearchFile)
	if err != nil {
		// Overrides are a convenience; a broken file falls back to config.
		a.Logger.Warn("search overrides ignored", zap.Error(err))
	}

	now := a.Clock.Now()
	params := a.Config.FetchParams(overrides, now)
	runCfg := a.Config.RunConfig(params.MaxDays)

	filterer := filter.New(filter.Config{
		Keywords:   a.Config.Keywords,
		MaxDaysOld: params.MaxDays,
		Categories: a.Config.Categories,
	}, a.Clock, a.Logger)

	writer := feed.NewWriter(feed.WriterConfig{
		OutputDir:   a.Config.Paths.OutputDir,
		Title:       a.Config.RSS.Title,
		Description: a.Config.RSS.Description,
		Keywords:    a.Config.Keywords,
	}, a.Clock, a.Logger)

	var publisher pipeline.SinkPublisher
	if a.Config.Notion.Enabled && a.Config.Notion.PublishOnRun {
		p, err := a.NotionPublisher()
		if err != nil {
			return pipeline.RunResult{}, err
		}
		publisher = p
	}

	runner := pipeline.NewRunner(
		a.fetcher,
		filterer,
		writer,
		a.history,
		publisher,
		a.notifier(),
		a.Clock,
		pipeline.RunnerConfig{
			PublishEnabled: publisher != nil,
			PublishLimit:   a.Config.Notion.PublishLimit,
			NotifyOnError:  a.Config.Email.OnError,
		},
		a.Logger,
	)
	return runner.Run(ctx, params, runCfg)
}

// Schedule runs the pipeline daily at the configured hour until ctx ends.
func (a *App) Schedule(ctx context.Context) error {
	sched := scheduler.New(a.Logger)
	err := sched.AddDailyJob("pipeline", a.Config.Schedule.RunHour, func(jobCtx context.Context) error {
		_, err := a.Run(jobCtx)
		return err
	})
	if err != nil {
		return err
	}
	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
	return nil
}

// NotionClient builds the sink API client. Errors when the sink is not
// configured.
func (a *App) NotionClient() (*notion.Client, error) {
	if !a.Config.Notion.Enabled {
		return nil, fmt.Errorf("notion sink is not enabled")
	}
	return notion.NewClient(a.Config.Notion.Token, a.Config.Notion.DatabaseID, a.Logger), nil
}

// NotionPublisher builds the sink publisher over its per-sink ledger.
func (a *App) NotionPublisher() (*notion.Publisher, error) {
	client, err := a.NotionClient()
	if err != nil {
		return nil, err
	}
	led := ledger.NewFileLedger(a.Config.Paths.LedgerFile, a.Logger)
	return notion.NewPublisher(client, led, a.Config.Keywords, a.Logger), nil
}

// LatestRecords reads the most recent feed document back into records.
func (a *App) LatestRecords() (string, []pipeline.Record, error) {
	path, err := feed.Latest(a.Config.Paths.OutputDir)
	if err != nil {
		return "", nil, err
	}
	records, err := a.reader.Read(path)
	if err != nil {
		return "", nil, err
	}
	return path, records, nil
}

func (a *App) notifier() pipeline.Notifier {
	if !a.Config.Email.OnError {
		return nil
	}
	return notifier.NewSMTPNotifier(notifier.SMTPConfig{
		Host:     a.Config.Email.Host,
		Port:     a.Config.Email.Port,
		Username: a.Config.Email.Username,
		Password: a.Config.Email.Password,
		From:     a.Config.Email.From,
		To:       a.Config.Email.To,
	}, a.Logger)
}
