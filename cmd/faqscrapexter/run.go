// cmd/faqscrapexter/run.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/FAQScrapexter/internal/browser"
	"github.com/valpere/FAQScrapexter/internal/config"
	"github.com/valpere/FAQScrapexter/internal/dom"
	"github.com/valpere/FAQScrapexter/internal/faq"
	"github.com/valpere/FAQScrapexter/internal/monitoring"
	"github.com/valpere/FAQScrapexter/internal/output"
	"github.com/valpere/FAQScrapexter/internal/utils"
)

// runOptions carries command-line overrides for one run
type runOptions struct {
	htmlFile    string
	maxItems    int
	maxItemsSet bool
	outputFile  string
	format      string
	verbose     bool
}

// apply writes the overrides into cfg and revalidates it
func (o runOptions) apply(cfg *config.JobConfig) error {
	if o.maxItemsSet {
		cfg.MaxItems = o.maxItems
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
	if o.outputFile != "" {
		cfg.Output.File = o.outputFile
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return utils.NewError(utils.ErrCodeInvalidConfig, "invalid command-line overrides").
			WithCause(err).
			WithUserMessage(err.Error()).
			Build()
	}
	return nil
}

type runSummary struct {
	RunID    string
	Records  int
	Target   string
	Duration time.Duration
}

// runJob opens the page, extracts records and writes them to the configured sink
func runJob(ctx context.Context, cfg *config.JobConfig, opts runOptions) (*runSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	runID := uuid.NewString()

	logger := utils.NewLoggerFromConfig(cfg.LogConfig()).
		WithField("job", cfg.Name).
		WithField("run_id", runID)

	metrics := monitoring.NewMetrics(monitoring.MetricsConfig{
		Namespace: cfg.Metrics.Namespace,
		Labels:    map[string]string{"job": cfg.Name},
	})

	var server *monitoring.Server
	if cfg.Metrics.Enabled {
		server = monitoring.NewServer(metrics, runID, cfg.Name, logger)
		addr, err := server.Start(cfg.Metrics.Address)
		if err != nil {
			return nil, err
		}
		logger.Infof("metrics available at http://%s/metrics", addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warnf("metrics server shutdown: %v", err)
			}
		}()
	}

	summary, err := extract(ctx, cfg, opts, runID, logger, metrics, server)
	metrics.ObserveRun(time.Since(start))
	if server != nil {
		if err != nil {
			server.SetStatus(monitoring.RunStatusFailed, err.Error())
		} else {
			server.SetStatus(monitoring.RunStatusDone, fmt.Sprintf("%d records", summary.Records))
		}
	}
	if err != nil {
		logger.Errorf("run failed: %v", err)
		return nil, err
	}

	summary.Duration = time.Since(start)
	logger.WithField("records", summary.Records).Infof("run finished in %s", summary.Duration.Round(time.Millisecond))
	return summary, nil
}

func extract(ctx context.Context, cfg *config.JobConfig, opts runOptions, runID string, logger utils.Logger, metrics *monitoring.Metrics, server *monitoring.Server) (*runSummary, error) {
	runCtx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	doc, closeDoc, err := openDocument(runCtx, cfg, opts.htmlFile, logger)
	if err != nil {
		return nil, err
	}
	defer closeDoc()

	resolver, err := faq.NewResolver(cfg.Strategies.Disabled...)
	if err != nil {
		return nil, err
	}

	pipeline := faq.NewPipeline(faq.PipelineConfig{
		Resolver: resolver,
		Waiter:   dom.NewPollingWaiter(cfg.Activation.PollInterval),
		Logger:   logger,
		Recorder: metrics,
	})

	if server != nil {
		server.SetStatus(monitoring.RunStatusRunning, "")
	}
	records, err := pipeline.Run(runCtx, doc, cfg.PipelineOptions(runID))
	if err != nil {
		return nil, err
	}
	if runCtx.Err() != nil {
		logger.Warnf("run timeout reached, keeping %d partial record(s)", len(records))
	}

	manager, err := output.NewManager(&cfg.Output, runID, logger)
	if err != nil {
		return nil, err
	}
	manager.SetRecorder(metrics)
	if err := manager.Write(records); err != nil {
		return nil, err
	}

	target := cfg.Output.File
	if target == "" || target == output.StdoutFile {
		target = cfg.Output.Format
	}
	return &runSummary{RunID: runID, Records: len(records), Target: target}, nil
}

// openDocument returns a static document for --html or a browser page otherwise
func openDocument(ctx context.Context, cfg *config.JobConfig, htmlFile string, logger utils.Logger) (dom.Document, func(), error) {
	if htmlFile != "" {
		markup, err := os.ReadFile(htmlFile)
		if err != nil {
			return nil, nil, utils.NewError(utils.ErrCodeDocumentFailed, "failed to read HTML file").
				WithCause(err).
				WithContext("file", htmlFile).
				WithUserMessage(fmt.Sprintf("Cannot read HTML file %s", htmlFile)).
				Build()
		}
		logger.Infof("static mode: %s (%d bytes)", htmlFile, len(markup))
		return dom.NewStaticDocument(cfg.URL, string(markup)), func() {}, nil
	}

	client, err := browser.NewChromeClient(cfg.Browser)
	if err != nil {
		return nil, nil, browserError("failed to start browser", cfg.URL, err)
	}
	if err := client.Open(ctx, cfg.URL); err != nil {
		client.Close()
		return nil, nil, browserError("failed to open page", cfg.URL, err)
	}

	closeFn := func() {
		stats := client.GetStats()
		logger.Debugf("browser: %d snapshot(s), %d click(s), %d error(s)", stats.Snapshots, stats.Clicks, stats.Errors)
		if err := client.Close(); err != nil {
			logger.Warnf("browser close: %v", err)
		}
	}
	return client, closeFn, nil
}

func browserError(msg, url string, cause error) error {
	return utils.NewError(utils.ErrCodeBrowserFailed, msg).
		WithCause(cause).
		WithContext("url", url).
		WithUserMessage("Could not load the page in Chrome. Use --html to run against a saved page.").
		Build()
}
