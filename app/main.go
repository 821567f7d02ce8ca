package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/sheet-blog/app/api"
	"github.com/lysyi3m/sheet-blog/app/cfg"
	"github.com/lysyi3m/sheet-blog/app/config"
	"github.com/lysyi3m/sheet-blog/app/feed"
	"github.com/lysyi3m/sheet-blog/app/output"
	"github.com/lysyi3m/sheet-blog/app/post"
	"github.com/lysyi3m/sheet-blog/app/render"
	"github.com/lysyi3m/sheet-blog/app/sheet"
	"github.com/lysyi3m/sheet-blog/app/sitemap"
	"github.com/lysyi3m/sheet-blog/app/tasks"
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load()
	if err != nil {
		setupLogging(false)
		var cfgErr *cfg.ConfigurationError
		if errors.As(err, &cfgErr) {
			slog.Error("Invalid configuration", "setting", cfgErr.Setting, "reason", cfgErr.Reason)
		} else {
			slog.Error("Failed to load configuration", "error", err)
		}
		return 1
	}
	if appCfg == nil {
		return 0
	}

	setupLogging(appCfg.Debug)

	slog.Info("Starting Sheet Blog", "version", appCfg.Version, "serve", appCfg.Serve)

	siteCfg, err := config.NewLoader(appCfg.SiteConfig).Load()
	if err != nil {
		slog.Error("Failed to load site configuration", "path", appCfg.SiteConfig, "error", err)
		return 1
	}

	endpoint, err := sheet.EnsureSheetParam(appCfg.SheetAPIURL, appCfg.SheetName)
	if err != nil {
		slog.Error("Invalid sheet endpoint", "url", appCfg.SheetAPIURL, "error", err)
		return 1
	}

	pipeline := newPipeline(appCfg, siteCfg, endpoint)
	buildLog := tasks.NewBuildLog()

	if !appCfg.Serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := tasks.NewBuildSiteTask(pipeline, buildLog).Execute(ctx); err != nil {
			slog.Error("Build failed", "error", err)
			return 1
		}
		return 0
	}

	if err := serve(appCfg, pipeline, buildLog, endpoint); err != nil {
		slog.Error("Server error", "error", err)
		return 1
	}
	return 0
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func newPipeline(appCfg *cfg.Cfg, siteCfg *config.SiteConfig, endpoint string) *tasks.Pipeline {
	httpClient := &http.Client{}

	pipeline := &tasks.Pipeline{
		Source:     sheet.NewClient(endpoint, httpClient, appCfg.UserAgent, appCfg.Timeout, siteCfg.Source.Collections),
		Normalizer: post.NewNormalizer(siteCfg.Source.Columns, siteCfg.Source.PublishedAliases),
		Filterer:   post.NewFilterer(),
		Writer:     output.NewWriter(appCfg.OutDir, siteCfg.Output.PageFile),
		Site: render.Site{
			Base:         appCfg.SiteBase,
			LocalePath:   appCfg.LocalePath,
			DefaultImage: siteCfg.Site.DefaultImageFor(appCfg.SiteBase, appCfg.LocalePath),
		},
		TemplatePath: appCfg.TemplatePath,
		ListingFile:  siteCfg.Output.ListingFile,
		Channel: feed.Channel{
			Title:       siteCfg.Site.Title,
			Description: siteCfg.Site.Description,
			Language:    siteCfg.Site.Language,
			Generator:   "Sheet Blog " + appCfg.Version,
		},
		WorkerCount: appCfg.WorkerCount,
	}

	if siteCfg.Output.FeedEnabled() {
		pipeline.FeedFile = siteCfg.Output.FeedFile
	}

	if appCfg.SitemapRoot != "" {
		pipeline.Sitemap = sitemap.NewBuilder(appCfg.SitemapRoot, appCfg.SitemapBase)
		pipeline.SitemapDir = appCfg.SitemapRoot
	}

	return pipeline
}

func serve(appCfg *cfg.Cfg, pipeline *tasks.Pipeline, buildLog *tasks.BuildLog, endpoint string) error {
	scheduler := tasks.NewScheduler(func() tasks.TaskInterface {
		return tasks.NewBuildSiteTask(pipeline, buildLog)
	}, appCfg.SchedulerInterval)

	slog.Info("Starting background scheduler", "interval", appCfg.SchedulerInterval)
	scheduler.Start()
	defer scheduler.Stop()

	if appCfg.WatchTemplate {
		watcher, err := tasks.NewTemplateWatcher(appCfg.TemplatePath, tasks.DefaultWatchDebounce, func() {
			if _, err := scheduler.EnqueueBuild(); err != nil {
				slog.Warn("Failed to enqueue build after template change", "error", err)
			}
		})
		if err != nil {
			slog.Warn("Template watching disabled", "path", appCfg.TemplatePath, "error", err)
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	apiHandler := api.NewHandler(buildLog, scheduler, endpoint, appCfg.Version)
	server := api.NewServer(apiHandler, api.ServerOptions{
		APIAccessKey: appCfg.APIAccessKey,
		StaticPrefix: appCfg.LocalePath + "/blog",
		StaticDir:    appCfg.OutDir,
	})

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "blog", "/"+appCfg.LocalePath+"/blog/")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serveErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return serveErr
}
