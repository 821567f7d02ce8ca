package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/sheet-blog/app/feed"
	"github.com/lysyi3m/sheet-blog/app/output"
	"github.com/lysyi3m/sheet-blog/app/post"
	"github.com/lysyi3m/sheet-blog/app/render"
	"github.com/lysyi3m/sheet-blog/app/sitemap"
)

const SitemapFile = "sitemap.xml"

// Pipeline holds the components shared by every build. Feed generation is
// skipped when FeedFile is empty, the sitemap when Sitemap is nil.
type Pipeline struct {
	Source       Source
	Normalizer   *post.Normalizer
	Filterer     *post.Filterer
	Writer       *output.Writer
	Site         render.Site
	TemplatePath string
	ListingFile  string
	FeedFile     string
	Channel      feed.Channel
	Sitemap      *sitemap.Builder
	SitemapDir   string
	WorkerCount  int
}

type BuildSiteTask struct {
	Task
	pipeline *Pipeline
	log      *BuildLog
}

func NewBuildSiteTask(pipeline *Pipeline, log *BuildLog) *BuildSiteTask {
	return &BuildSiteTask{
		Task:     NewTask(TaskTypeBuildSite),
		pipeline: pipeline,
		log:      log,
	}
}

func (t *BuildSiteTask) Execute(ctx context.Context) error {
	if t.StartedAt == nil {
		t.Start()
	}

	result, err := t.build(ctx)
	if t.log != nil {
		if err != nil {
			t.log.RecordFailure(err)
		} else {
			t.log.RecordSuccess(*result)
		}
	}
	return err
}

func (t *BuildSiteTask) build(ctx context.Context) (*BuildResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p := t.pipeline

	tmpl, fromFile, err := render.LoadTemplate(p.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	if fromFile {
		slog.Debug("Using page template", "path", p.TemplatePath)
	} else {
		slog.Debug("Page template not found, using built-in template", "path", p.TemplatePath)
	}

	records, err := p.Source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}

	posts := p.Filterer.Run(p.Normalizer.Run(records))

	collisions := p.Filterer.Collisions(posts)
	for slug, count := range collisions {
		slog.Warn("Duplicate post identity, last row wins", "slug", slug, "count", count)
	}

	renderer := render.NewRenderer(tmpl, p.Site)

	if err := t.writePages(ctx, renderer, posts); err != nil {
		return nil, err
	}

	listing, err := render.Listing(posts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing: %w", err)
	}
	if err := p.Writer.Write(p.ListingFile, listing); err != nil {
		return nil, fmt.Errorf("failed to write listing: %w", err)
	}

	if p.FeedFile != "" {
		channel := p.Channel
		channel.Link = renderer.BlogURL()
		channel.SelfURL = renderer.BlogURL() + p.FeedFile
		rss := feed.NewGenerator(renderer).Run(channel, posts)
		if err := p.Writer.Write(p.FeedFile, []byte(rss)); err != nil {
			return nil, fmt.Errorf("failed to write feed: %w", err)
		}
	}

	if p.Sitemap != nil {
		entries, err := p.Sitemap.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to build sitemap: %w", err)
		}
		path, err := filepath.Abs(filepath.Join(p.SitemapDir, SitemapFile))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve sitemap path: %w", err)
		}
		if err := p.Writer.Write(path, sitemap.Render(entries)); err != nil {
			return nil, fmt.Errorf("failed to write sitemap: %w", err)
		}
		slog.Debug("Sitemap written", "path", path, "urls", len(entries))
	}

	entries := make([]post.ListingEntry, 0, len(posts))
	for _, item := range posts {
		entries = append(entries, item.Listing())
	}

	slog.Info("Generated posts",
		"count", len(posts),
		"records", len(records),
		"collisions", len(collisions),
		"out", p.Writer.Root(),
		"duration", t.GetDuration())

	return &BuildResult{
		TaskID:     t.ID,
		Records:    len(records),
		Generated:  len(posts),
		Collisions: collisions,
		Listing:    entries,
		FinishedAt: time.Now().UTC(),
		Duration:   t.GetDuration(),
	}, nil
}

// writePages renders one page per identity. When identities collide only
// the last post in listing order is written, so the outcome does not depend
// on worker scheduling.
func (t *BuildSiteTask) writePages(ctx context.Context, renderer *render.Renderer, posts []post.Post) error {
	p := t.pipeline

	last := make(map[string]int, len(posts))
	for i, item := range posts {
		last[item.Slug] = i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.WorkerCount, 1))

	for i, item := range posts {
		if last[item.Slug] != i {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			html := renderer.Run(item)
			if err := p.Writer.Write(p.Writer.PagePath(item.Slug), []byte(html)); err != nil {
				return fmt.Errorf("failed to write page %q: %w", item.Slug, err)
			}
			return nil
		})
	}

	return g.Wait()
}
