package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lysyi3m/sheet-blog/app/feed"
	"github.com/lysyi3m/sheet-blog/app/output"
	"github.com/lysyi3m/sheet-blog/app/post"
	"github.com/lysyi3m/sheet-blog/app/render"
	"github.com/lysyi3m/sheet-blog/app/sheet"
	"github.com/lysyi3m/sheet-blog/app/sitemap"
)

const samplePosts = `{"posts":[
	{"slug":"Nova Objava!","title":"Nova Objava","status":"Published","date":"2024-01-05","tags":"vijesti, studio"},
	{"slug":"stara","title":"Stara","status":"published","date":"2023-12-01","content_html":"<p>Stara</p>"},
	{"slug":"twin","title":"Twin","status":"draft","date":"2024-02-01"},
	{"slug":"twin","title":"Twin","status":"published","date":"2024-02-01"},
	{"slug":"","title":"No identity","status":"published"}
]}`

func newTestPipeline(t *testing.T, handler http.HandlerFunc) (*Pipeline, string) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	out := t.TempDir()
	client := sheet.NewClient(server.URL, server.Client(), "Sheet Blog/test", time.Second, nil)

	return &Pipeline{
		Source:       client,
		Normalizer:   post.NewNormalizer(post.DefaultColumns, post.DefaultPublishedAliases),
		Filterer:     post.NewFilterer(),
		Writer:       output.NewWriter(out, ""),
		Site:         render.Site{Base: "https://example.me", LocalePath: "sr-me"},
		TemplatePath: filepath.Join(out, "_templates", "post.template.html"),
		ListingFile:  "posts.json",
		FeedFile:     "feed.xml",
		Channel:      feed.Channel{Title: "Blog", Language: "sr-ME"},
		WorkerCount:  2,
	}, out
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func readListing(t *testing.T, path string) []post.ListingEntry {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected listing file, got error: %v", err)
	}
	var entries []post.ListingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("Expected valid listing JSON, got error: %v", err)
	}
	return entries
}

func TestBuildSiteTask_Execute(t *testing.T) {
	pipeline, out := newTestPipeline(t, jsonHandler(samplePosts))
	log := NewBuildLog()

	if err := NewBuildSiteTask(pipeline, log).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entries := readListing(t, filepath.Join(out, "posts.json"))
	var slugs []string
	for _, entry := range entries {
		slugs = append(slugs, entry.Slug)
	}
	if diff := cmp.Diff([]string{"twin", "nova-objava", "stara"}, slugs); diff != "" {
		t.Errorf("Listing order mismatch (-want +got):\n%s", diff)
	}
	if entries[0].Status != "published" {
		t.Errorf("Expected twin entry to be the published one, got status '%s'", entries[0].Status)
	}
	if diff := cmp.Diff([]string{"vijesti", "studio"}, entries[1].Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}

	page, err := os.ReadFile(filepath.Join(out, "nova-objava", "index.html"))
	if err != nil {
		t.Fatalf("Expected page for nova-objava, got error: %v", err)
	}
	if !strings.Contains(string(page), `href="https://example.me/sr-me/blog/nova-objava/"`) {
		t.Errorf("Expected canonical URL in page, got:\n%s", page)
	}
	if !strings.Contains(string(page), "<title>Nova Objava</title>") {
		t.Errorf("Expected title in page, got:\n%s", page)
	}

	for _, slug := range []string{"stara", "twin"} {
		if _, err := os.Stat(filepath.Join(out, slug, "index.html")); err != nil {
			t.Errorf("Expected page for %s, got error: %v", slug, err)
		}
	}

	rss, err := os.ReadFile(filepath.Join(out, "feed.xml"))
	if err != nil {
		t.Fatalf("Expected feed file, got error: %v", err)
	}
	if !strings.Contains(string(rss), "<link>https://example.me/sr-me/blog/</link>") {
		t.Errorf("Expected channel link in feed, got:\n%s", rss)
	}
	if !strings.Contains(string(rss), `href="https://example.me/sr-me/blog/feed.xml"`) {
		t.Errorf("Expected self link in feed, got:\n%s", rss)
	}

	status := log.Status()
	if status.Last == nil {
		t.Fatal("Expected build result to be recorded")
	}
	if status.Last.Records != 5 {
		t.Errorf("Expected 5 records, got %d", status.Last.Records)
	}
	if status.Last.Generated != 3 {
		t.Errorf("Expected 3 generated posts, got %d", status.Last.Generated)
	}
	if len(status.Last.Listing) != 3 {
		t.Errorf("Expected 3 listing entries in result, got %d", len(status.Last.Listing))
	}
}

func TestBuildSiteTask_Idempotent(t *testing.T) {
	pipeline, out := newTestPipeline(t, jsonHandler(samplePosts))
	files := []string{"posts.json", "feed.xml", "nova-objava/index.html", "stara/index.html", "twin/index.html"}

	if err := NewBuildSiteTask(pipeline, nil).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error on first run, got: %v", err)
	}
	first := make(map[string][]byte)
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("Expected %s after first run, got error: %v", name, err)
		}
		first[name] = data
	}

	if err := NewBuildSiteTask(pipeline, nil).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error on second run, got: %v", err)
	}
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("Expected %s after second run, got error: %v", name, err)
		}
		if string(data) != string(first[name]) {
			t.Errorf("Expected %s to be byte-identical across runs", name)
		}
	}
}

func TestBuildSiteTask_EmptySource(t *testing.T) {
	pipeline, out := newTestPipeline(t, jsonHandler(`{"posts":[]}`))

	if err := NewBuildSiteTask(pipeline, nil).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(out, "posts.json"))
	if err != nil {
		t.Fatalf("Expected listing file, got error: %v", err)
	}
	if string(data) != "[]\n" {
		t.Errorf("Expected empty listing '[]', got %q", data)
	}
}

func TestBuildSiteTask_DelimitedSource(t *testing.T) {
	pipeline, out := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("a-post\tpublished\tA Post\n"))
	})
	pipeline.Normalizer = post.NewNormalizer([]string{"slug", "status", "title"}, post.DefaultPublishedAliases)

	if err := NewBuildSiteTask(pipeline, nil).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entries := readListing(t, filepath.Join(out, "posts.json"))
	if len(entries) != 1 {
		t.Fatalf("Expected 1 listing entry, got %d", len(entries))
	}
	if entries[0].Slug != "a-post" || entries[0].Title != "A Post" {
		t.Errorf("Expected a-post/A Post, got %s/%s", entries[0].Slug, entries[0].Title)
	}
}

func TestBuildSiteTask_FetchFailureWritesNothing(t *testing.T) {
	pipeline, out := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	log := NewBuildLog()

	err := NewBuildSiteTask(pipeline, log).Execute(context.Background())
	if err == nil {
		t.Fatal("Expected fetch error, got nil")
	}
	var fetchErr *sheet.FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("Expected FetchError, got %T: %v", err, err)
	}

	entries, readErr := os.ReadDir(out)
	if readErr != nil {
		t.Fatalf("Expected output dir to exist, got error: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no files written, got %d entries", len(entries))
	}

	status := log.Status()
	if status.LastError == nil {
		t.Error("Expected failure to be recorded")
	}
	if status.Last != nil {
		t.Error("Expected no successful build to be recorded")
	}
}

func TestBuildSiteTask_FeedDisabled(t *testing.T) {
	pipeline, out := newTestPipeline(t, jsonHandler(samplePosts))
	pipeline.FeedFile = ""

	if err := NewBuildSiteTask(pipeline, nil).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "feed.xml")); !os.IsNotExist(err) {
		t.Errorf("Expected no feed file, got: %v", err)
	}
}

func TestBuildSiteTask_CustomTemplate(t *testing.T) {
	pipeline, out := newTestPipeline(t, jsonHandler(samplePosts))
	custom := "<h1>{{title}}</h1><a href=\"{{canonical}}\">{{unknown}}</a>"
	if err := os.MkdirAll(filepath.Dir(pipeline.TemplatePath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pipeline.TemplatePath, []byte(custom), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewBuildSiteTask(pipeline, nil).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	page, err := os.ReadFile(filepath.Join(out, "stara", "index.html"))
	if err != nil {
		t.Fatalf("Expected page, got error: %v", err)
	}
	expected := `<h1>Stara</h1><a href="https://example.me/sr-me/blog/stara/">{{unknown}}</a>`
	if string(page) != expected {
		t.Errorf("Expected '%s', got '%s'", expected, page)
	}
}

func TestBuildSiteTask_Sitemap(t *testing.T) {
	pipeline, _ := newTestPipeline(t, jsonHandler(samplePosts))
	siteRoot := t.TempDir()
	pipeline.Writer = output.NewWriter(filepath.Join(siteRoot, "sr-me", "blog"), "")
	pipeline.Sitemap = sitemap.NewBuilder(siteRoot, "https://example.me")
	pipeline.SitemapDir = siteRoot

	if err := NewBuildSiteTask(pipeline, nil).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(siteRoot, SitemapFile))
	if err != nil {
		t.Fatalf("Expected sitemap file, got error: %v", err)
	}
	if !strings.Contains(string(data), "<loc>https://example.me/sr-me/blog/nova-objava/</loc>") {
		t.Errorf("Expected post URL in sitemap, got:\n%s", data)
	}
}

func TestBuildSiteTask_Cancelled(t *testing.T) {
	var calls atomic.Int32
	pipeline, _ := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		jsonHandler(samplePosts)(w, r)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewBuildSiteTask(pipeline, nil).Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("Expected no fetch, got %d requests", calls.Load())
	}
}

func TestBuildSiteTask_IdentityCollision(t *testing.T) {
	pipeline, out := newTestPipeline(t, jsonHandler(`{"posts":[
		{"slug":"dup","title":"First","status":"published","date":"2024-03-01"},
		{"slug":"DUP","title":"Second","status":"published","date":"2024-03-01"},
		{"slug":"other","title":"Other","status":"published","date":"2024-01-01"}
	]}`))
	pipeline.WorkerCount = 4
	log := NewBuildLog()

	if err := NewBuildSiteTask(pipeline, log).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entries := readListing(t, filepath.Join(out, "posts.json"))
	var titles []string
	for _, entry := range entries {
		titles = append(titles, entry.Title)
	}
	if diff := cmp.Diff([]string{"First", "Second", "Other"}, titles); diff != "" {
		t.Errorf("Listing mismatch (-want +got):\n%s", diff)
	}

	page, err := os.ReadFile(filepath.Join(out, "dup", "index.html"))
	if err != nil {
		t.Fatalf("Expected page for dup, got error: %v", err)
	}
	if !strings.Contains(string(page), "<title>Second</title>") {
		t.Errorf("Expected later post to own the page, got:\n%s", page)
	}
	if strings.Contains(string(page), "First") {
		t.Errorf("Expected earlier post to be overwritten, got:\n%s", page)
	}

	status := log.Status()
	if status.Last == nil {
		t.Fatal("Expected build result to be recorded")
	}
	if diff := cmp.Diff(map[string]int{"dup": 2}, status.Last.Collisions); diff != "" {
		t.Errorf("Collisions mismatch (-want +got):\n%s", diff)
	}
}
