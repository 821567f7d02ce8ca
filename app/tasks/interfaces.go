package tasks

import (
	"context"

	"github.com/lysyi3m/sheet-blog/app/sheet"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the HTTP API to queue site builds.
//
//	scheduler := NewScheduler(func() TaskInterface { return NewBuildSiteTask(pipeline, buildLog) }, interval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueBuild()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueBuild() (TaskInterface, error)
}

// Source yields the raw sheet rows for one build.
type Source interface {
	Fetch(ctx context.Context) ([]sheet.Record, error)
	Endpoint() string
}

var _ Source = (*sheet.Client)(nil)
