package api

import (
	"github.com/lysyi3m/sheet-blog/app/tasks"
)

type Handler struct {
	buildLog  *tasks.BuildLog
	scheduler tasks.TaskSchedulerInterface
	source    string
	version   string
}

// ServerOptions configures the routes of NewServer. Static output is mounted
// at StaticPrefix only when StaticDir is set; the /api group only when
// APIAccessKey is set.
type ServerOptions struct {
	APIAccessKey string
	StaticPrefix string
	StaticDir    string
}
