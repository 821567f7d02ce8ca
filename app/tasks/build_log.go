package tasks

import (
	"sync"
	"time"

	"github.com/lysyi3m/sheet-blog/app/post"
)

type BuildResult struct {
	TaskID     string
	Records    int
	Generated  int
	Collisions map[string]int
	Listing    []post.ListingEntry
	FinishedAt time.Time
	Duration   time.Duration
}

// BuildStatus is a snapshot of the build history. Last is the latest
// successful build; LastError is set when a later build failed.
type BuildStatus struct {
	Last      *BuildResult
	LastError error
	FailedAt  time.Time
}

type BuildLog struct {
	mu     sync.RWMutex
	status BuildStatus
}

func NewBuildLog() *BuildLog {
	return &BuildLog{}
}

func (l *BuildLog) RecordSuccess(result BuildResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status = BuildStatus{Last: &result}
}

func (l *BuildLog) RecordFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.LastError = err
	l.status.FailedAt = time.Now().UTC()
}

func (l *BuildLog) Status() BuildStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}
