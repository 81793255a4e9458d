package playback

import (
	"context"
	"fmt"

	"github.com/trezcool/darasa/core"
)

// ProgressSink persists a viewer's watched position. progress.Service
// satisfies it; tests substitute fakes.
type ProgressSink interface {
	SaveProgress(ctx context.Context, studentID, videoID string, watchedSeconds int, completed bool) error
}

type bestEffortSink struct {
	sink ProgressSink
	log  core.Logger
}

// BestEffort wraps a ProgressSink with the fire-and-forget persistence
// policy: failures are logged and swallowed, never surfaced, never retried.
// A failed write's data is superseded by the next periodic tick, so dropping
// it is an accepted degradation; playback must never block or break on a
// failed progress write.
func BestEffort(sink ProgressSink, log core.Logger) ProgressSink {
	return &bestEffortSink{sink: sink, log: log}
}

func (s *bestEffortSink) SaveProgress(ctx context.Context, studentID, videoID string, watchedSeconds int, completed bool) error {
	if err := s.sink.SaveProgress(ctx, studentID, videoID, watchedSeconds, completed); err != nil {
		s.log.Warn(fmt.Sprintf("saving progress (student=%s video=%s): %v", studentID, videoID, err), err)
	}
	return nil
}
