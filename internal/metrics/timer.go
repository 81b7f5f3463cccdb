package metrics

import (
	"time"

	"github.com/LavishGent/redisemu/internal/types"
)

// CommandTimer measures one command from start to Stop.
type CommandTimer struct {
	recorder types.MetricsRecorder
	command  string
	start    time.Time
}

// StartCommand starts timing command. A nil recorder makes Stop a no-op.
func StartCommand(recorder types.MetricsRecorder, command string) CommandTimer {
	return CommandTimer{recorder: recorder, command: command, start: time.Now()}
}

// Stop records the elapsed time and returns it.
func (t CommandTimer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if t.recorder != nil {
		t.recorder.RecordCommand(t.command, elapsed)
	}
	return elapsed
}
