package lifecycle

import "log/slog"

// Stage tags a transcript entry with the pipeline stage that produced it.
type Stage string

const (
	StagePrecondition Stage = "precondition"
	StageBuild        Stage = "build"
	StageSign         Stage = "sign"
	StageBroadcast    Stage = "broadcast"
	StageConfirm      Stage = "confirm"
)

// Entry is one structured transcript record. The transcript is diagnostic
// only; it never influences control flow.
type Entry struct {
	Stage  Stage
	Detail string
	Err    error
}

func (e Entry) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("stage", string(e.Stage)),
		slog.String("detail", e.Detail),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("err", e.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// transcript collects per-stage entries local to one attempt. On a failure
// path the full transcript is flushed to the logger: Warn for expected
// business failures, Error for unexpected ones.
type transcript struct {
	entries []Entry
}

func (t *transcript) add(stage Stage, detail string) {
	t.entries = append(t.entries, Entry{Stage: stage, Detail: detail})
}

func (t *transcript) fail(stage Stage, detail string, err error) {
	t.entries = append(t.entries, Entry{Stage: stage, Detail: detail, Err: err})
}

func (t *transcript) flush(logger *slog.Logger, msg string, expected bool) {
	records := make([]any, 0, len(t.entries))
	for _, e := range t.entries {
		records = append(records, e)
	}
	if expected {
		logger.Warn(msg, "transcript", records)
		return
	}
	logger.Error(msg, "transcript", records)
}
