package pipeline

import "errors"

const (
	stageFetch    = "fetch"
	stageExtract  = "extract"
	stageCatalog  = "catalog"
	stageScore    = "score"
	stageStore    = "store"
	stageComplete = "complete"
	stageUnknown  = "unknown"
)

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func stageErr(stage string, err error) error {
	return &stageError{stage: stage, err: err}
}

func stageOf(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return stageUnknown
}
