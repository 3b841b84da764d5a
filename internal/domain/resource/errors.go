package resource

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks network failures, non-2xx responses and corrupt transfers.
	ErrTransport = errors.New("transport error")
	// ErrFilesystem marks local I/O failures.
	ErrFilesystem = errors.New("filesystem error")
	// ErrParse marks malformed remote documents.
	ErrParse = errors.New("parse error")
	// ErrUnsupportedPlatform is returned when no native classifier exists for the platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Stage names the step of the pipeline an entry failed in.
type Stage string

const (
	StageValidate Stage = "validate"
	StageFetch    Stage = "fetch"
	StageExtract  Stage = "extract"
)

// EntryError identifies the first failing entry of a sync.
type EntryError struct {
	Descriptor Descriptor
	Stage      Stage
	Err        error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Stage, e.Descriptor.Kind, e.Descriptor.Path, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
