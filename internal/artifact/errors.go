package artifact

import (
	"errors"
	"fmt"
)

// TransferError reports a failed download.
type TransferError struct {
	URL        string
	StatusCode int // Zero when no response was received
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: response status was %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// IOError reports a local filesystem failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ExtractError reports a corrupt or unsafe archive.
type ExtractError struct {
	Archive string
	Err     error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// MissingArtifactError reports that no extracted file matched a pattern.
type MissingArtifactError struct {
	Dir     string
	Pattern string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("no %s file extracted into %s", e.Pattern, e.Dir)
}

// IsMissingArtifact reports whether err is or wraps a *MissingArtifactError.
func IsMissingArtifact(err error) bool {
	var me *MissingArtifactError
	return errors.As(err, &me)
}
