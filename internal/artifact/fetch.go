package artifact

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
)

const partSuffix = ".part"

// FetchResult describes the outcome of Fetch.
type FetchResult struct {
	Completed        bool
	BytesTransferred int64
	AlreadyExisted   bool
}

// Pipeline fetches and unpacks artifacts.
type Pipeline struct {
	client   *http.Client
	progress Progress
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHTTPClient sets the client used by Fetch.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) {
		p.client = c
	}
}

// WithProgress sets the progress sink for Fetch and Extract.
func WithProgress(progress Progress) Option {
	return func(p *Pipeline) {
		p.progress = progress
	}
}

// NewPipeline creates a pipeline using http.DefaultClient and no progress.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		client:   http.DefaultClient,
		progress: noProgress{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch streams url to dest. When dest exists and overwrite is false no
// request is made. The body is written to dest+".part" and renamed over dest
// once complete, so a failed transfer leaves an existing dest in place.
func (p *Pipeline) Fetch(ctx context.Context, url, dest string, overwrite bool) (FetchResult, error) {
	var result FetchResult
	if _, err := os.Stat(dest); err == nil {
		result.AlreadyExisted = true
		if !overwrite {
			return result, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result, &TransferError{URL: url, Err: err}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return result, &TransferError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &TransferError{URL: url, StatusCode: resp.StatusCode}
	}

	part := dest + partSuffix
	// #nosec G304
	f, err := os.Create(part)
	if err != nil {
		return result, &IOError{Op: "create", Path: part, Err: err}
	}

	if resp.ContentLength > 0 {
		p.progress.SetProgressTotal(resp.ContentLength)
	}
	src := &progressReader{ctx: ctx, r: resp.Body, progress: p.progress}
	dst := &writeTracker{w: f}

	_, copyErr := io.Copy(dst, src)
	closeErr := f.Close()
	result.BytesTransferred = src.n

	switch {
	case dst.err != nil:
		err = &IOError{Op: "write", Path: part, Err: dst.err}
	case copyErr != nil:
		err = &TransferError{URL: url, Err: copyErr}
	case closeErr != nil:
		err = &IOError{Op: "close", Path: part, Err: closeErr}
	default:
		if renameErr := os.Rename(part, dest); renameErr != nil {
			err = &IOError{Op: "rename", Path: dest, Err: renameErr}
		}
	}
	if err != nil {
		if rmErr := os.Remove(part); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, &IOError{Op: "remove", Path: part, Err: rmErr})
		}
		return result, err
	}

	result.Completed = true
	return result, nil
}
