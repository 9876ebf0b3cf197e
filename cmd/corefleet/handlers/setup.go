package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/imamik/corefleet/internal/library"
	"github.com/imamik/corefleet/internal/platform/vsphere"
)

// newLibraryManager creates the content library manager of a run.
var newLibraryManager = func(s *session, opts *Options) *library.Manager {
	return library.NewManager(s.platform, s.tracker, library.WithURLTemplate(opts.OVAURL))
}

// CoreOSSetup ensures the content library exists on datastore and holds the
// template of the selected release channel.
//
// A template that cannot be fetched or uploaded is reported as a failed step.
// The command still succeeds unless opts.Strict is set.
func CoreOSSetup(ctx context.Context, opts *Options, datastore, libraryName string) error {
	if !library.IsKnownChannel(opts.Stream) {
		return fmt.Errorf("%w: %s", library.ErrUnknownChannel, opts.Stream)
	}

	return run(ctx, opts, "Setup Core OS Library Item", func(ctx context.Context, s *session) error {
		ds, err := s.platform.Lookup(ctx, datastore, vsphere.KindDatastore, false)
		if err != nil {
			return err
		}

		m := newLibraryManager(s, opts)
		if _, err := m.EnsureLibrary(ctx, ds, libraryName); err != nil {
			return err
		}

		fetchCtx := ctx
		if s.timeouts.Download > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(ctx, s.timeouts.Download)
			defer cancel()
		}
		result, err := m.EnsureChannelItem(fetchCtx, opts.Stream)
		if err != nil {
			return err
		}

		log.Printf("CoreOS %s template: %s", result.Channel, result.Status)
		if result.Status == library.StatusUnavailable && opts.Strict {
			return &reportedError{err: fmt.Errorf("failed to set up %s template: %w", result.Channel, result.Err)}
		}
		return nil
	})
}
