package vsphere

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmware/govmomi/vapi/library"
	"github.com/vmware/govmomi/vim25/soap"

	"github.com/imamik/corefleet/internal/util/ptr"
)

const (
	libraryTypeLocal = "LOCAL"
	itemTypeOVF      = "ovf"
)

// FindLibrary returns the ID of the first content library named name.
func (s *Session) FindLibrary(ctx context.Context, name string) (string, bool, error) {
	ids, err := s.libraries.FindLibrary(ctx, library.Find{Name: name})
	if err != nil {
		return "", false, fmt.Errorf("failed to find library %s: %w", name, err)
	}
	if len(ids) == 0 {
		return "", false, nil
	}
	return ids[0], true, nil
}

// CreateLibrary creates a local content library backed by datastore.
func (s *Session) CreateLibrary(ctx context.Context, name, description string, datastore Ref) (string, error) {
	id, err := s.libraries.CreateLibrary(ctx, library.Library{
		Name:        name,
		Description: ptr.String(description),
		Type:        libraryTypeLocal,
		Storage: []library.StorageBacking{{
			DatastoreID: datastore.ID,
			Type:        "DATASTORE",
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create library %s: %w", name, err)
	}
	s.log.V(1).Info("created content library", "name", name, "id", id)
	return id, nil
}

// LibraryItemExists reports whether libraryID holds an item named name.
func (s *Session) LibraryItemExists(ctx context.Context, libraryID, name string) (bool, error) {
	ids, err := s.findItem(ctx, libraryID, name)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (s *Session) findItem(ctx context.Context, libraryID, name string) ([]string, error) {
	ids, err := s.libraries.FindLibraryItems(ctx, library.FindItem{LibraryID: libraryID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to find library item %s: %w", name, err)
	}
	return ids, nil
}

// UploadLibraryItem creates an OVF item and pushes each file through an
// update session. A failed upload cancels the session and removes the item so
// a later run starts from scratch.
func (s *Session) UploadLibraryItem(ctx context.Context, upload ItemUpload) (string, error) {
	itemID, err := s.libraries.CreateLibraryItem(ctx, library.Item{
		Name:        upload.Name,
		Description: ptr.String(upload.Description),
		Type:        itemTypeOVF,
		LibraryID:   upload.LibraryID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create library item %s: %w", upload.Name, err)
	}

	sessionID, err := s.libraries.CreateLibraryItemUpdateSession(ctx, library.Session{LibraryItemID: itemID})
	if err != nil {
		s.removeItem(ctx, itemID)
		return "", fmt.Errorf("failed to open update session for %s: %w", upload.Name, err)
	}

	if err := s.pushFiles(ctx, sessionID, upload); err != nil {
		if cancelErr := s.libraries.CancelLibraryItemUpdateSession(ctx, sessionID); cancelErr != nil {
			s.log.Error(cancelErr, "failed to cancel update session", "session", sessionID)
		}
		s.removeItem(ctx, itemID)
		return "", err
	}

	if delErr := s.libraries.DeleteLibraryItemUpdateSession(ctx, sessionID); delErr != nil {
		s.log.V(1).Info("failed to delete completed update session", "session", sessionID, "error", delErr.Error())
	}
	return itemID, nil
}

func (s *Session) pushFiles(ctx context.Context, sessionID string, upload ItemUpload) error {
	for _, name := range upload.Files {
		if err := s.uploadFile(ctx, sessionID, upload, name); err != nil {
			return err
		}
	}
	if err := s.libraries.CompleteLibraryItemUpdateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to complete upload of %s: %w", upload.Name, err)
	}
	return nil
}

func (s *Session) uploadFile(ctx context.Context, sessionID string, upload ItemUpload, name string) error {
	path := filepath.Join(upload.Dir, name)
	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if upload.BeforeFile != nil {
		upload.BeforeFile(name, info.Size())
	}

	file, err := s.libraries.AddLibraryItemFile(ctx, sessionID, library.UpdateFile{
		Name:       name,
		SourceType: "PUSH",
		Size:       info.Size(),
	})
	if err != nil {
		return fmt.Errorf("failed to add %s to update session: %w", name, err)
	}
	if file.UploadEndpoint == nil {
		return fmt.Errorf("no upload endpoint returned for %s", name)
	}

	u, err := s.uploadURL(file.UploadEndpoint.URI)
	if err != nil {
		return err
	}

	var body io.Reader = f
	if upload.Progress != nil {
		body = &countingReader{r: f, tick: upload.Progress}
	}
	p := soap.DefaultUpload
	p.ContentLength = info.Size()
	if err := s.rest.Upload(ctx, body, u, &p); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}

	if upload.AfterFile != nil {
		upload.AfterFile(name)
	}
	return nil
}

// uploadURL parses an upload endpoint. Some vCenter versions return "*" as
// the host, which is replaced with the host of the current connection.
func (s *Session) uploadURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid upload endpoint %q: %w", raw, err)
	}
	if strings.HasPrefix(u.Host, "*") {
		host := s.vim.URL().Host
		if port := u.Port(); port != "" && !strings.Contains(host, ":") {
			host += ":" + port
		}
		u.Host = host
	}
	return u, nil
}

func (s *Session) removeItem(ctx context.Context, id string) {
	err := s.libraries.DeleteLibraryItem(ctx, &library.Item{ID: id})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error(err, "failed to remove incomplete library item", "id", id)
	}
}

type countingReader struct {
	r    io.Reader
	tick func(int64)
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if n > 0 {
		c.tick(int64(n))
	}
	return n, err
}
