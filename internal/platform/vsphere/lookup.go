package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/types"
)

// Lookup resolves an object by exact name. Every object of kind is listed
// from the root folder and the first one whose name matches is returned.
func (s *Session) Lookup(ctx context.Context, name string, kind Kind, ignoreMissing bool) (Ref, error) {
	if ref, ok := s.cache.get(kind, name); ok {
		return ref, nil
	}

	ref, err := s.find(ctx, name, kind)
	if err != nil {
		return Ref{}, err
	}
	if ref.IsZero() {
		s.cache.invalidate(kind, name)
		if ignoreMissing {
			return Ref{}, nil
		}
		return Ref{}, &NotFoundError{Kind: kind, Name: name}
	}

	s.cache.put(ref)
	return ref, nil
}

func (s *Session) find(ctx context.Context, name string, kind Kind) (Ref, error) {
	m := view.NewManager(s.vim)
	v, err := m.CreateContainerView(ctx, s.vim.ServiceContent.RootFolder, []string{string(kind)}, true)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to create %s view: %w", kind, err)
	}
	defer func() { _ = v.Destroy(context.WithoutCancel(ctx)) }()

	var objects []types.ObjectContent
	if err := v.Retrieve(ctx, []string{string(kind)}, []string{"name"}, &objects); err != nil {
		return Ref{}, fmt.Errorf("failed to list %s objects: %w", kind, err)
	}

	for _, obj := range objects {
		for _, prop := range obj.PropSet {
			if prop.Name != "name" {
				continue
			}
			if n, ok := prop.Val.(string); ok && n == name {
				return Ref{Kind: kind, ID: obj.Obj.Value, Name: name}, nil
			}
		}
	}
	return Ref{}, nil
}

func moref(r Ref) types.ManagedObjectReference {
	return types.ManagedObjectReference{Type: string(r.Kind), Value: r.ID}
}
