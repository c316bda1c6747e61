package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/microscopium/signup/internal/signup/domain"
)

// ErrGroupResolutionFailed reports that the signup group could not be
// resolved to an id, including the case where creating it did not yield a
// discoverable group.
var ErrGroupResolutionFailed = errors.New("group resolution failed")

// GroupLookupFunc looks a group up by name, reporting found=false on a
// clean miss.
type GroupLookupFunc func(ctx context.Context, name string) (id int64, found bool, err error)

// GroupCreateFunc creates a group with the given name and permission token.
// The created id is deliberately not part of the contract; resolution
// always goes back through lookup.
type GroupCreateFunc func(ctx context.Context, name, permissions string) error

// ResolveGroup resolves the signup group descriptor to a group id.
//
// A templated descriptor expands its name against now first, so which group
// a signup lands in depends on when it happens. The resolve path creates
// the group when it does not exist yet: this lazy provisioning is
// intentional, it is how a new time bucket's group comes into being on the
// first signup after the boundary. After a create the group is looked up
// again rather than trusting the create response, which keeps the contract
// working against servers that do not return the id on creation.
func ResolveGroup(
	ctx context.Context,
	desc domain.GroupDescriptor,
	now time.Time,
	lookup GroupLookupFunc,
	create GroupCreateFunc,
) (int64, error) {
	name := desc.Name
	if desc.Templated {
		name = now.Format(desc.Name)
	}

	id, found, err := lookup(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("looking up group %q: %w", name, err)
	}
	if found {
		return id, nil
	}

	if err := create(ctx, name, desc.Permissions); err != nil {
		return 0, fmt.Errorf("%w: creating group %q: %v", ErrGroupResolutionFailed, name, err)
	}

	id, found, err = lookup(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("re-resolving group %q: %w", name, err)
	}
	if !found {
		return 0, fmt.Errorf("%w: group %q not discoverable after creation", ErrGroupResolutionFailed, name)
	}

	return id, nil
}
