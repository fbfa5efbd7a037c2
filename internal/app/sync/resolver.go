// internal/app/sync/resolver.go
package sync

import "context"

// IdentityDirectory answers which CRM contact and member user are the same
// person. The identity link store is the default implementation.
type IdentityDirectory interface {
	UserIDForContact(ctx context.Context, contactID int64) (int64, bool, error)
	ContactIDForUser(ctx context.Context, userID int64) (int64, bool, error)
}

// UserProvisioner may create (or locate elsewhere) a member user for a
// contact the directory does not know. Optional.
type UserProvisioner interface {
	ProvisionUser(ctx context.Context, contactID int64) (int64, bool, error)
}

// ContactProvisioner may create a CRM contact for an unknown member user.
// Optional.
type ContactProvisioner interface {
	ProvisionContact(ctx context.Context, userID int64) (int64, bool, error)
}

// Resolver maps identities across the boundary. A miss on both the
// directory and the provisioner is a final answer for the operation that
// asked; membership events for unresolved identities are skipped, not
// queued.
type Resolver struct {
	dir      IdentityDirectory
	users    UserProvisioner
	contacts ContactProvisioner
}

func NewResolver(dir IdentityDirectory) *Resolver {
	return &Resolver{dir: dir}
}

// WithUserProvisioner registers a fallback consulted on directory misses.
func (r *Resolver) WithUserProvisioner(p UserProvisioner) *Resolver {
	r.users = p
	return r
}

// WithContactProvisioner registers a fallback consulted on directory misses.
func (r *Resolver) WithContactProvisioner(p ContactProvisioner) *Resolver {
	r.contacts = p
	return r
}

// UserForContact resolves a CRM contact to a member user.
func (r *Resolver) UserForContact(ctx context.Context, contactID int64) (int64, bool, error) {
	if r == nil || r.dir == nil {
		return 0, false, nil
	}
	id, ok, err := r.dir.UserIDForContact(ctx, contactID)
	if err != nil || ok {
		return id, ok, err
	}
	if r.users != nil {
		return r.users.ProvisionUser(ctx, contactID)
	}
	return 0, false, nil
}

// ContactForUser resolves a member user to a CRM contact.
func (r *Resolver) ContactForUser(ctx context.Context, userID int64) (int64, bool, error) {
	if r == nil || r.dir == nil {
		return 0, false, nil
	}
	id, ok, err := r.dir.ContactIDForUser(ctx, userID)
	if err != nil || ok {
		return id, ok, err
	}
	if r.contacts != nil {
		return r.contacts.ProvisionContact(ctx, userID)
	}
	return 0, false, nil
}
