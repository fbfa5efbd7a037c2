package sync_test

import (
	"context"
	"testing"

	appsync "github.com/mjwconsult/civicrm-groups-sync/internal/app/sync"
	"github.com/mjwconsult/civicrm-groups-sync/internal/testutil"
)

func TestResolverDirectoryLookup(t *testing.T) {
	dir := testutil.NewMemIdentityStore()
	_ = dir.Link(context.Background(), 42, 7)
	r := appsync.NewResolver(dir)
	ctx := context.Background()

	userID, ok, err := r.UserForContact(ctx, 42)
	if err != nil || !ok || userID != 7 {
		t.Errorf("UserForContact(42) = (%d, %v, %v), want (7, true, nil)", userID, ok, err)
	}
	contactID, ok, err := r.ContactForUser(ctx, 7)
	if err != nil || !ok || contactID != 42 {
		t.Errorf("ContactForUser(7) = (%d, %v, %v), want (42, true, nil)", contactID, ok, err)
	}

	if _, ok, _ := r.UserForContact(ctx, 99); ok {
		t.Error("unknown contact resolved")
	}
	if _, ok, _ := r.ContactForUser(ctx, 99); ok {
		t.Error("unknown user resolved")
	}
}

func TestResolverNilDirectoryIsAbsent(t *testing.T) {
	r := appsync.NewResolver(nil)
	if _, ok, err := r.UserForContact(context.Background(), 42); ok || err != nil {
		t.Errorf("got (ok=%v, err=%v), want absent", ok, err)
	}
	if _, ok, err := r.ContactForUser(context.Background(), 7); ok || err != nil {
		t.Errorf("got (ok=%v, err=%v), want absent", ok, err)
	}
}

type staticProvisioner struct{ id int64 }

func (p staticProvisioner) ProvisionUser(ctx context.Context, contactID int64) (int64, bool, error) {
	return p.id, true, nil
}

func (p staticProvisioner) ProvisionContact(ctx context.Context, userID int64) (int64, bool, error) {
	return p.id, true, nil
}

func TestResolverProvisionerFallback(t *testing.T) {
	dir := testutil.NewMemIdentityStore()
	_ = dir.Link(context.Background(), 42, 7)
	r := appsync.NewResolver(dir).
		WithUserProvisioner(staticProvisioner{id: 70}).
		WithContactProvisioner(staticProvisioner{id: 420})
	ctx := context.Background()

	// Directory hits bypass the provisioner.
	if userID, _, _ := r.UserForContact(ctx, 42); userID != 7 {
		t.Errorf("directory hit returned %d, want 7", userID)
	}
	// Misses fall through.
	userID, ok, err := r.UserForContact(ctx, 99)
	if err != nil || !ok || userID != 70 {
		t.Errorf("provisioned user = (%d, %v, %v), want (70, true, nil)", userID, ok, err)
	}
	contactID, ok, err := r.ContactForUser(ctx, 99)
	if err != nil || !ok || contactID != 420 {
		t.Errorf("provisioned contact = (%d, %v, %v), want (420, true, nil)", contactID, ok, err)
	}
}
