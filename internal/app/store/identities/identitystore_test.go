package identitystore_test

import (
	"testing"

	identitystore "github.com/mjwconsult/civicrm-groups-sync/internal/app/store/identities"
	"github.com/mjwconsult/civicrm-groups-sync/internal/testutil"
)

func TestStore_LinkAndLookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	ctx := testutil.Context(t)

	if err := store.Link(ctx, 101, 7); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	userID, ok, err := store.UserIDForContact(ctx, 101)
	if err != nil {
		t.Fatalf("UserIDForContact failed: %v", err)
	}
	if !ok || userID != 7 {
		t.Errorf("UserIDForContact: got (%d, %v), want (7, true)", userID, ok)
	}

	contactID, ok, err := store.ContactIDForUser(ctx, 7)
	if err != nil {
		t.Fatalf("ContactIDForUser failed: %v", err)
	}
	if !ok || contactID != 101 {
		t.Errorf("ContactIDForUser: got (%d, %v), want (101, true)", contactID, ok)
	}
}

func TestStore_Lookup_Unlinked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	ctx := testutil.Context(t)

	_, ok, err := store.UserIDForContact(ctx, 555)
	if err != nil {
		t.Fatalf("UserIDForContact failed: %v", err)
	}
	if ok {
		t.Error("expected no link for unknown contact")
	}

	_, ok, err = store.ContactIDForUser(ctx, 555)
	if err != nil {
		t.Fatalf("ContactIDForUser failed: %v", err)
	}
	if ok {
		t.Error("expected no link for unknown user")
	}
}

func TestStore_Link_DuplicateEitherSide(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	ctx := testutil.Context(t)

	if err := store.Link(ctx, 101, 7); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	// Same contact, different user.
	if err := store.Link(ctx, 101, 8); err != identitystore.ErrDuplicateLink {
		t.Errorf("expected ErrDuplicateLink for linked contact, got %v", err)
	}

	// Same user, different contact.
	if err := store.Link(ctx, 102, 7); err != identitystore.ErrDuplicateLink {
		t.Errorf("expected ErrDuplicateLink for linked user, got %v", err)
	}
}

func TestStore_Unlink(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	ctx := testutil.Context(t)

	if err := store.Link(ctx, 101, 7); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if err := store.Unlink(ctx, 101); err != nil {
		t.Fatalf("Unlink failed: %v", err)
	}

	_, ok, err := store.UserIDForContact(ctx, 101)
	if err != nil {
		t.Fatalf("UserIDForContact failed: %v", err)
	}
	if ok {
		t.Error("expected link removed")
	}

	// Both sides are freed for relinking.
	if err := store.Link(ctx, 101, 7); err != nil {
		t.Errorf("relink after Unlink failed: %v", err)
	}
}
