package usersrv_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/app"
	"github.com/Abraxas-365/wakka/pkg/iam/user"
	"github.com/Abraxas-365/wakka/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/wakka/pkg/kernel"
	"github.com/Abraxas-365/wakka/pkg/ptrx"
)

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Compare(hash, plain string) error {
	if hash != "hashed:"+plain {
		return errx.New("hash mismatch", errx.TypeAuthorization)
	}
	return nil
}

// memoryUserRepo mimics the Postgres repository contract. FindByEmail with
// includeDeleted prefers the live row, like the real query does.
type memoryUserRepo struct {
	users map[kernel.UserID]*user.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[kernel.UserID]*user.User)}
}

func (r *memoryUserRepo) Save(_ context.Context, u *user.User) error {
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *memoryUserRepo) FindByID(_ context.Context, id kernel.UserID, appID kernel.AppID) (*user.User, error) {
	u, ok := r.users[id]
	if !ok || u.AppID != appID || u.IsDeleted() {
		return nil, user.ErrDoesNotExist().WithDetail("user_id", id.String())
	}
	clone := *u
	return &clone, nil
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string, appID kernel.AppID, includeDeleted bool) (*user.User, error) {
	var deleted *user.User
	for _, u := range r.users {
		if u.Email != email || u.AppID != appID {
			continue
		}
		if !u.IsDeleted() {
			clone := *u
			return &clone, nil
		}
		if includeDeleted {
			clone := *u
			deleted = &clone
		}
	}
	if deleted != nil {
		return deleted, nil
	}
	return nil, user.ErrDoesNotExist().WithDetail("email", email)
}

func (r *memoryUserRepo) HardDelete(_ context.Context, id kernel.UserID) error {
	if _, ok := r.users[id]; !ok {
		return user.ErrDoesNotExist().WithDetail("user_id", id.String())
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) UpdateLastLogin(_ context.Context, id kernel.UserID) error {
	u, ok := r.users[id]
	if !ok {
		return user.ErrDoesNotExist().WithDetail("user_id", id.String())
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	return nil
}

func testApp() *app.App {
	return &app.App{
		ID:     kernel.NewAppID("app-1"),
		Name:   "myapp",
		Title:  "My App",
		Status: app.StatusActive,
	}
}

func newService() (*usersrv.Service, *memoryUserRepo) {
	repo := newMemoryUserRepo()
	return usersrv.NewService(repo, fakeHasher{}), repo
}

func TestCreateUser(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, testApp(), "Ana@Example.com", "secret", "Ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Fatalf("email should be lowercased, got %q", u.Email)
	}
	if u.Username != "myapp$$ana@example.com" {
		t.Fatalf("unexpected derived username %q", u.Username)
	}
	if u.Verified {
		t.Fatal("new user should start unverified")
	}
	if !u.IsActive {
		t.Fatal("new user should start active")
	}
	if u.PasswordHash == "secret" || !strings.HasPrefix(u.PasswordHash, "hashed:") {
		t.Fatalf("password should be hashed, got %q", u.PasswordHash)
	}
}

func TestCreateUser_MissingFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, testApp(), "", "secret", "Ana"); !errx.IsCode(err, user.CodeValidation) {
		t.Fatalf("expected USER_VALIDATION for empty email, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, testApp(), "ana@example.com", "", "Ana"); !errx.IsCode(err, user.CodeValidation) {
		t.Fatalf("expected USER_VALIDATION for empty password, got %v", err)
	}
}

func TestCreateUser_DuplicateLiveIdentity(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	a := testApp()

	if _, err := svc.CreateUser(ctx, a, "ana@example.com", "secret", "Ana"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateUser(ctx, a, "ana@example.com", "other", "Ana Again")
	if !errx.IsCode(err, user.CodeAlreadyExists) {
		t.Fatalf("expected USER_ALREADY_EXISTS, got %v", err)
	}
}

func TestCreateUser_ResurrectsSoftDeletedIdentity(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	a := testApp()

	first, err := svc.CreateUser(ctx, a, "ana@example.com", "secret", "Ana")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := svc.SoftDeleteUser(ctx, first.ID, a.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	second, err := svc.CreateUser(ctx, a, "ana@example.com", "newsecret", "Ana")
	if err != nil {
		t.Fatalf("re-signup against soft-deleted identity: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("resurrected user should get a fresh ID")
	}
	if _, ok := repo.users[first.ID]; ok {
		t.Fatal("old soft-deleted row should be hard-deleted")
	}
	if second.Verified {
		t.Fatal("resurrected user should start unverified again")
	}
}

func TestSoftDeleteUser(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	a := testApp()

	u, err := svc.CreateUser(ctx, a, "ana@example.com", "secret", "Ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.SoftDeleteUser(ctx, u.ID, a.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	stored := repo.users[u.ID]
	if !stored.IsDeleted() {
		t.Fatal("user should be marked deleted")
	}
	if stored.IsActive {
		t.Fatal("deleted user should be deactivated")
	}
	if !strings.HasPrefix(stored.Username, "myapp$$ana@example.com$$deleted$$") {
		t.Fatalf("username should be renamed, got %q", stored.Username)
	}

	if _, err := svc.FindByEmail(ctx, "ana@example.com", a.ID); !errx.IsCode(err, user.CodeDoesNotExist) {
		t.Fatalf("deleted user should not be found, got %v", err)
	}
}

func TestUpdateUser_RequiresVerified(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	a := testApp()

	u, err := svc.CreateUser(ctx, a, "ana@example.com", "secret", "Ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.UpdateUser(ctx, u.ID, a.ID, ptrx.String("New Name"), nil)
	if !errx.IsCode(err, user.CodeNotVerified) {
		t.Fatalf("expected USER_NOT_VERIFIED, got %v", err)
	}

	repo.users[u.ID].Verified = true

	updated, err := svc.UpdateUser(ctx, u.ID, a.ID, ptrx.String("New Name"), ptrx.Bool(false))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New Name" || updated.IsActive {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestMarkVerified(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	a := testApp()

	u, err := svc.CreateUser(ctx, a, "ana@example.com", "secret", "Ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.MarkVerified(ctx, u); err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	stored := repo.users[u.ID]
	if !stored.Verified || !stored.IsActive {
		t.Fatalf("verified user should be verified and active: %+v", stored)
	}
}

func TestChangeAndCheckPassword(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	a := testApp()

	u, err := svc.CreateUser(ctx, a, "ana@example.com", "secret", "Ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !svc.CheckPassword(u, "secret") {
		t.Fatal("original password should check out")
	}
	if svc.CheckPassword(u, "wrong") {
		t.Fatal("wrong password should fail")
	}

	if err := svc.ChangePassword(ctx, u, "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if !svc.CheckPassword(u, "newsecret") {
		t.Fatal("new password should check out")
	}
	if svc.CheckPassword(u, "secret") {
		t.Fatal("old password should stop working")
	}

	if err := svc.ChangePassword(ctx, u, ""); !errx.IsCode(err, user.CodeValidation) {
		t.Fatalf("empty password should be rejected, got %v", err)
	}
}
