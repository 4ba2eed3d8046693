package appsrv_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/app"
	"github.com/Abraxas-365/wakka/pkg/iam/app/appsrv"
	"github.com/Abraxas-365/wakka/pkg/kernel"
)

// fakeHasher hashes by prefixing. Good enough to assert that services only
// ever compare against the hash, never the plaintext.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Compare(hash, plain string) error {
	if hash != "hashed:"+plain {
		return errx.New("hash mismatch", errx.TypeAuthorization)
	}
	return nil
}

// memoryAppRepo mimics the Postgres repository contract, including the
// not-found error codes and the live-name uniqueness constraint.
type memoryAppRepo struct {
	apps map[kernel.AppID]*app.App
}

func newMemoryAppRepo() *memoryAppRepo {
	return &memoryAppRepo{apps: make(map[kernel.AppID]*app.App)}
}

func (r *memoryAppRepo) Save(_ context.Context, a *app.App) error {
	for id, existing := range r.apps {
		if id != a.ID && existing.Name == a.Name {
			return app.ErrAlreadyExists().WithDetail("name", a.Name)
		}
	}
	clone := *a
	r.apps[a.ID] = &clone
	return nil
}

func (r *memoryAppRepo) FindByID(_ context.Context, id kernel.AppID) (*app.App, error) {
	a, ok := r.apps[id]
	if !ok {
		return nil, app.ErrNotFound().WithDetail("app_id", id.String())
	}
	clone := *a
	return &clone, nil
}

func (r *memoryAppRepo) FindByName(_ context.Context, name string, includeDeleted bool) (*app.App, error) {
	for _, a := range r.apps {
		if a.Name == name && (includeDeleted || !a.IsDeleted()) {
			clone := *a
			return &clone, nil
		}
	}
	return nil, app.ErrInvalidAppName().WithDetail("name", name)
}

func (r *memoryAppRepo) List(_ context.Context) ([]*app.App, error) {
	var out []*app.App
	for _, a := range r.apps {
		if !a.IsDeleted() {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func newService() (*appsrv.Service, *memoryAppRepo) {
	repo := newMemoryAppRepo()
	return appsrv.NewService(repo, fakeHasher{}), repo
}

func TestCreateApp(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	a, err := svc.CreateApp(ctx, "myapp", "My App")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID.IsEmpty() {
		t.Fatal("app should get an ID")
	}
	if a.ServerAPIKey == nil || len(*a.ServerAPIKey) != 50 {
		t.Fatalf("plaintext key should be provisioned, got %v", a.ServerAPIKey)
	}
	if a.ServerAPIKeyHash != "hashed:"+*a.ServerAPIKey {
		t.Fatal("hash should match the plaintext key")
	}
}

func TestCreateApp_InvalidName(t *testing.T) {
	svc, _ := newService()

	_, err := svc.CreateApp(context.Background(), "My App", "My App")
	if !errx.IsCode(err, app.CodeValidation) {
		t.Fatalf("expected APP_VALIDATION, got %v", err)
	}
}

func TestCreateApp_DuplicateName(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.CreateApp(ctx, "myapp", "My App"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateApp(ctx, "myapp", "My App Again")
	if !errx.IsCode(err, app.CodeAlreadyExists) {
		t.Fatalf("expected APP_ALREADY_EXISTS, got %v", err)
	}
}

func TestSoftDeleteFreesName(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	a, err := svc.CreateApp(ctx, "myapp", "My App")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.SoftDeleteApp(ctx, a.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := svc.ResolveByName(ctx, "myapp"); !errx.IsCode(err, app.CodeInvalidAppName) {
		t.Fatalf("deleted app should not resolve, got %v", err)
	}

	if _, err := svc.CreateApp(ctx, "myapp", "My App Reborn"); err != nil {
		t.Fatalf("name should be free after soft delete: %v", err)
	}
}

func TestVerifyServerKey(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	a, err := svc.CreateApp(ctx, "myapp", "My App")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	key := *a.ServerAPIKey

	if err := svc.VerifyServerKey(a, key); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if err := svc.VerifyServerKey(a, "wrong-key"); !errx.IsCode(err, app.CodeInvalidServerAPIKey) {
		t.Fatalf("expected APP_INVALID_SERVER_API_KEY, got %v", err)
	}
	if err := svc.VerifyServerKey(a, ""); !errx.IsCode(err, app.CodeInvalidServerAPIKey) {
		t.Fatalf("empty key should be rejected, got %v", err)
	}
}

func TestNullifyAPIKey_HashKeepsWorking(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	a, err := svc.CreateApp(ctx, "myapp", "My App")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	key := *a.ServerAPIKey

	if err := svc.NullifyAPIKey(ctx, a.ID); err != nil {
		t.Fatalf("nullify: %v", err)
	}

	stored := repo.apps[a.ID]
	if stored.ServerAPIKey != nil {
		t.Fatal("plaintext key should be cleared")
	}
	// Nullify hides the key from reads but does not revoke it.
	if err := svc.VerifyServerKey(stored, key); err != nil {
		t.Fatalf("key should still authenticate after nullify: %v", err)
	}
}

func TestRegenerateAPIKey(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	a, err := svc.CreateApp(ctx, "myapp", "My App")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldKey := *a.ServerAPIKey

	updated, err := svc.RegenerateAPIKey(ctx, a.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if *updated.ServerAPIKey == oldKey {
		t.Fatal("regenerated key should differ")
	}
	if err := svc.VerifyServerKey(updated, oldKey); err == nil {
		t.Fatal("old key should stop working after regeneration")
	}
	if err := svc.VerifyServerKey(updated, *updated.ServerAPIKey); err != nil {
		t.Fatalf("new key rejected: %v", err)
	}
}

func TestGetOrCreateDefault(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	first, err := svc.GetOrCreateDefault(ctx, "default", "Default App")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := svc.GetOrCreateDefault(ctx, "default", "Default App")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("default app should be created once and reused")
	}
}

// staleReadAppRepo misses the first FindByName even though the app exists,
// reproducing a lookup that raced a concurrent create.
type staleReadAppRepo struct {
	*memoryAppRepo
	missed bool
}

func (r *staleReadAppRepo) FindByName(ctx context.Context, name string, includeDeleted bool) (*app.App, error) {
	if !r.missed {
		r.missed = true
		return nil, app.ErrInvalidAppName().WithDetail("name", name)
	}
	return r.memoryAppRepo.FindByName(ctx, name, includeDeleted)
}

func TestGetOrCreateDefault_LostCreateRaceResolvesExisting(t *testing.T) {
	inner := newMemoryAppRepo()
	ctx := context.Background()

	seed, err := appsrv.NewService(inner, fakeHasher{}).CreateApp(ctx, "default", "Default App")
	if err != nil {
		t.Fatalf("seed app: %v", err)
	}

	svc := appsrv.NewService(&staleReadAppRepo{memoryAppRepo: inner}, fakeHasher{})
	got, err := svc.GetOrCreateDefault(ctx, "default", "Default App")
	if err != nil {
		t.Fatalf("expected the loser to resolve the existing app, got %v", err)
	}
	if got.ID != seed.ID {
		t.Fatalf("expected app %s, got %s", seed.ID.String(), got.ID.String())
	}
}
