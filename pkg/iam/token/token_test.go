package token_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/token"
	"github.com/Abraxas-365/wakka/pkg/iam/user"
	"github.com/Abraxas-365/wakka/pkg/kernel"
)

var (
	testKeysOnce sync.Once
	testKeys     *token.Keys
)

func keys(t *testing.T) *token.Keys {
	t.Helper()
	testKeysOnce.Do(func() {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		privPEM := pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(priv),
		})
		pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
		if err != nil {
			t.Fatalf("marshal public key: %v", err)
		}
		pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

		testKeys, err = token.ParseKeys(privPEM, pubPEM)
		if err != nil {
			t.Fatalf("parse keys: %v", err)
		}
	})
	if testKeys == nil {
		t.Fatal("test keys unavailable")
	}
	return testKeys
}

func testUser() *user.User {
	return &user.User{
		ID:       kernel.NewUserID("user-1"),
		AppID:    kernel.NewAppID("app-1"),
		Email:    "ana@example.com",
		Name:     "Ana",
		IsActive: true,
		Verified: true,
	}
}

// --- SessionEngine tests ---

func TestSessionEngine_AccessRoundTrip(t *testing.T) {
	e := token.NewSessionEngine(keys(t), "wakka", 0, 0)
	u := testUser()

	tokenString, err := e.IssueAccess(u, "myapp")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	claims, err := e.Verify(tokenString, token.TypeAccess)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.UserID != u.ID || claims.AppID != u.AppID {
		t.Fatalf("claims identity mismatch: %+v", claims)
	}
	if claims.Email != u.Email || claims.App != "myapp" {
		t.Fatalf("claims payload mismatch: %+v", claims)
	}
	if claims.Type != token.TypeAccess {
		t.Fatalf("expected access type, got %q", claims.Type)
	}
}

func TestSessionEngine_RejectsWrongType(t *testing.T) {
	e := token.NewSessionEngine(keys(t), "wakka", 0, 0)
	u := testUser()

	refresh, err := e.IssueRefresh(u, "myapp")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	if _, err := e.Verify(refresh, token.TypeAccess); !errx.IsCode(err, token.CodeInvalid) {
		t.Fatalf("expected TOKEN_INVALID for refresh-as-access, got %v", err)
	}
	if _, err := e.Verify(refresh, token.TypeRefresh); err != nil {
		t.Fatalf("refresh should verify as refresh: %v", err)
	}
}

func TestSessionEngine_RejectsExpired(t *testing.T) {
	e := token.NewSessionEngine(keys(t), "wakka", -time.Minute, -time.Minute)

	tokenString, err := e.IssueAccess(testUser(), "myapp")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := e.Verify(tokenString, token.TypeAccess); !errx.IsCode(err, token.CodeExpired) {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}
}

func TestSessionEngine_RejectsWrongIssuer(t *testing.T) {
	issuerA := token.NewSessionEngine(keys(t), "wakka", 0, 0)
	issuerB := token.NewSessionEngine(keys(t), "other", 0, 0)

	tokenString, err := issuerA.IssueAccess(testUser(), "myapp")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := issuerB.Verify(tokenString, token.TypeAccess); !errx.IsCode(err, token.CodeInvalid) {
		t.Fatalf("expected TOKEN_INVALID across issuers, got %v", err)
	}
}

func TestSessionEngine_RejectsGarbage(t *testing.T) {
	e := token.NewSessionEngine(keys(t), "wakka", 0, 0)

	if _, err := e.Verify("not-a-jwt", token.TypeAccess); !errx.IsCode(err, token.CodeInvalid) {
		t.Fatalf("expected TOKEN_INVALID, got %v", err)
	}
}

// --- OneTimeEngine tests ---

// memoryRecordRepo is an in-memory RecordRepository for tests. Consume mirrors
// the single-DELETE semantics of the Postgres implementation.
type memoryRecordRepo struct {
	mu      sync.Mutex
	records map[string]token.Record
}

func newMemoryRecordRepo() *memoryRecordRepo {
	return &memoryRecordRepo{records: make(map[string]token.Record)}
}

func (r *memoryRecordRepo) Save(_ context.Context, rec token.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.JTI] = rec
	return nil
}

func (r *memoryRecordRepo) Consume(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[jti]; !ok {
		return false, nil
	}
	delete(r.records, jti)
	return true, nil
}

func (r *memoryRecordRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var purged int64
	for jti, rec := range r.records {
		if rec.ExpiresAt.Before(now) {
			delete(r.records, jti)
			purged++
		}
	}
	return purged, nil
}

func TestOneTimeEngine_IssueAndVerify(t *testing.T) {
	repo := newMemoryRecordRepo()
	e := token.NewOneTimeEngine(keys(t), "wakka", 0, repo)
	ctx := context.Background()

	tokenString, err := e.Issue(ctx, kernel.NewUserID("user-1"), kernel.NewAppID("app-1"), token.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(repo.records))
	}

	claims, err := e.Verify(ctx, tokenString, token.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID.String() != "user-1" || claims.Purpose != token.PurposeEmailVerification {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if len(repo.records) != 0 {
		t.Fatal("verify should consume the record")
	}
}

func TestOneTimeEngine_SecondVerifyFails(t *testing.T) {
	repo := newMemoryRecordRepo()
	e := token.NewOneTimeEngine(keys(t), "wakka", 0, repo)
	ctx := context.Background()

	tokenString, err := e.Issue(ctx, kernel.NewUserID("user-1"), kernel.NewAppID("app-1"), token.PurposePasswordReset)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := e.Verify(ctx, tokenString, token.PurposePasswordReset); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := e.Verify(ctx, tokenString, token.PurposePasswordReset); !errx.IsCode(err, token.CodeInvalid) {
		t.Fatalf("expected TOKEN_INVALID on replay, got %v", err)
	}
}

func TestOneTimeEngine_PurposeIsolation(t *testing.T) {
	repo := newMemoryRecordRepo()
	e := token.NewOneTimeEngine(keys(t), "wakka", 0, repo)
	ctx := context.Background()

	tokenString, err := e.Issue(ctx, kernel.NewUserID("user-1"), kernel.NewAppID("app-1"), token.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := e.Verify(ctx, tokenString, token.PurposePasswordReset); !errx.IsCode(err, token.CodeInvalid) {
		t.Fatalf("expected TOKEN_INVALID for wrong purpose, got %v", err)
	}
	// Wrong-purpose attempts must not burn the token.
	if _, err := e.Verify(ctx, tokenString, token.PurposeEmailVerification); err != nil {
		t.Fatalf("right purpose should still verify: %v", err)
	}
}

func TestOneTimeEngine_ConcurrentVerifyExactlyOneWins(t *testing.T) {
	repo := newMemoryRecordRepo()
	e := token.NewOneTimeEngine(keys(t), "wakka", 0, repo)
	ctx := context.Background()

	tokenString, err := e.Issue(ctx, kernel.NewUserID("user-1"), kernel.NewAppID("app-1"), token.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const racers = 16
	var wg sync.WaitGroup
	results := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Verify(ctx, tokenString, token.PurposeEmailVerification)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful verify, got %d", wins)
	}
}

func TestOneTimeEngine_ExpiredToken(t *testing.T) {
	repo := newMemoryRecordRepo()
	e := token.NewOneTimeEngine(keys(t), "wakka", -time.Minute, repo)
	ctx := context.Background()

	tokenString, err := e.Issue(ctx, kernel.NewUserID("user-1"), kernel.NewAppID("app-1"), token.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := e.Verify(ctx, tokenString, token.PurposeEmailVerification); !errx.IsCode(err, token.CodeExpired) {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}

	purged, err := e.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged record, got %d", purged)
	}
}
