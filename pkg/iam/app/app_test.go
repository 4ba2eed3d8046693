package app_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/wakka/pkg/errx"
	"github.com/Abraxas-365/wakka/pkg/iam/app"
)

func TestValidateName(t *testing.T) {
	valid := []string{"myapp", "app1", "123", "a"}
	for _, name := range valid {
		if err := app.ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "My App", "my-app", "MYAPP", "my_app", "app name", "app!"}
	for _, name := range invalid {
		err := app.ValidateName(name)
		if !errx.IsCode(err, app.CodeValidation) {
			t.Errorf("ValidateName(%q) = %v, want APP_VALIDATION", name, err)
		}
	}
}

func TestMarkDeleted(t *testing.T) {
	a := &app.App{Name: "myapp", Status: app.StatusActive}
	now := time.Now().UTC()

	a.MarkDeleted(now)

	if !a.IsDeleted() {
		t.Fatal("app should be deleted")
	}
	if a.Status != app.StatusDeleted {
		t.Fatalf("status = %q, want DELETED", a.Status)
	}
	if !strings.HasPrefix(a.Name, "myapp$$deleted$$") {
		t.Fatalf("deleted app should be renamed, got %q", a.Name)
	}
	if a.DeletedAt == nil || !a.DeletedAt.Equal(now) {
		t.Fatalf("deleted_at not stamped: %v", a.DeletedAt)
	}
}

func TestGenerateServerAPIKey(t *testing.T) {
	key, err := app.GenerateServerAPIKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(key) != 50 {
		t.Fatalf("key length = %d, want 50", len(key))
	}
	for _, r := range key {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !alnum {
			t.Fatalf("key contains non-alphanumeric rune %q", r)
		}
	}

	other, err := app.GenerateServerAPIKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if key == other {
		t.Fatal("two generated keys should differ")
	}
}
