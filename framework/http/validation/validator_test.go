package validation_test

import (
	"errors"
	"testing"

	"github.com/km-arc/go-feishu/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

// pass asserts the validator passes for the given data/rules.
func pass(t *testing.T, label string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		if v.Fails() {
			t.Errorf("expected PASS, got FAIL: errors: %+v", v.Errors().Bag)
		}
	})
}

// fail asserts the validator fails with an error on the given field.
func fail(t *testing.T, label, field string, data map[string]string, rules validation.Rules) {
	t.Helper()
	t.Run(label, func(t *testing.T) {
		v := validation.Make(data, rules)
		if v.Passes() {
			t.Errorf("expected FAIL on field %q, but validator PASSED", field)
		}
		if v.Errors().First(field) == "" {
			t.Errorf("expected error on field %q, but none found. Errors: %+v", field, v.Errors().Bag)
		}
	})
}

// ── required ─────────────────────────────────────────────────────────────────

func TestValidation_Required(t *testing.T) {
	r := validation.Rules{"receive_id": "required"}

	pass(t, "non-empty value", map[string]string{"receive_id": "ou_1"}, r)
	fail(t, "empty string", "receive_id", map[string]string{"receive_id": ""}, r)
	fail(t, "whitespace only", "receive_id", map[string]string{"receive_id": "   "}, r)
	fail(t, "missing key", "receive_id", map[string]string{}, r)
}

func TestValidation_Required_MessageFormat(t *testing.T) {
	v := validation.Make(map[string]string{"receive_id": ""}, validation.Rules{"receive_id": "required"})
	_ = v.Fails()
	if got, want := v.Errors().First("receive_id"), "The receive_id field is required."; got != want {
		t.Errorf("message: got %q want %q", got, want)
	}
}

// ── in ───────────────────────────────────────────────────────────────────────

func TestValidation_In(t *testing.T) {
	r := validation.Rules{"receive_id_type": "in:open_id, user_id,chat_id"}

	pass(t, "first", map[string]string{"receive_id_type": "open_id"}, r)
	pass(t, "spaced", map[string]string{"receive_id_type": "user_id"}, r)
	fail(t, "unknown", "receive_id_type", map[string]string{"receive_id_type": "phone"}, r)
}

// ── formats ──────────────────────────────────────────────────────────────────

func TestValidation_Email(t *testing.T) {
	r := validation.Rules{"email": "email"}

	pass(t, "valid", map[string]string{"email": "alice@example.com"}, r)
	fail(t, "invalid", "email", map[string]string{"email": "not-an-email"}, r)
}

func TestValidation_JSON(t *testing.T) {
	r := validation.Rules{"content": "json"}

	pass(t, "object", map[string]string{"content": `{"text":"hi"}`}, r)
	fail(t, "broken", "content", map[string]string{"content": `{"text":`}, r)
}

func TestValidation_URL(t *testing.T) {
	r := validation.Rules{"link": "url"}

	pass(t, "https", map[string]string{"link": "https://open.feishu.cn"}, r)
	fail(t, "ftp", "link", map[string]string{"link": "ftp://example.com"}, r)
}

func TestValidation_AlphaDashAndRegex(t *testing.T) {
	pass(t, "alpha_dash ok", map[string]string{"id": "om_abc-123"}, validation.Rules{"id": "alpha_dash"})
	fail(t, "alpha_dash bad", "id", map[string]string{"id": "om abc"}, validation.Rules{"id": "alpha_dash"})
	pass(t, "regex ok", map[string]string{"id": "om_1"}, validation.Rules{"id": "regex:^om_"})
	fail(t, "regex bad", "id", map[string]string{"id": "ou_1"}, validation.Rules{"id": "regex:^om_"})
}

// ── numbers & lengths ────────────────────────────────────────────────────────

func TestValidation_Numeric(t *testing.T) {
	pass(t, "numeric", map[string]string{"n": "1.5"}, validation.Rules{"n": "numeric"})
	fail(t, "not numeric", "n", map[string]string{"n": "abc"}, validation.Rules{"n": "numeric"})
	pass(t, "integer", map[string]string{"n": "42"}, validation.Rules{"n": "integer"})
	fail(t, "not integer", "n", map[string]string{"n": "4.2"}, validation.Rules{"n": "integer"})
}

func TestValidation_MinMax(t *testing.T) {
	r := validation.Rules{"uuid": "min:2|max:5"}

	pass(t, "in range", map[string]string{"uuid": "abc"}, r)
	fail(t, "too short", "uuid", map[string]string{"uuid": "a"}, r)
	fail(t, "too long", "uuid", map[string]string{"uuid": "abcdef"}, r)
	pass(t, "counts runes", map[string]string{"uuid": "飞书"}, r)
}

// ── control rules ────────────────────────────────────────────────────────────

func TestValidation_Nullable(t *testing.T) {
	r := validation.Rules{"uuid": "nullable|min:3"}

	pass(t, "empty skipped", map[string]string{}, r)
	fail(t, "present checked", "uuid", map[string]string{"uuid": "ab"}, r)
}

func TestValidation_StopsAtFirstFailure(t *testing.T) {
	v := validation.Make(map[string]string{}, validation.Rules{"email": "required|email"})
	_ = v.Fails()
	if n := len(v.Errors().Bag["email"]); n != 1 {
		t.Errorf("messages: got %d want 1", n)
	}
}

// ── Validate ─────────────────────────────────────────────────────────────────

func TestValidation_Validate(t *testing.T) {
	ok := validation.Make(map[string]string{"a": "x"}, validation.Rules{"a": "required"})
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate: got %v want nil", err)
	}

	bad := validation.Make(map[string]string{}, validation.Rules{"b": "required", "a": "required"})
	err := bad.Validate()
	if !errors.Is(err, validation.ErrValidation) {
		t.Fatalf("Validate: got %v want ErrValidation", err)
	}
	want := "The a field is required. The b field is required."
	if err.Error() != want {
		t.Errorf("Error(): got %q want %q", err.Error(), want)
	}
}
