package validation_test

import (
	"errors"
	"testing"

	"github.com/dejobratic/checkout/internal/validation"
)

func TestCheck(t *testing.T) {
	t.Run("passes when every required field is present", func(t *testing.T) {
		amount := 10.0
		src := validation.Fields{"email": "a@x.com", "name": "Widget", "amount": &amount}

		verdict := validation.Check(
			validation.Required(src, "email"),
			validation.Required(src, "name"),
			validation.Required(src, "amount"),
		)

		if !verdict.Pass {
			t.Fatalf("expected pass, got %+v", verdict)
		}
		if len(verdict.Result) != 3 {
			t.Fatalf("expected 3 results, got %d", len(verdict.Result))
		}
	})

	t.Run("reports missing fields in rule order", func(t *testing.T) {
		src := validation.Fields{"name": "Widget", "description": "   "}

		verdict := validation.Check(
			validation.Required(src, "email"),
			validation.Required(src, "name"),
			validation.Required(src, "description"),
		)

		if verdict.Pass {
			t.Fatal("expected verdict to fail")
		}

		want := []struct {
			field string
			pass  bool
		}{
			{"email", false},
			{"name", true},
			{"description", false},
		}
		for i, w := range want {
			got := verdict.Result[i]
			if got.Field != w.field || got.Pass != w.pass {
				t.Errorf("result[%d] = %+v, want field=%s pass=%v", i, got, w.field, w.pass)
			}
		}
		if verdict.Result[0].Message != "email is required" {
			t.Errorf("unexpected message %q", verdict.Result[0].Message)
		}
	})

	t.Run("empty input fails on email", func(t *testing.T) {
		verdict := validation.Check(validation.Required(validation.Fields{}, "email"))

		if verdict.Pass {
			t.Fatal("expected verdict to fail")
		}
		if len(verdict.Result) != 1 || verdict.Result[0].Field != "email" || verdict.Result[0].Pass {
			t.Errorf("unexpected result %+v", verdict.Result)
		}
	})

	t.Run("zero values of numbers and booleans count as present", func(t *testing.T) {
		zero := 0.0
		src := validation.Fields{"amount": &zero, "paid": false, "count": 0}

		verdict := validation.Check(
			validation.Required(src, "amount"),
			validation.Required(src, "paid"),
			validation.Required(src, "count"),
		)

		if !verdict.Pass {
			t.Fatalf("expected pass, got %+v", verdict)
		}
	})

	t.Run("nil pointers are missing", func(t *testing.T) {
		var amount *float64
		var name *string
		src := validation.Fields{"amount": amount, "name": name}

		verdict := validation.Check(
			validation.Required(src, "amount"),
			validation.Required(src, "name"),
		)

		if verdict.Pass {
			t.Fatal("expected verdict to fail")
		}
	})

	t.Run("no rules passes", func(t *testing.T) {
		if !validation.Check().Pass {
			t.Fatal("expected empty rule set to pass")
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		src := validation.Fields{"email": ""}
		first := validation.Check(validation.Required(src, "email"))
		second := validation.Check(validation.Required(src, "email"))

		if first.Pass != second.Pass || first.Result[0] != second.Result[0] {
			t.Errorf("verdicts differ: %+v vs %+v", first, second)
		}
	})
}

func TestGate(t *testing.T) {
	t.Run("returns nil on pass", func(t *testing.T) {
		if err := validation.Gate(validation.Required(validation.Fields{"id": "1"}, "id")); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("returns typed error carrying the verdict", func(t *testing.T) {
		err := validation.Gate(validation.Required(validation.Fields{}, "order_id"))

		var verr *validation.Error
		if !errors.As(err, &verr) {
			t.Fatalf("expected *validation.Error, got %T", err)
		}
		if verr.Verdict.Pass {
			t.Error("expected failing verdict")
		}
		if err.Error() != "validation failed: order_id" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}
