package value

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFromJSONKinds(t *testing.T) {
	m, err := MapFromJSON(json.RawMessage(`{
		"key": "PROJ-1",
		"count": 3,
		"ratio": 0.5,
		"done": true,
		"labels": ["a", "b"],
		"nested": {"x": 1}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	if s, err := m.String("key"); err != nil || s != "PROJ-1" {
		t.Fatalf("String(key) = %q, %v", s, err)
	}
	if i, err := m.Int("count"); err != nil || i != 3 {
		t.Fatalf("Int(count) = %d, %v", i, err)
	}
	if f, err := m["ratio"].AsFloat(); err != nil || f != 0.5 {
		t.Fatalf("AsFloat(ratio) = %g, %v", f, err)
	}
	if b, err := m.Bool("done"); err != nil || !b {
		t.Fatalf("Bool(done) = %t, %v", b, err)
	}
	list, err := m["labels"].AsList()
	if err != nil || len(list) != 2 {
		t.Fatalf("AsList(labels) = %v, %v", list, err)
	}
	nested, err := m["nested"].AsMap()
	if err != nil {
		t.Fatal(err)
	}
	if i, err := nested.Int("x"); err != nil || i != 1 {
		t.Fatalf("nested x = %d, %v", i, err)
	}
}

func TestMapNamedErrors(t *testing.T) {
	m := Map{"count": String("not a number")}

	if _, err := m.String("missing"); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("expected ErrMissingArgument, got %v", err)
	}
	if _, err := m.Int("count"); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}

	if s, err := m.StringOr("missing", "fallback"); err != nil || s != "fallback" {
		t.Fatalf("StringOr = %q, %v", s, err)
	}
	if i, err := m.IntOr("missing", 7); err != nil || i != 7 {
		t.Fatalf("IntOr = %d, %v", i, err)
	}
}

func TestIntFromWholeFloat(t *testing.T) {
	if i, err := Float(5).AsInt(); err != nil || i != 5 {
		t.Fatalf("AsInt(5.0) = %d, %v", i, err)
	}
	if _, err := Float(5.5).AsInt(); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected ErrWrongType for 5.5, got %v", err)
	}
}

func TestRenderDeterministic(t *testing.T) {
	m := FromMap(Map{
		"b": Int(2),
		"a": String("x"),
		"c": List(Bool(true), Null()),
	})

	want := `{"a":"x","b":2,"c":[true,null]}`
	for i := 0; i < 5; i++ {
		if got := m.Render(); got != want {
			t.Fatalf("Render() = %s, want %s", got, want)
		}
	}
}

func TestMalformedJSON(t *testing.T) {
	if _, err := MapFromJSON(json.RawMessage(`{"broken":`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if _, err := MapFromJSON(json.RawMessage(`[1,2]`)); err == nil {
		t.Fatal("expected error for non-object arguments")
	}
}
