package serializer

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	ser := JSON()

	b, err := ser(map[string]int{"a": 1}, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `{"a":1}` {
		t.Errorf("got %s", b)
	}
}

func TestSafeMarshal_PlainValue(t *testing.T) {
	b := SafeMarshal(map[string]any{"msg": "ok", "n": 1})

	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out["msg"] != "ok" {
		t.Errorf("msg = %v", out["msg"])
	}
}

func TestSafeMarshal_CircularMap(t *testing.T) {
	m := map[string]any{"msg": "missing"}
	m["self"] = m

	b := SafeMarshal(m)

	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("output is not valid JSON: %v (%s)", err, b)
	}
	if out["msg"] != "missing" {
		t.Errorf("msg = %v, want missing", out["msg"])
	}
	if out["self"] != "[Circular]" {
		t.Errorf("self = %v, want [Circular]", out["self"])
	}
}

type node struct {
	Name string `json:"name"`
	Next *node  `json:"next"`
}

func TestSafeMarshal_CircularStruct(t *testing.T) {
	a := &node{Name: "a"}
	b := &node{Name: "b", Next: a}
	a.Next = b

	out := SafeMarshal(a)

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v (%s)", err, out)
	}
	if decoded["name"] != "a" {
		t.Errorf("name = %v, want a", decoded["name"])
	}
	if !strings.Contains(string(out), `"[Circular]"`) {
		t.Errorf("expected circular marker in %s", out)
	}
}

func TestSafeMarshal_SharedReferenceIsNotCircular(t *testing.T) {
	shared := &node{Name: "leaf"}
	v := map[string]any{"left": shared, "right": shared}

	out := SafeMarshal(v)

	// A DAG is encodable as-is; the fast path must succeed without markers.
	if strings.Contains(string(out), "[Circular]") {
		t.Errorf("shared reference flagged as circular: %s", out)
	}
}

func TestSafeMarshal_UnsupportedTypes(t *testing.T) {
	v := map[string]any{
		"fn": func() {},
		"ch": make(chan int),
		"ok": true,
	}

	out := SafeMarshal(v)

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v (%s)", err, out)
	}
	if decoded["ok"] != true {
		t.Errorf("ok = %v", decoded["ok"])
	}
	for _, key := range []string{"fn", "ch"} {
		s, ok := decoded[key].(string)
		if !ok || !strings.HasPrefix(s, "[") {
			t.Errorf("%s = %v, want degraded marker", key, decoded[key])
		}
	}
}

func TestSafeMarshal_HonorsJSONTags(t *testing.T) {
	type tagged struct {
		Visible string `json:"visible"`
		Skipped string `json:"-"`
		hidden  string
	}

	v := map[string]any{
		"t":  tagged{Visible: "yes", Skipped: "no", hidden: "no"},
		"fn": func() {}, // force the decycle path
	}

	out := SafeMarshal(v)

	if !strings.Contains(string(out), `"visible":"yes"`) {
		t.Errorf("missing tagged field: %s", out)
	}
	if strings.Contains(string(out), "Skipped") || strings.Contains(string(out), "hidden") {
		t.Errorf("leaked skipped fields: %s", out)
	}
}
