package templates

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestWrapHTML(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		sanitize bool
		expected string
	}{
		{
			name:     "plain text",
			text:     "hello",
			expected: "<html><body><p>hello</p></body></html>",
		},
		{
			name:     "markup passes through unescaped",
			text:     "<b>hi</b><script>x()</script>",
			expected: "<html><body><p><b>hi</b><script>x()</script></p></body></html>",
		},
		{
			name:     "sanitized drops scripts",
			text:     "<b>hi</b><script>x()</script>",
			sanitize: true,
			expected: "<html><body><p><b>hi</b></p></body></html>",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := WrapHTML(tc.text, tc.sanitize)
			if got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestFallbackBody_Static(t *testing.T) {
	body, err := FallbackBody(BodyFallbackStatic, "", map[string]any{"email": "a@b.co"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != DefaultBody {
		t.Errorf("expected default body, got %q", body)
	}

	body, err = FallbackBody("", "custom text", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "custom text" {
		t.Errorf("expected override body, got %q", body)
	}
}

func TestFallbackBody_Dump(t *testing.T) {
	req := map[string]any{"email": "user@example.com", "subject": "hi"}

	body, err := FallbackBody(BodyFallbackDump, "", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(body, DumpBodyPreamble) {
		t.Fatalf("expected preamble, got %q", body)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(strings.TrimPrefix(body, DumpBodyPreamble)), &decoded); err != nil {
		t.Fatalf("dump is not valid json: %v", err)
	}
	if decoded["email"] != "user@example.com" {
		t.Errorf("expected email in dump, got %v", decoded["email"])
	}
}

func TestDump_Indent(t *testing.T) {
	got, err := Dump(map[string]any{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	expected := "{\n  \"a\": 1\n}"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestDump_NoHTMLEscaping(t *testing.T) {
	got, err := Dump(map[string]any{"body": "<p>&</p>"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `"<p>&</p>"`) {
		t.Errorf("expected raw markup, got %s", got)
	}
}

type node struct {
	Name  string `json:"name"`
	Next  *node  `json:"next,omitempty"`
	Skip  string `json:"-"`
	inner int
}

func TestDump_CyclicPointer(t *testing.T) {
	a := &node{Name: "a", Skip: "hidden", inner: 1}
	b := &node{Name: "b", Next: a}
	a.Next = b

	got, err := Dump(a)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("dump is not valid json: %v\n%s", err, got)
	}

	next, ok := decoded["next"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested object, got %v", decoded["next"])
	}
	if next["name"] != "b" {
		t.Errorf("expected b, got %v", next["name"])
	}
	if next["next"] != CircularPlaceholder {
		t.Errorf("expected placeholder for cycle, got %v", next["next"])
	}
	if _, ok := decoded["Skip"]; ok {
		t.Error("expected json:\"-\" field to be skipped")
	}
}

func TestDump_CyclicMap(t *testing.T) {
	m := map[string]any{"email": "x@y.z"}
	m["self"] = m

	got, err := Dump(m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `"self": "[Circular]"`) {
		t.Errorf("expected circular marker, got %s", got)
	}
}

func TestDump_SharedReferenceMarkedOnce(t *testing.T) {
	shared := map[string]any{"k": "v"}
	got, err := Dump(map[string]any{"first": shared, "second": shared})
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatal(err)
	}

	placeholders := 0
	for _, k := range []string{"first", "second"} {
		if decoded[k] == CircularPlaceholder {
			placeholders++
		}
	}
	if placeholders != 1 {
		t.Errorf("expected exactly one placeholder, got %d in %s", placeholders, got)
	}
}

func TestDump_Nil(t *testing.T) {
	got, err := Dump(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "null" {
		t.Errorf("expected null, got %q", got)
	}
}

func TestDump_KeyOrder(t *testing.T) {
	testCases := []struct {
		name     string
		value    any
		expected string
	}{
		{
			name:     "raw json keeps its order",
			value:    json.RawMessage(`{"zeta":1,"email":"a@b.co","body":"<b>&</b>"}`),
			expected: "{\n  \"zeta\": 1,\n  \"email\": \"a@b.co\",\n  \"body\": \"<b>&</b>\"\n}",
		},
		{
			name:     "go maps are sorted",
			value:    map[string]any{"zeta": 1, "email": "a@b.co"},
			expected: "{\n  \"email\": \"a@b.co\",\n  \"zeta\": 1\n}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Dump(tc.value)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
