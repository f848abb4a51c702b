package types

import (
	"errors"
	"testing"
)

func TestParseEmailRequest_EmailPresence(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		wantEmail string
		wantValid bool
	}{
		{"address", `{"email":"user@example.com"}`, "user@example.com", true},
		{"empty string", `{"email":""}`, "", false},
		{"null", `{"email":null}`, "", false},
		{"false", `{"email":false}`, "", false},
		{"zero", `{"email":0}`, "", false},
		{"absent", `{"subject":"hi"}`, "", false},
		{"true", `{"email":true}`, "true", true},
		{"nonzero number", `{"email":42}`, "42", true},
		{"negative number", `{"email":-1.5}`, "-1.5", true},
		{"empty object", `{"email":{}}`, "{}", true},
		{"empty array", `{"email":[]}`, "[]", true},
		{"whitespace", `{"email":" "}`, " ", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseEmailRequest(tc.body)
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			if req.Email != tc.wantEmail {
				t.Errorf("expected email %q, got %q", tc.wantEmail, req.Email)
			}

			err = req.Validate()
			if tc.wantValid && err != nil {
				t.Errorf("expected email to count as present, got %v", err)
			}
			if !tc.wantValid && !errors.Is(err, ErrEmailRequired) {
				t.Errorf("expected ErrEmailRequired, got %v", err)
			}
		})
	}
}

func TestParseEmailRequest_NonObjectBodies(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"empty", ``},
		{"blank", "  \n"},
		{"null", `null`},
		{"array", `[]`},
		{"string", `"user@example.com"`},
		{"number", `42`},
		{"boolean", `true`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseEmailRequest(tc.body)
			if err != nil {
				t.Fatalf("expected valid json to parse, got %v", err)
			}
			if req.Raw == nil || len(req.Raw) != 0 {
				t.Errorf("expected empty field map, got %v", req.Raw)
			}
			if !errors.Is(req.Validate(), ErrEmailRequired) {
				t.Error("expected missing email")
			}
		})
	}
}

func TestParseEmailRequest_Malformed(t *testing.T) {
	for _, body := range []string{`{"email":`, `{email:"x"}`, `[1,`} {
		if _, err := ParseEmailRequest(body); err == nil {
			t.Errorf("expected parse error for %q", body)
		}
	}
}

func TestParseEmailRequest_KeepsPayload(t *testing.T) {
	body := `{"zeta":true,"email":"user@example.com","subject":"Hi","body":"Hello","extra":{"n":1}}`

	req, err := ParseEmailRequest(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Subject != "Hi" || req.Body != "Hello" {
		t.Errorf("unexpected fields %+v", req)
	}
	if string(req.Payload) != body {
		t.Errorf("expected payload as received, got %s", req.Payload)
	}
	if _, ok := req.Raw["extra"]; !ok {
		t.Error("expected unknown fields in Raw")
	}
}

func TestParseEmailRequest_FalsyOptionalFields(t *testing.T) {
	req, err := ParseEmailRequest(`{"email":"user@example.com","subject":false,"body":0}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Subject != "" || req.Body != "" {
		t.Errorf("expected falsy subject and body to be treated as absent, got %q / %q", req.Subject, req.Body)
	}
}
