package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const Charset = "UTF-8"

// EmailRequest is the untrusted payload posted to the function.
type EmailRequest struct {
	Email   string `json:"email" validate:"required"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`

	// Raw holds every field of the decoded payload, including unknown ones.
	Raw map[string]any `json:"-"`

	// Payload is the body as received; it keeps the caller's key order.
	Payload json.RawMessage `json:"-"`
}

// ParseEmailRequest decodes a request body; an empty body is treated as {}.
// Valid json that is not an object yields a request without fields so it
// fails validation instead of parsing.
func ParseEmailRequest(body string) (*EmailRequest, error) {
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}

	var decoded any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return nil, err
	}

	raw, ok := decoded.(map[string]any)
	if !ok {
		return &EmailRequest{Raw: map[string]any{}, Payload: json.RawMessage(body)}, nil
	}

	return &EmailRequest{
		Email:   stringField(raw, "email"),
		Subject: stringField(raw, "subject"),
		Body:    stringField(raw, "body"),
		Raw:     raw,
		Payload: json.RawMessage(body),
	}, nil
}

// stringField reads a string field; non-string values are rendered the
// way they appear in JSON so a truthy non-string still counts as present.
func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if !val {
			return ""
		}
		return "true"
	case float64:
		if val == 0 {
			return ""
		}
		return fmt.Sprint(val)
	default:
		bs, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(bs)
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once

	ErrEmailRequired = errors.New("Missing email field in request body")
)

// Validate checks the fields required before any send is attempted.
func (r *EmailRequest) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Email" {
				return ErrEmailRequired
			}
		}
	}
	return err
}

// EmailMessage is the outbound message handed to a provider.
type EmailMessage struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Subject     string `json:"subject"`
	TextBody    string `json:"textBody"`
	HTMLBody    string `json:"htmlBody"`
	Charset     string `json:"charset"`
}

// ResponseBody is the JSON body returned to the caller.
type ResponseBody struct {
	Code      int    `json:"code,omitempty"`
	Message   string `json:"message"`
	MessageID string `json:"messageId,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Note      string `json:"note,omitempty"`
	Error     string `json:"error,omitempty"`
}
