package templates

import (
	"fmt"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultSubject   = "Test Email from Lambda"
	DefaultBody      = "This is a test email sent from AWS Lambda using SES."
	DumpBodyPreamble = "Automated notification from Smart IT Services:\n\n\n      "

	htmlBodyFormat = "<html><body><p>%s</p></body></html>"
)

// body fallback modes
const (
	BodyFallbackStatic = "static"
	BodyFallbackDump   = "dump"
)

var (
	ugcPolicy  *bluemonday.Policy
	policyOnce sync.Once
)

// WrapHTML places text inside a minimal html document. The text is not
// escaped unless sanitize is set.
func WrapHTML(text string, sanitize bool) string {
	if sanitize {
		policyOnce.Do(func() {
			ugcPolicy = bluemonday.UGCPolicy()
		})
		text = ugcPolicy.Sanitize(text)
	}
	return fmt.Sprintf(htmlBodyFormat, text)
}

// FallbackBody returns the body text used when a request carries none.
func FallbackBody(mode, static string, request any) (string, error) {
	if mode != BodyFallbackDump {
		if static == "" {
			return DefaultBody, nil
		}
		return static, nil
	}

	dump, err := Dump(request)
	if err != nil {
		return "", fmt.Errorf("failed to dump request: %w", err)
	}
	return DumpBodyPreamble + dump, nil
}
