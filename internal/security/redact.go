package security

import "regexp"

// Redacted replaces every secret found by a Redactor.
const Redacted = "[REDACTED]"

// Redactor masks credentials in text before it is written to disk.
type Redactor struct {
	keyed    []*regexp.Regexp // group 1 is the label kept in the output
	patterns []*regexp.Regexp
}

// NewRedactor returns a redactor with patterns for common API keys and tokens.
func NewRedactor() *Redactor {
	return &Redactor{
		keyed: []*regexp.Regexp{
			regexp.MustCompile(`(?i)((?:api[_-]?key|access[_-]?token|auth[_-]?token|secret|password|passwd)["']?\s*[:=]\s*["']?)[A-Za-z0-9_\-./+]{8,}`),
			regexp.MustCompile(`(?i)(Bearer\s+)[A-Za-z0-9_\-.]{10,256}`),
			regexp.MustCompile(`(?i)(x-api-key:\s*)\S{8,}`),
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`sk-ant-[A-Za-z0-9_\-]{20,}`),
			regexp.MustCompile(`sk-(?:proj-)?[A-Za-z0-9_\-]{20,}`),
			regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
			regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
			regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36}`),
			regexp.MustCompile(`xox[baprs]-[0-9]{10,}-[0-9]{10,}-[A-Za-z0-9]{24}`),
			regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.(?:eyJ[A-Za-z0-9_-]+)?\.[A-Za-z0-9_-]{20,}`),
			regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]+?-----END [A-Z ]*PRIVATE KEY-----`),
			regexp.MustCompile(`(?:postgres|postgresql|mysql|mongodb(?:\+srv)?)://[^:@/\s]+:[^@\s]+@`),
		},
	}
}

// Redact masks all detected secrets in text.
func (r *Redactor) Redact(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range r.keyed {
		text = re.ReplaceAllString(text, "${1}"+Redacted)
	}
	for _, re := range r.patterns {
		text = re.ReplaceAllString(text, Redacted)
	}
	return text
}
