package agentlog

import (
	"regexp"
	"strings"
)

// Redactor masks secrets in free-text payload fields before they leave the
// process.
type Redactor struct {
	enabled bool
	rules   []redactionRule
}

type redactionRule struct {
	re    *regexp.Regexp
	label string
}

func NewRedactor(enabled bool, custom []string) *Redactor {
	rules := []redactionRule{
		{re: regexp.MustCompile(`(?is)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`), label: "[REDACTED_PRIVATE_KEY]"},
		{re: regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`), label: "Bearer [REDACTED]"},
		{re: regexp.MustCompile(`AKIA[0-9A-Z]{16}`), label: "[REDACTED_AWS_KEY]"},
		{re: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`), label: "[REDACTED_GITHUB_TOKEN]"},
		{re: regexp.MustCompile(`sk-[A-Za-z0-9_\-]{20,}`), label: "[REDACTED_API_KEY]"},
		{re: regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)\s*[:=]\s*['"]?[^\s'",}]+`), label: "$1=[REDACTED]"},
	}
	for _, pattern := range custom {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		rules = append(rules, redactionRule{re: re, label: "[REDACTED_CUSTOM]"})
	}
	return &Redactor{enabled: enabled, rules: rules}
}

func (r *Redactor) Apply(input string) string {
	if r == nil || !r.enabled || input == "" {
		return input
	}
	out := input
	for _, rule := range r.rules {
		out = rule.re.ReplaceAllString(out, rule.label)
	}
	return out
}

// applyPayload redacts string values in place, descending into string slices
// and nested string maps.
func (r *Redactor) applyPayload(payload map[string]any) {
	if r == nil || !r.enabled {
		return
	}
	for key, value := range payload {
		switch v := value.(type) {
		case string:
			payload[key] = r.Apply(v)
		case []string:
			out := make([]string, len(v))
			for i, item := range v {
				out[i] = r.Apply(item)
			}
			payload[key] = out
		case map[string]string:
			out := make(map[string]string, len(v))
			for k, item := range v {
				out[k] = r.Apply(item)
			}
			payload[key] = out
		}
	}
}
