package mcpconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/elderberry/agentops/internal/domain"
)

type DependencyCheck struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// ValidateFSDDependency reports whether code in layer from may import layer to.
// Same-layer imports are only allowed inside app and shared, which have no
// slices.
func (c *Catalog) ValidateFSDDependency(from, to string) (DependencyCheck, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))

	allowed, ok := c.rules[from]
	if !ok {
		return DependencyCheck{}, domain.NotFound(fmt.Sprintf("unknown FSD layer %q", from))
	}
	if _, ok := c.rules[to]; !ok {
		return DependencyCheck{}, domain.NotFound(fmt.Sprintf("unknown FSD layer %q", to))
	}

	check := DependencyCheck{From: from, To: to}
	switch {
	case from == to && (from == "app" || from == "shared"):
		check.Valid = true
		check.Reason = fmt.Sprintf("%s has no slices; internal imports are allowed", from)
	case from == to:
		check.Reason = fmt.Sprintf("slices in %s must not import each other", from)
	case slices.Contains(allowed, to):
		check.Valid = true
		check.Reason = fmt.Sprintf("%s may depend on %s", from, to)
	default:
		check.Reason = fmt.Sprintf("%s may only depend on: %s", from, describeAllowed(allowed))
	}
	return check, nil
}

func describeAllowed(allowed []string) string {
	if len(allowed) == 0 {
		return "(nothing)"
	}
	return strings.Join(allowed, ", ")
}

type PublicAPIReport struct {
	Path              string   `json:"path"`
	HasIndexFile      bool     `json:"has_index_file"`
	HasNamedExports   bool     `json:"has_named_exports"`
	HasDefaultExport  bool     `json:"has_default_export"`
	HasWildcardExport bool     `json:"has_wildcard_export"`
	DeepExports       []string `json:"deep_exports"`
	Issues            []string `json:"issues"`
	Suggestions       []string `json:"suggestions"`
	Valid             bool     `json:"valid"`
}

// ValidatePublicAPIPattern inspects a slice's public API file and the list of
// things it exports. Exports are either names ("LoginForm", "default") or
// re-export specifiers ("./ui/LoginForm", "*").
func ValidatePublicAPIPattern(path string, exports []string) PublicAPIReport {
	clean := strings.ReplaceAll(strings.TrimSpace(path), "\\", "/")
	report := PublicAPIReport{
		Path:         clean,
		HasIndexFile: isIndexPath(clean),
		DeepExports:  []string{},
		Issues:       []string{},
		Suggestions:  []string{},
	}

	report.HasDefaultExport = slices.ContainsFunc(exports, func(e string) bool {
		return strings.TrimSpace(e) == "default"
	})
	report.HasWildcardExport = slices.ContainsFunc(exports, func(e string) bool {
		return strings.HasPrefix(strings.TrimSpace(e), "*")
	})
	report.HasNamedExports = slices.ContainsFunc(exports, func(e string) bool {
		e = strings.TrimSpace(e)
		return e != "" && e != "default" && !strings.HasPrefix(e, "*") && !strings.Contains(e, "/")
	})
	for _, e := range exports {
		if isDeepSpecifier(e) {
			report.DeepExports = append(report.DeepExports, strings.TrimSpace(e))
		}
	}

	if !report.HasIndexFile {
		report.Issues = append(report.Issues, "public API must be exposed through an index.ts file")
		report.Suggestions = append(report.Suggestions, "create index.ts at the slice root and re-export from it")
	}
	if len(exports) == 0 {
		report.Issues = append(report.Issues, "public API exports nothing")
	}
	if report.HasDefaultExport {
		report.Issues = append(report.Issues, "default export found in public API")
		report.Suggestions = append(report.Suggestions, "prefer named exports so imports stay greppable")
	}
	if report.HasWildcardExport {
		report.Issues = append(report.Issues, "wildcard re-export leaks slice internals")
		report.Suggestions = append(report.Suggestions, "list re-exported names explicitly")
	}
	if len(report.DeepExports) > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("deep re-exports: %s", strings.Join(report.DeepExports, ", ")))
		report.Suggestions = append(report.Suggestions, "re-export from segment index files (./ui, ./model) instead of individual modules")
	}
	report.Valid = len(report.Issues) == 0
	return report
}

func isIndexPath(path string) bool {
	for _, name := range []string{"index.ts", "index.js"} {
		if strings.HasSuffix(path, name) || strings.Contains(path, "/"+name) {
			return true
		}
	}
	return false
}

// isDeepSpecifier reports re-exports that reach below a segment, e.g.
// "./model/selectors/byId".
func isDeepSpecifier(value string) bool {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "./") && !strings.HasPrefix(value, "../") {
		return false
	}
	parts := strings.Split(strings.TrimPrefix(strings.TrimPrefix(value, "./"), "../"), "/")
	return len(parts) > 2
}
