package mcpconfig

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/elderberry/agentops/internal/domain"
)

type scaffoldInput struct {
	Layer     string
	Name      string
	Component string
	Ident     string
	Focus     string
}

var (
	sliceTemplate = template.Must(template.New("slice").Parse(`src/{{.Layer}}/{{.Name}}/
├── index.ts          # public API
├── ui/
│   ├── {{.Component}}.tsx
│   └── index.ts
├── model/
│   ├── store.ts
│   ├── types.ts
│   └── index.ts
{{- if eq .Layer "entities"}}
├── api/
│   ├── {{.Ident}}Api.ts
│   └── index.ts
{{- end}}
└── lib/
    └── index.ts

// src/{{.Layer}}/{{.Name}}/index.ts
export { {{.Component}} } from './ui';
export type * from './model/types';

Focus: {{.Focus}}
`))

	widgetTemplate = template.Must(template.New("widget").Parse(`src/widgets/{{.Name}}/
├── index.ts          # public API
└── ui/
    ├── {{.Component}}.tsx
    └── index.ts

// src/widgets/{{.Name}}/index.ts
export { {{.Component}} } from './ui';

Compose features and entities only; keep props serialisable.
Focus: {{.Focus}}
`))

	pageTemplate = template.Must(template.New("page").Parse(`src/pages/{{.Name}}/
├── index.ts          # public API (lazy route entry)
└── ui/
    └── {{.Component}}Page.tsx

// src/pages/{{.Name}}/index.ts
export { {{.Component}}Page } from './ui/{{.Component}}Page';

Focus: {{.Focus}}
`))

	appTemplate = template.Must(template.New("app").Parse(`src/app/
├── index.tsx
├── providers/
│   ├── {{.Component}}Provider.tsx
│   └── index.ts
├── router/
│   └── index.tsx
└── styles/
    └── index.css

Focus: {{.Focus}}
`))

	sharedTemplate = template.Must(template.New("shared").Parse(`src/shared/{{.Name}}/
├── index.ts
└── {{.Name}}.ts

// src/shared/{{.Name}}/index.ts
export * as {{.Ident}} from './{{.Name}}';

No business logic and no imports from upper layers.
Focus: {{.Focus}}
`))
)

// SuggestFSDCodeStructure renders a directory layout and public API stub for a
// new slice in the given layer.
func (c *Catalog) SuggestFSDCodeStructure(layer, name string) (string, error) {
	layer = strings.ToLower(strings.TrimSpace(layer))
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.InvalidArgument("slice name is required")
	}
	profile, ok := c.layers[layer]
	if !ok {
		return "", domain.NotFound(fmt.Sprintf("unknown FSD layer %q", layer))
	}

	input := scaffoldInput{
		Layer:     layer,
		Name:      name,
		Component: pascalCase(name),
		Ident:     camelCase(name),
		Focus:     strings.Join(profile.Focus, ", "),
	}

	var tmpl *template.Template
	switch layer {
	case "app":
		tmpl = appTemplate
	case "pages":
		tmpl = pageTemplate
	case "widgets":
		tmpl = widgetTemplate
	case "features", "entities":
		tmpl = sliceTemplate
	case "shared":
		tmpl = sharedTemplate
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, input); err != nil {
		return "", domain.Internal("render scaffold", err)
	}
	return b.String(), nil
}

func pascalCase(value string) string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '/'
	})
	var b strings.Builder
	for _, field := range fields {
		b.WriteString(upperFirst(field))
	}
	return b.String()
}

func camelCase(value string) string {
	pascal := pascalCase(value)
	first, size := utf8.DecodeRuneInString(pascal)
	if size == 0 {
		return pascal
	}
	return string(unicode.ToLower(first)) + pascal[size:]
}

func upperFirst(value string) string {
	first, size := utf8.DecodeRuneInString(value)
	if size == 0 {
		return value
	}
	return string(unicode.ToUpper(first)) + value[size:]
}
