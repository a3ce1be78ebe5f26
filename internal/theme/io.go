package theme

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elderberry/agentops/internal/domain"
)

const exportVersion = 1

type exported struct {
	Version    int    `json:"version"`
	Name       string `json:"name"`
	Appearance string `json:"appearance"`
	Core       Core   `json:"core"`
	ExportedAt string `json:"exported_at,omitempty"`
}

// Export encodes the theme as indented JSON. Derived colours are not part of
// the document; Import rebuilds them from the core.
func Export(t Theme) ([]byte, error) {
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	doc := exported{
		Version:    exportVersion,
		Name:       t.Name,
		Appearance: t.Appearance,
		Core:       t.Core,
		ExportedAt: timeNow().UTC().Format(time.RFC3339),
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode theme: %w", err)
	}
	return append(raw, '\n'), nil
}

func Import(data []byte) (Theme, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Theme{}, domain.InvalidArgument("theme document is empty")
	}

	var doc struct {
		Version    int    `json:"version"`
		Name       string `json:"name"`
		Appearance string `json:"appearance"`
		Core       *Core  `json:"core"`
		ExportedAt string `json:"exported_at"`
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return Theme{}, domain.InvalidArgument(fmt.Sprintf("theme document is not valid JSON: %v", err))
	}
	if doc.Version > exportVersion {
		return Theme{}, domain.InvalidArgument(fmt.Sprintf("theme version %d is newer than supported version %d", doc.Version, exportVersion))
	}
	if doc.Core == nil {
		return Theme{}, domain.InvalidArgument("theme document has no core")
	}

	t := Theme{Name: doc.Name, Appearance: doc.Appearance, Core: *doc.Core}.Normalize()
	if err := t.Validate(); err != nil {
		return Theme{}, err
	}
	return t, nil
}

var timeNow = time.Now
