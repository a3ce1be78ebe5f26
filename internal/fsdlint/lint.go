// Package fsdlint checks a Feature-Sliced Design source tree against the
// catalog's layer rules.
package fsdlint

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elderberry/agentops/internal/mcpconfig"
)

const (
	KindLayer      = "layer-dependency"
	KindCrossSlice = "cross-slice"
	KindDeepImport = "deep-import"
)

// AliasPrefix is the module alias that maps to <root>/src.
const AliasPrefix = "@/"

var slicedLayers = map[string]bool{"pages": true, "widgets": true, "features": true, "entities": true}

var sourceExtensions = map[string]bool{".ts": true, ".tsx": true, ".js": true, ".jsx": true}

var skippedDirs = map[string]bool{"node_modules": true, "dist": true, "build": true, ".git": true, "coverage": true}

var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*(?:import|export)\s[^'"]*?\bfrom\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?m)^\s*import\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`\bimport\(\s*['"]([^'"]+)['"]\s*\)`),
	regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`),
}

type Violation struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Specifier string `json:"specifier"`
	FromLayer string `json:"from_layer"`
	ToLayer   string `json:"to_layer"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

type Report struct {
	Root         string      `json:"root"`
	FilesScanned int         `json:"files_scanned"`
	Imports      int         `json:"imports"`
	Violations   []Violation `json:"violations"`
}

func (r Report) OK() bool { return len(r.Violations) == 0 }

type Options struct {
	// Only restricts the scan to these paths (relative to root). Empty scans
	// everything under src.
	Only        []string
	Concurrency int
	Logger      *zap.Logger
}

// Lint scans <root>/src. Files are parsed concurrently; the report is sorted
// by file and line.
func Lint(ctx context.Context, catalog *mcpconfig.Catalog, root string, opts Options) (Report, error) {
	srcDir := filepath.Join(root, "src")
	info, err := os.Stat(srcDir)
	if err != nil {
		return Report{}, fmt.Errorf("stat %s: %w", srcDir, err)
	}
	if !info.IsDir() {
		return Report{}, fmt.Errorf("%s is not a directory", srcDir)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	files, err := collectFiles(root, srcDir, opts.Only)
	if err != nil {
		return Report{}, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 8
	}
	report := Report{Root: root, FilesScanned: len(files), Violations: []Violation{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			imports := parseImports(string(raw))
			found := checkFile(catalog, rel, imports)

			mu.Lock()
			report.Imports += len(imports)
			report.Violations = append(report.Violations, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	slices.SortFunc(report.Violations, func(a, b Violation) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		return a.Line - b.Line
	})
	log.Debug("fsd lint finished",
		zap.String("root", root),
		zap.Int("files", report.FilesScanned),
		zap.Int("violations", len(report.Violations)),
	)
	return report, nil
}

// collectFiles returns slash-separated paths relative to srcDir.
func collectFiles(root, srcDir string, only []string) ([]string, error) {
	var filter map[string]bool
	if len(only) > 0 {
		filter = map[string]bool{}
		for _, p := range only {
			rel := filepath.ToSlash(filepath.Clean(p))
			filter[strings.TrimPrefix(rel, "src/")] = true
		}
	}

	files := []string{}
	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExtensions[filepath.Ext(p)] || strings.HasSuffix(p, ".d.ts") {
			return nil
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if filter != nil && !filter[rel] {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

type importRef struct {
	Specifier string
	Line      int
}

func parseImports(source string) []importRef {
	seen := map[int]bool{}
	refs := []importRef{}
	for _, pattern := range importPatterns {
		for _, match := range pattern.FindAllStringSubmatchIndex(source, -1) {
			start := match[2]
			if seen[start] {
				continue
			}
			seen[start] = true
			refs = append(refs, importRef{
				Specifier: source[match[2]:match[3]],
				Line:      strings.Count(source[:start], "\n") + 1,
			})
		}
	}
	slices.SortFunc(refs, func(a, b importRef) int { return a.Line - b.Line })
	return refs
}

// location is a path under src split into layer, slice and the rest.
type location struct {
	Layer string
	Slice string
	Rest  []string
}

func locate(rel string) (location, bool) {
	parts := strings.Split(strings.Trim(rel, "/"), "/")
	if len(parts) == 0 || !slices.Contains(mcpconfig.LayerOrder, parts[0]) {
		return location{}, false
	}
	loc := location{Layer: parts[0]}
	parts = parts[1:]
	if slicedLayers[loc.Layer] && len(parts) > 0 {
		loc.Slice = stripExt(parts[0])
		parts = parts[1:]
	}
	loc.Rest = parts
	return loc, true
}

// resolve maps a specifier to a path under src. External packages resolve
// to false.
func resolve(fromRel, specifier string) (string, bool) {
	switch {
	case strings.HasPrefix(specifier, AliasPrefix):
		return path.Clean(strings.TrimPrefix(specifier, AliasPrefix)), true
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"):
		joined := path.Clean(path.Join(path.Dir(fromRel), specifier))
		if joined == ".." || strings.HasPrefix(joined, "../") {
			return "", false
		}
		return joined, true
	default:
		return "", false
	}
}

func checkFile(catalog *mcpconfig.Catalog, rel string, imports []importRef) []Violation {
	from, ok := locate(rel)
	if !ok {
		return nil
	}

	var out []Violation
	for _, ref := range imports {
		target, ok := resolve(rel, ref.Specifier)
		if !ok {
			continue
		}
		to, ok := locate(target)
		if !ok {
			continue
		}
		violation := Violation{
			File:      "src/" + rel,
			Line:      ref.Line,
			Specifier: ref.Specifier,
			FromLayer: from.Layer,
			ToLayer:   to.Layer,
		}

		sameSlice := from.Layer == to.Layer && from.Slice == to.Slice
		if sameSlice {
			continue
		}

		if from.Layer == to.Layer && slicedLayers[from.Layer] {
			violation.Kind = KindCrossSlice
			violation.Message = fmt.Sprintf("slice %s/%s imports sibling slice %s/%s", from.Layer, from.Slice, to.Layer, to.Slice)
			out = append(out, violation)
			continue
		}

		check, err := catalog.ValidateFSDDependency(from.Layer, to.Layer)
		if err == nil && !check.Valid {
			violation.Kind = KindLayer
			violation.Message = check.Reason
			out = append(out, violation)
			continue
		}

		if slicedLayers[to.Layer] && isDeep(to.Rest) {
			violation.Kind = KindDeepImport
			violation.Message = fmt.Sprintf("import %s/%s through its public API (index) instead of %s", to.Layer, to.Slice, ref.Specifier)
			out = append(out, violation)
		}
	}
	return out
}

func isDeep(rest []string) bool {
	if len(rest) == 0 {
		return false
	}
	return !(len(rest) == 1 && stripExt(rest[0]) == "index")
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
