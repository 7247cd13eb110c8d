// Package discover implements the Path Resolver & Kit Discovery (C1):
// turning user-typed path segments `[kit] [cookbook] recipe` into a
// concrete recipe.yml (or group.yml) on disk. The directory walk is
// grounded directly in the teacher's internal/scanner.Scanner: the same
// skip-hidden-entries / Option-pattern shape, retargeted
// from "scan a project for language signals" to "scan search roots for
// kits, cookbooks and recipes".
package discover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
)

// ResolvedType distinguishes a single recipe target from a group of
// sibling recipes (group.yml, C1 step 5).
type ResolvedType string

const (
	ResolvedRecipe ResolvedType = "recipe"
	ResolvedGroup  ResolvedType = "group"
)

// ResolvedPath is the outcome of a successful Resolve call.
type ResolvedPath struct {
	Type      ResolvedType
	FullPath  string
	Consumed  []string
	Remaining []string
}

// NotFoundError reports a failed resolution with the deepest matched
// prefix, so the CLI layer can build "did you mean" suggestions without
// the resolver itself fabricating any.
type NotFoundError struct {
	Segments     []string
	DeepestMatch []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (matched up to %v)", hgerrors.ErrNotFound, strings.Join(e.Segments, " "), e.DeepestMatch)
}
func (e *NotFoundError) Unwrap() error { return hgerrors.ErrNotFound }

// Cookbook is a directory containing one or more recipe directories, each
// holding a recipe.yml.
type Cookbook struct {
	Name    string
	Dir     string
	Recipes []string // recipe directory names
}

// Kit is a directory containing one or more cookbook directories.
type Kit struct {
	Name      string
	Dir       string
	Local     bool // true for locally discovered kits (wins ties over global)
	Cookbooks []Cookbook
}

// resolver holds discovery configuration, built via the Option pattern.
type resolver struct {
	cwd          string
	searchRoots  []string
	ignoreHidden bool
	ignoreNames  map[string]bool
	packages     ports.PackageResolver
}

// Option configures a resolver the way scanner.Option configures the
// teacher's Scanner.
type Option func(*resolver)

// WithSearchRoots adds additional directories to scan for kits, beyond the
// built-in `./.hyper/kits` and `./cookbooks`.
func WithSearchRoots(roots ...string) Option {
	return func(r *resolver) { r.searchRoots = append(r.searchRoots, roots...) }
}

// WithCWD sets the explicit working directory used for direct-path
// resolution and relative search roots; it wins over ambient discovery
// per the tie-break rule in §4.1.
func WithCWD(cwd string) Option {
	return func(r *resolver) { r.cwd = cwd }
}

// WithPackageResolver wires in the fallback lookup for kits that aren't
// vendored locally: a segment shaped like a package name (`@hyper-kits/...`
// or `...-hyper-kit`) that fails the local kit scan is resolved through
// this port before the overall match fails (§4.1 step 2, "globally
// installed packages").
func WithPackageResolver(pr ports.PackageResolver) Option {
	return func(r *resolver) { r.packages = pr }
}

func newResolver(opts ...Option) *resolver {
	r := &resolver{
		cwd:          ".",
		ignoreHidden: true,
		ignoreNames: map[string]bool{
			".git": true, "node_modules": true, "vendor": true, ".hyper": false,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve implements C1's contract.
func Resolve(segments []string, opts ...Option) (*ResolvedPath, error) {
	r := newResolver(opts...)
	if len(segments) == 0 {
		return nil, &NotFoundError{Segments: segments}
	}

	if rp, ok := r.resolveDirectPath(segments); ok {
		return rp, nil
	}

	kits, err := r.discoverKits()
	if err != nil {
		return nil, err
	}
	return r.resolveNamespaced(segments, kits)
}

// resolveDirectPath implements C1 step 1: segments[0] names a filesystem
// path (relative or absolute) to a recipe.yml or a directory containing
// one.
func (r *resolver) resolveDirectPath(segments []string) (*ResolvedPath, bool) {
	candidate := segments[0]
	if !looksLikePath(candidate) {
		return nil, false
	}

	full := candidate
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.cwd, full)
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, false
	}

	if info.IsDir() {
		if path := filepath.Join(full, "group.yml"); fileExists(path) {
			return &ResolvedPath{Type: ResolvedGroup, FullPath: full, Consumed: segments[:1], Remaining: segments[1:]}, true
		}
		if !fileExists(filepath.Join(full, "recipe.yml")) {
			return nil, false
		}
		return &ResolvedPath{Type: ResolvedRecipe, FullPath: full, Consumed: segments[:1], Remaining: segments[1:]}, true
	}

	if filepath.Base(full) == "recipe.yml" {
		return &ResolvedPath{Type: ResolvedRecipe, FullPath: filepath.Dir(full), Consumed: segments[:1], Remaining: segments[1:]}, true
	}
	return nil, false
}

func looksLikePath(s string) bool {
	return strings.ContainsAny(s, "/\\") || s == "." || s == ".."
}

// looksLikePackageName reports whether s follows either naming convention
// §4.1 step 2 documents for globally installed kit packages.
func looksLikePackageName(s string) bool {
	return strings.HasPrefix(s, "@hyper-kits/") || strings.HasSuffix(s, "-hyper-kit")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// resolveNamespaced implements C1 steps 2-5: greedy [kit] [cookbook]
// recipe matching against the discovered kit tree.
func (r *resolver) resolveNamespaced(segments []string, kits []Kit) (*ResolvedPath, error) {
	kit, ok := findKit(kits, segments[0])
	if !ok && r.packages != nil && looksLikePackageName(segments[0]) {
		if dir, found, err := r.packages.LocalPathFor(context.Background(), segments[0]); err == nil && found {
			if cookbooks, cerr := scanCookbooks(dir); cerr == nil && len(cookbooks) > 0 {
				kit, ok = Kit{Name: segments[0], Dir: dir, Cookbooks: cookbooks}, true
			}
		}
	}
	if !ok {
		return nil, &NotFoundError{Segments: segments}
	}
	if len(segments) == 1 {
		return nil, &NotFoundError{Segments: segments, DeepestMatch: segments[:1]}
	}

	cookbook, ok := findCookbook(kit.Cookbooks, segments[1])
	if !ok {
		return nil, &NotFoundError{Segments: segments, DeepestMatch: segments[:1]}
	}
	if len(segments) == 2 {
		return nil, &NotFoundError{Segments: segments, DeepestMatch: segments[:2]}
	}

	recipeName := segments[2]
	recipeDir := filepath.Join(cookbook.Dir, recipeName)
	if !contains(cookbook.Recipes, recipeName) {
		return nil, &NotFoundError{Segments: segments, DeepestMatch: segments[:2]}
	}

	if path := filepath.Join(recipeDir, "group.yml"); fileExists(path) {
		return &ResolvedPath{Type: ResolvedGroup, FullPath: recipeDir, Consumed: segments[:3], Remaining: segments[3:]}, nil
	}
	return &ResolvedPath{Type: ResolvedRecipe, FullPath: recipeDir, Consumed: segments[:3], Remaining: segments[3:]}, nil
}

func findKit(kits []Kit, name string) (Kit, bool) {
	for _, k := range kits {
		if k.Name == name {
			return k, true
		}
	}
	return Kit{}, false
}

func findCookbook(cookbooks []Cookbook, name string) (Cookbook, bool) {
	for _, c := range cookbooks {
		if c.Name == name {
			return c, true
		}
	}
	return Cookbook{}, false
}

func contains(items []string, name string) bool {
	for _, i := range items {
		if i == name {
			return true
		}
	}
	return false
}

// discoverKits walks the built-in roots (./.hyper/kits, ./cookbooks) plus
// any configured search roots. Local kits are appended before global ones
// so findKit's first match wins the "local beats global" tie-break.
func (r *resolver) discoverKits() ([]Kit, error) {
	var all []Kit

	builtinRoots := []string{
		filepath.Join(r.cwd, ".hyper", "kits"),
		filepath.Join(r.cwd, "cookbooks"),
	}
	for _, root := range builtinRoots {
		kits, err := scanKitRoot(root, true)
		if err != nil {
			return nil, err
		}
		all = append(all, kits...)
	}
	for _, root := range r.searchRoots {
		kits, err := scanKitRoot(root, false)
		if err != nil {
			return nil, err
		}
		all = append(all, kits...)
	}

	// Stable sort: two kits sharing a name keep their scan order, so a local
	// kit stays ahead of a same-named one from a configured search root and
	// findKit's first match realizes the local-wins tie-break.
	sort.SliceStable(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// scanKitRoot treats each non-hidden directory entry of root as a kit and
// keeps it only if it holds at least one cookbook with a recipe. The
// `cookbooks` root is scanned exactly like `.hyper/kits`: a recipe is found
// at cookbooks/<kit>/<cookbook>/<recipe>, never one level shallower.
func scanKitRoot(root string, local bool) ([]Kit, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning kit root %s: %w", root, err)
	}

	var kits []Kit
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		kitDir := filepath.Join(root, e.Name())
		cookbooks, err := scanCookbooks(kitDir)
		if err != nil {
			return nil, err
		}
		if len(cookbooks) == 0 {
			continue
		}
		kits = append(kits, Kit{Name: e.Name(), Dir: kitDir, Local: local, Cookbooks: cookbooks})
	}
	return kits, nil
}

func scanCookbooks(kitDir string) ([]Cookbook, error) {
	entries, err := os.ReadDir(kitDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning cookbooks under %s: %w", kitDir, err)
	}

	var cookbooks []Cookbook
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		cookbookDir := filepath.Join(kitDir, e.Name())
		recipes, err := scanRecipes(cookbookDir)
		if err != nil {
			return nil, err
		}
		if len(recipes) == 0 {
			continue
		}
		cookbooks = append(cookbooks, Cookbook{Name: e.Name(), Dir: cookbookDir, Recipes: recipes})
	}
	return cookbooks, nil
}

func scanRecipes(cookbookDir string) ([]string, error) {
	entries, err := os.ReadDir(cookbookDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recipes under %s: %w", cookbookDir, err)
	}

	var recipes []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if fileExists(filepath.Join(cookbookDir, e.Name(), "recipe.yml")) ||
			fileExists(filepath.Join(cookbookDir, e.Name(), "group.yml")) {
			recipes = append(recipes, e.Name())
		}
	}
	return recipes, nil
}

// List returns every discovered kit (and, within it, cookbook and recipe
// name), used by the `hypergen list` CLI command.
func List(opts ...Option) ([]Kit, error) {
	r := newResolver(opts...)
	return r.discoverKits()
}
