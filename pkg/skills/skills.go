// Package skills discovers skill packages in the repository corpus. A skill
// package is an immediate, non-hidden subdirectory of the corpus root that is
// expected to carry a SKILL.md document with a metadata block and markdown
// instructions.
package skills

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DocumentFileName is the fixed name of the skill document within a package.
const DocumentFileName = "SKILL.md"

// DefaultRoot is the corpus directory scanned when no override is configured.
const DefaultRoot = "skills"

// Package identifies one discovered skill package. Discovery records only
// identity and location; document contents are read lazily so that listing
// and name lookup never touch package files.
type Package struct {
	Name    string // Directory name, unique within the corpus
	Dir     string // Full path to the package directory
	DocPath string // Full path to the package's SKILL.md
}

// ReadDocument returns the raw contents of the package's skill document.
func (p Package) ReadDocument() (string, error) {
	content, err := os.ReadFile(p.DocPath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read skill document for '%s'", p.Name)
	}
	return string(content), nil
}

// Discovery scans a corpus root for skill packages
type Discovery struct {
	root string
}

// Option is a function that configures a Discovery
type Option func(*Discovery)

// WithRoot sets a custom corpus root directory
func WithRoot(dir string) Option {
	return func(d *Discovery) {
		if dir != "" {
			d.root = dir
		}
	}
}

// NewDiscovery creates a new skill package discovery instance
func NewDiscovery(opts ...Option) *Discovery {
	d := &Discovery{root: DefaultRoot}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Root returns the corpus directory this discovery scans.
func (d *Discovery) Root() string {
	return d.root
}

// Packages returns every skill package under the corpus root, keyed by
// directory name and sorted lexicographically. Hidden directories and plain
// files are ignored.
func (d *Discovery) Packages() ([]Package, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skills directory '%s'", d.root)
	}

	var packages []Package
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		dir := filepath.Join(d.root, entry.Name())
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}

		packages = append(packages, Package{
			Name:    entry.Name(),
			Dir:     dir,
			DocPath: filepath.Join(dir, DocumentFileName),
		})
	}

	sort.Slice(packages, func(i, j int) bool {
		return packages[i].Name < packages[j].Name
	})

	return packages, nil
}

// Lookup returns the package with the given name, if discovered.
func Lookup(packages []Package, name string) (Package, bool) {
	for _, pkg := range packages {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return Package{}, false
}

// Names returns the package names in discovery order.
func Names(packages []Package) []string {
	names := make([]string, 0, len(packages))
	for _, pkg := range packages {
		names = append(names, pkg.Name)
	}
	return names
}
