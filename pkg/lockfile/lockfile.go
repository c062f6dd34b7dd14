package lockfile

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/lockrisk/pkg/errors"
)

const (
	// RootKey is the installation path of the project itself.
	RootKey = ""

	// InstallPrefix is prepended to a dependency name to find its entry.
	InstallPrefix = "node_modules/"
)

// Entry is one package record from the "packages" section.
type Entry struct {
	Path    string
	Version string

	// Dependencies and DevDependencies hold declared names in file order.
	Dependencies    []string
	DevDependencies []string
}

// Lockfile is the decoded form of a package-lock.json.
type Lockfile struct {
	Name            string
	Version         string
	LockfileVersion int
	Packages        map[string]*Entry
}

// Root returns the project entry.
func (lf *Lockfile) Root() *Entry { return lf.Packages[RootKey] }

// Load reads and parses the lockfile at path.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "lockfile %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Read parses a lockfile from r. It does not close r.
func Read(r io.Reader) (*Lockfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read lockfile: %w", err)
	}
	return Parse(data)
}

// Parse decodes lockfile JSON. The "packages" key must be an object that
// contains the root entry, and every entry must be an object.
func Parse(data []byte) (*Lockfile, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.ErrCodeInvalidLockfile, "lockfile is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.New(errors.ErrCodeInvalidLockfile, "lockfile must be a JSON object")
	}

	lf := &Lockfile{Packages: make(map[string]*Entry)}
	var packages gjson.Result
	var parseErr error
	doc.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "name":
			lf.Name = value.String()
		case "version":
			lf.Version = value.String()
		case "lockfileVersion":
			lf.LockfileVersion = int(value.Int())
		case "packages":
			packages = value
		}
		return true
	})

	if !packages.Exists() {
		return nil, errors.New(errors.ErrCodeInvalidLockfile, "missing %q key (lockfileVersion %d)", "packages", lf.LockfileVersion)
	}
	if !packages.IsObject() {
		return nil, errors.New(errors.ErrCodeInvalidLockfile, "%q must be an object", "packages")
	}

	packages.ForEach(func(key, value gjson.Result) bool {
		entry, err := parseEntry(key.String(), value)
		if err != nil {
			parseErr = err
			return false
		}
		lf.Packages[entry.Path] = entry
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	if _, ok := lf.Packages[RootKey]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidLockfile, "missing root package entry %q", RootKey)
	}
	return lf, nil
}

func parseEntry(path string, value gjson.Result) (*Entry, error) {
	if !value.IsObject() {
		return nil, errors.New(errors.ErrCodeInvalidLockfile, "package %q: entry must be an object", path)
	}
	entry := &Entry{Path: path}

	if v := value.Get("version"); v.Exists() {
		if v.Type != gjson.String {
			return nil, errors.New(errors.ErrCodeInvalidLockfile, "package %q: version must be a string", path)
		}
		entry.Version = v.String()
	}

	var err error
	if entry.Dependencies, err = declaredNames(path, "dependencies", value.Get("dependencies")); err != nil {
		return nil, err
	}
	if entry.DevDependencies, err = declaredNames(path, "devDependencies", value.Get("devDependencies")); err != nil {
		return nil, err
	}
	return entry, nil
}

// declaredNames returns the keys of a dependency object in file order,
// dropping repeated keys.
func declaredNames(path, field string, deps gjson.Result) ([]string, error) {
	if !deps.Exists() || deps.Type == gjson.Null {
		return nil, nil
	}
	if !deps.IsObject() {
		return nil, errors.New(errors.ErrCodeInvalidLockfile, "package %q: %s must be an object", path, field)
	}
	var names []string
	seen := make(map[string]bool)
	deps.ForEach(func(key, _ gjson.Result) bool {
		name := key.String()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return true
	})
	return names, nil
}

// PackageName derives a package name from its installation path by
// removing every "node_modules/" segment, so "node_modules/@types/node"
// becomes "@types/node".
func PackageName(path string) string {
	return strings.ReplaceAll(path, InstallPrefix, "")
}
