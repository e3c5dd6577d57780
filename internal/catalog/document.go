package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/mod/semver"
)

// SupportedMajor is the catalog document major version this build reads.
const SupportedMajor = "v1"

var (
	ErrInvalidDocument    = errors.New("invalid catalog document")
	ErrUnsupportedVersion = errors.New("unsupported catalog version")
)

// Document is the on-disk and over-the-wire catalog format.
type Document struct {
	Version string    `json:"version"`
	Modules []*Module `json:"modules"`
}

//go:embed seed/catalog.json
var seedCatalog []byte

var defaultRegistry = sync.OnceValues(func() (*StaticRegistry, error) {
	return Decode(seedCatalog)
})

// Default returns the built-in catalog. It panics if the embedded catalog is
// invalid, which would be a build defect.
func Default() *StaticRegistry {
	r, err := defaultRegistry()
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog invalid: %v", err))
	}
	return r
}

// Decode validates a catalog document and builds a registry from it.
func Decode(data []byte) (*StaticRegistry, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return NewStaticRegistry(doc.Modules...)
}

// DecodeDocument validates raw JSON against the catalog schema and checks
// the document version.
func DecodeDocument(data []byte) (*Document, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DecodeModule parses a single module payload as served by the back-end.
func DecodeModule(data []byte) (*Module, error) {
	var m Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	if err := validateModules([]*Module{&m}); err != nil {
		return nil, err
	}
	normalizeModule(&m)
	return &m, nil
}

// LoadFile reads a catalog document from disk.
func LoadFile(path string) (*StaticRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	r, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return r, nil
}

// Encode renders modules as a catalog document at the supported version.
func Encode(modules []*Module) ([]byte, error) {
	doc := Document{Version: SupportedMajor + ".0.0", Modules: modules}
	return json.MarshalIndent(doc, "", "  ")
}

func checkVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: %q is not a semantic version", ErrUnsupportedVersion, v)
	}
	if semver.Major(v) != SupportedMajor {
		return fmt.Errorf("%w: %s (this build reads %s.x)", ErrUnsupportedVersion, v, SupportedMajor)
	}
	return nil
}
