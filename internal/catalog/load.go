package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

// document is the on-disk catalog layout shared by YAML and CUE files:
//
//	identifier: SEQN
//	cycles:
//	  "2015-2016":
//	    DIQ_I.XPT: [DIQ010, DIQ050]
type document struct {
	Identifier string                         `yaml:"identifier" json:"identifier,omitempty"`
	Cycles     map[string]map[string][]string `yaml:"cycles" json:"cycles"`
}

// Builtin returns the catalog embedded in the binary.
func Builtin() (*Catalog, error) {
	c, err := ParseYAML(builtinYAML)
	if err != nil {
		return nil, fmt.Errorf("builtin catalog: %w", err)
	}
	return c, nil
}

// Load reads a catalog file. The format follows the extension:
// .yaml, .yml and .json are read as YAML, .cue is evaluated as CUE.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c *Catalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		c, err = ParseYAML(data)
	case ".cue":
		c, err = ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("catalog %s: unsupported extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseYAML builds a catalog from YAML (or JSON) text.
func ParseYAML(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return New(doc.Identifier, doc.Cycles)
}

// ParseCUE evaluates CUE source and builds a catalog from the resulting
// value. The value must be concrete.
func ParseCUE(data []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile cue: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate cue: %w", err)
	}

	var doc document
	if err := value.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode cue: %w", err)
	}
	return New(doc.Identifier, doc.Cycles)
}
