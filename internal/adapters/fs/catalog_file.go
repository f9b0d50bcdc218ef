package fs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bft-labs/specialists/internal/domain"
)

// catalogFile is the YAML layout:
//
//	categories:
//	  technical: [security, devops]
//	  creative: [writing]
type catalogFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML catalog data. Empty categories and duplicate
// subtypes are rejected.
func ParseCatalog(data []byte) (domain.Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if len(cf.Categories) == 0 {
		return nil, fmt.Errorf("%w: catalog has no categories", domain.ErrInvalidConfig)
	}

	cat := make(domain.Catalog, len(cf.Categories))
	for name, subs := range cf.Categories {
		if name == "" || len(subs) == 0 {
			return nil, fmt.Errorf("%w: category %q has no subtypes", domain.ErrInvalidConfig, name)
		}
		seen := make(map[string]struct{}, len(subs))
		for _, s := range subs {
			if s == "" {
				return nil, fmt.Errorf("%w: empty subtype in %q", domain.ErrInvalidConfig, name)
			}
			if _, dup := seen[s]; dup {
				return nil, fmt.Errorf("%w: duplicate subtype %s/%s", domain.ErrInvalidConfig, name, s)
			}
			seen[s] = struct{}{}
		}
		cat[name] = append([]string(nil), subs...)
	}
	return cat, nil
}

// MarshalCatalog encodes a catalog in the layout LoadCatalog reads.
func MarshalCatalog(c domain.Catalog) ([]byte, error) {
	return yaml.Marshal(catalogFile{Categories: c})
}
