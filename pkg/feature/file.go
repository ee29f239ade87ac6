package feature

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type flagDocument struct {
	Flags []*Flag `yaml:"flags"`
}

// LoadFile reads declarative flag definitions from a YAML document. Every
// flag is validated; the first invalid definition aborts the load. Use the
// result to seed a store at startup for config-as-code deployments:
//
//	flags:
//	  - name: new-checkout
//	    status: active
//	    environments: [staging, production]
//	    rollout:
//	      strategy: percentage
//	      percentage: 25
func LoadFile(path string) ([]*Flag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidFlag, err)
	}
	return ParseFlags(data)
}

// ParseFlags decodes and validates YAML flag definitions.
func ParseFlags(data []byte) ([]*Flag, error) {
	var doc flagDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidFlag, err)
	}
	flags := make([]*Flag, 0, len(doc.Flags))
	for i, flag := range doc.Flags {
		if flag == nil {
			return nil, errors.Join(ErrInvalidFlag, fmt.Errorf("empty flag definition at index %d", i))
		}
		if err := flag.Validate(); err != nil {
			return nil, fmt.Errorf("flag %q: %w", flag.Name, err)
		}
		flags = append(flags, flag)
	}
	return flags, nil
}
