package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/visaops/caseflow/internal/types"
)

// overlayFile is the YAML shape of a pipeline overlay:
//
//	pipelines:
//	  l1:
//	    - milestone_type: case_opened
//	      label: Case Opened
//	      weight: 10
//	      required: true
//	    ...
type overlayFile struct {
	Pipelines map[string][]Stage `yaml:"pipelines"`
}

// LoadOverlay reads extra or replacement pipelines from a YAML file and
// merges them into the registry. Entries for already-mapped petition
// types replace the built-in table; the default pipeline cannot be
// replaced. The file is optional configuration: callers should only
// invoke this when a path is configured.
func (r *Registry) LoadOverlay(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from config
	if err != nil {
		return fmt.Errorf("read pipeline overlay: %w", err)
	}

	var file overlayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse pipeline overlay: %w", err)
	}

	for name, stages := range file.Pipelines {
		p := &Pipeline{Name: name, Stages: stages}
		if err := p.validate(); err != nil {
			return fmt.Errorf("pipeline overlay: %w", err)
		}
		r.pipelines[types.PetitionType(name)] = p
	}
	return nil
}
