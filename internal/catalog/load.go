package catalog

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/stocklens/stocklens/internal/model"
)

// fileSet is the YAML shape of one strategy's requirement list.
type fileSet struct {
	Requirements []Requirement `yaml:"requirements"`
}

// Load reads a requirements override file and merges it over the
// built-in catalog. A strategy present in the file replaces its default
// set wholesale; absent strategies keep their defaults. An empty path
// returns the defaults.
func Load(path string) (*Catalog, error) {
	cat := Default()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}

	// The YAML has a top-level "strategies" key
	var wrapper struct {
		Strategies map[string]fileSet `yaml:"strategies"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "catalog: parse override")
	}

	for name, fs := range wrapper.Strategies {
		strat, err := model.ParseStrategy(name)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: override")
		}
		for _, r := range fs.Requirements {
			switch r.Tier {
			case TierCritical, TierImportant, TierOptional:
			default:
				return nil, eris.Errorf("catalog: %s field %q has invalid tier %q", name, r.Field, r.Tier)
			}
			if r.Field == "" {
				return nil, eris.Errorf("catalog: %s has requirement with empty field", name)
			}
		}
		cat.sets[strat] = newStrategySet(strat, fs.Requirements)
	}

	return cat, nil
}
