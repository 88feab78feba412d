package city

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// citiesFile is the on-disk shape of an extra-deployments file:
//
//	cities:
//	  - code: denton
//	    display_name: Denton
//	    base_url: https://webapi.legistar.com/v1/denton
//	    token_required: false
type citiesFile struct {
	Cities []Config `yaml:"cities"`
}

// MergeFile loads additional Legistar deployments from a YAML file and
// registers them. Entries sharing a code with a built-in city override
// it; the built-in set is never shrunk.
func (r *Registry) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "city: read cities file %s", path)
	}

	var f citiesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return eris.Wrapf(err, "city: parse cities file %s", path)
	}

	for _, c := range f.Cities {
		if c.Code == "" || c.BaseURL == "" {
			return eris.Errorf("city: entry %+v in %s missing code or base_url", c, path)
		}
		r.register(c)
	}
	return nil
}
