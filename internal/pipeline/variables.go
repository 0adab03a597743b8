package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Variable names one attribute field to analyze. Alpha overrides the
// pipeline-wide significance threshold for this variable when set.
type Variable struct {
	Name  string  `yaml:"name"`
	Field string  `yaml:"field"`
	Alpha float64 `yaml:"alpha,omitempty"`
}

// VariablesFile is the on-disk list of analysis variables.
type VariablesFile struct {
	Variables []Variable `yaml:"variables"`
}

// LoadVariables reads a YAML variables file.
func LoadVariables(path string) ([]Variable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read variables file %s", path)
	}
	var vf VariablesFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse variables file %s", path)
	}
	if len(vf.Variables) == 0 {
		return nil, eris.Errorf("pipeline: variables file %s defines no variables", path)
	}
	for i, v := range vf.Variables {
		if v.Field == "" {
			return nil, eris.Errorf("pipeline: variable %d has no field", i)
		}
		if v.Name == "" {
			vf.Variables[i].Name = v.Field
		}
		if v.Alpha < 0 || v.Alpha >= 1 {
			return nil, eris.Errorf("pipeline: variable %q alpha %g outside (0,1)", v.Name, v.Alpha)
		}
	}
	return vf.Variables, nil
}
