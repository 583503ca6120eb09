package scenario

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"rigctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

// scenarioFile is the on-disk layout of a scenario definition file. A file
// holds either a list under "scenarios" or a single top-level scenario.
type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Loader loads scenario definitions from YAML files.
type Loader struct {
	debug bool
}

// NewLoader creates a scenario loader.
func NewLoader(debug bool) *Loader {
	return &Loader{debug: debug}
}

// LoadScenarios loads all scenarios from a YAML file or from every
// .yaml/.yml file under a directory. Scenario names must be unique across
// the loaded set.
func (l *Loader) LoadScenarios(path string) ([]Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario path %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(p))
			if ext == ".yaml" || ext == ".yml" {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking scenario directory %s: %w", path, err)
		}
	} else {
		files = []string{path}
	}

	var scenarios []Scenario
	seen := make(map[string]string)
	for _, file := range files {
		loaded, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		for _, s := range loaded {
			if other, dup := seen[s.Name]; dup {
				return nil, fmt.Errorf("duplicate scenario name %q in %s (already defined in %s)", s.Name, file, other)
			}
			seen[s.Name] = file
			scenarios = append(scenarios, s)
		}
	}

	logging.Debug("ScenarioLoader", "Loaded %d scenarios from %s", len(scenarios), path)
	return scenarios, nil
}

func (l *Loader) loadFile(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}

	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scenario file %s: %w", path, err)
	}

	scenarios := file.Scenarios
	if len(scenarios) == 0 {
		// Fall back to a single top-level scenario definition.
		var single Scenario
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parsing scenario file %s: %w", path, err)
		}
		if single.Name != "" {
			scenarios = []Scenario{single}
		}
	}

	for i := range scenarios {
		if err := validateScenario(&scenarios[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return scenarios, nil
}

// FilterScenarios narrows scenarios to the configured name and tags.
func (l *Loader) FilterScenarios(scenarios []Scenario, config Config) []Scenario {
	var filtered []Scenario
	for _, s := range scenarios {
		if config.Scenario != "" && s.Name != config.Scenario {
			continue
		}
		if !hasAllTags(s.Tags, config.Tags) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario without a name")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i := range s.Fixtures {
		if s.Fixtures[i].Type == "" {
			return fmt.Errorf("scenario %q: fixture %d has no type", s.Name, i)
		}
	}
	for i := range s.Steps {
		if err := validateStep(&s.Steps[i]); err != nil {
			return fmt.Errorf("scenario %q: step %d: %w", s.Name, i, err)
		}
	}
	for i := range s.Cleanup {
		if err := validateStep(&s.Cleanup[i]); err != nil {
			return fmt.Errorf("scenario %q: cleanup step %d: %w", s.Name, i, err)
		}
	}
	return nil
}

func validateStep(step *Step) error {
	switch step.Action {
	case ActionPublish:
		if step.Component == nil || step.Component.Type == "" {
			return fmt.Errorf("publish step %q needs a component with a type", step.Name)
		}
	case ActionUnpublish:
		if step.Ref == "" {
			return fmt.Errorf("unpublish step %q needs a ref", step.Name)
		}
	case ActionLocate:
		if step.Query == nil || step.Query.Type == "" {
			return fmt.Errorf("locate step %q needs a query with a type", step.Name)
		}
	case ActionConfigure:
		if step.Config == nil || step.Config.ID == "" {
			return fmt.Errorf("configure step %q needs a config with an id", step.Name)
		}
	case ActionSleep:
		if step.Duration <= 0 {
			return fmt.Errorf("sleep step %q needs a positive duration", step.Name)
		}
	case "":
		return fmt.Errorf("step %q has no action", step.Name)
	default:
		return fmt.Errorf("step %q has unknown action %q", step.Name, step.Action)
	}
	return nil
}
