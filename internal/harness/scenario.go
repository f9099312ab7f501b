package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/roach88/qbdsl/internal/querydsl"
)

// Scenario defines one compile scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name" validate:"required,scenarioname"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" validate:"required"`

	// Config is an optional CUE file or directory. Relative paths are
	// resolved against the scenario file. Empty means the built-in
	// configuration.
	Config string `yaml:"config,omitempty"`

	// Tree is the rule tree, kept as a node so child order survives.
	Tree yaml.Node `yaml:"tree" validate:"-"`

	// Expect holds the expected compile outcome.
	Expect Expect `yaml:"expect"`

	// Assertions add targeted checks on the compiled query.
	Assertions []Assertion `yaml:"assertions,omitempty" validate:"dive"`
}

// Expect is the expected compile outcome.
type Expect struct {
	// Absent expects the tree to compile to no query.
	Absent bool `yaml:"absent,omitempty"`

	// Query is matched as a subset of the compiled query: objects may carry
	// extra keys, lists must match element for element.
	Query any `yaml:"query,omitempty"`

	// Warnings are the expected warning codes in order. Nil skips the
	// check; an empty list expects a clean compile.
	Warnings []string `yaml:"warnings" validate:"omitempty,dive,required"`
}

// Assertion is a targeted check on the compile result.
type Assertion struct {
	Type      string         `yaml:"type" validate:"required,oneof=query_contains criterion_count warning hash"`
	Primitive string         `yaml:"primitive,omitempty" validate:"omitempty,primitive"`
	Field     string         `yaml:"field,omitempty"`
	Body      map[string]any `yaml:"body,omitempty"`
	Count     int            `yaml:"count,omitempty" validate:"gte=0"`
	Code      string         `yaml:"code,omitempty"`
	Hash      string         `yaml:"hash,omitempty" validate:"omitempty,len=64,hexadecimal"`
}

// Assertion type constants.
const (
	AssertQueryContains  = "query_contains"
	AssertCriterionCount = "criterion_count"
	AssertWarning        = "warning"
	AssertHash           = "hash"
)

var scenarioValidate *validator.Validate

func init() {
	scenarioValidate = validator.New()
	_ = scenarioValidate.RegisterValidation("primitive", func(fl validator.FieldLevel) bool {
		_, err := querydsl.ParsePrimitive(fl.Field().String())
		return err == nil
	})
	// Names become golden file names.
	_ = scenarioValidate.RegisterValidation("scenarioname", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return !strings.ContainsAny(name, `/\ `) && name != "." && name != ".."
	})
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving a relative config path
// against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) && baseDir != "" {
		scenario.Config = filepath.Join(baseDir, scenario.Config)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file of dir, sorted by file
// name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks struct tags, then the rules tags cannot express.
func validateScenario(s *Scenario) error {
	var result *multierror.Error

	if err := scenarioValidate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			result = multierror.Append(result, fmt.Errorf("%s: failed %q validation", fieldPath(fe), fe.Tag()))
		}
	}

	if s.Tree.Kind == 0 {
		result = multierror.Append(result, errors.New("tree is required"))
	}

	if s.Config != "" {
		if _, err := os.Stat(s.Config); os.IsNotExist(err) {
			result = multierror.Append(result, fmt.Errorf("config not found: %s", s.Config))
		}
	}

	if s.Expect.Absent && s.Expect.Query != nil {
		result = multierror.Append(result, errors.New("expect: absent and query are mutually exclusive"))
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// fieldPath turns "Scenario.Assertions[0].Type" into "assertions[0].type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

// validateAssertion checks the fields each assertion type needs.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertQueryContains:
		if a.Primitive == "" {
			return fmt.Errorf("assertions[%d]: primitive is required for query_contains", index)
		}
	case AssertCriterionCount:
		if a.Primitive == "" {
			return fmt.Errorf("assertions[%d]: primitive is required for criterion_count", index)
		}
	case AssertWarning:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for warning", index)
		}
	case AssertHash:
		if a.Hash == "" {
			return fmt.Errorf("assertions[%d]: hash is required for hash", index)
		}
	}
	return nil
}
