package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"runtime"

	validator "github.com/go-playground/validator/v10"
	"github.com/rupor-github/gencfg"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"isolint/common"
	"isolint/lint"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// RuleConfig selects a rule. Options are kept as a raw YAML node and
	// decoded by the rule itself, so unknown option keys are not an error.
	RuleConfig struct {
		// Enabled defaults to true for rules listed in configuration.
		Enabled *bool     `yaml:"enabled,omitempty"`
		Options yaml.Node `yaml:"options,omitempty"`
	}

	LintConfig struct {
		Format        common.ReportFormat   `yaml:"format"`
		Workers       int                   `yaml:"workers" validate:"gte=0"`
		Extensions    []string              `yaml:"extensions" validate:"min=1,dive,required,startswith=."`
		ParentDisplay map[string]string     `yaml:"parent_display"`
		Rules         map[string]RuleConfig `yaml:"rules"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Lint      LintConfig     `yaml:"lint"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// IsEnabled reports whether rule should be constructed.
func (rc RuleConfig) IsEnabled() bool {
	return rc.Enabled == nil || *rc.Enabled
}

// Decode fills rule options structure from configuration, leaving absent
// fields untouched.
func (rc RuleConfig) Decode(into any) error {
	if rc.Options.Kind == 0 {
		return nil
	}
	return rc.Options.Decode(into)
}

// RuleSettings converts rules configuration for lint.NewLinter.
func (conf *LintConfig) RuleSettings() map[string]lint.RuleSettings {
	settings := make(map[string]lint.RuleSettings, len(conf.Rules))
	for id, rc := range conf.Rules {
		settings[id] = lint.RuleSettings{Enabled: rc.IsEnabled(), Decode: rc.Decode}
	}
	return settings
}

// WorkersCount returns effective number of concurrent lint workers.
func (conf *LintConfig) WorkersCount() int {
	if conf.Workers > 0 {
		return conf.Workers
	}
	return runtime.NumCPU()
}

// SetRuleOption overwrites single option of a rule, creating rule entry when necessary.
func (conf *LintConfig) SetRuleOption(id, key string, value any) error {
	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("unable to encode option %s for %s: %w", key, id, err)
	}

	if conf.Rules == nil {
		conf.Rules = make(map[string]RuleConfig)
	}
	rc := conf.Rules[id]
	if rc.Options.Kind != yaml.MappingNode {
		rc.Options = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	for i := 0; i+1 < len(rc.Options.Content); i += 2 {
		if rc.Options.Content[i].Value == key {
			rc.Options.Content[i+1] = &node
			conf.Rules[id] = rc
			return nil
		}
	}
	rc.Options.Content = append(rc.Options.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &node)
	conf.Rules[id] = rc
	return nil
}

// validateLint makes sure every configured rule exists and can be built with
// its options, so problems surface when configuration is loaded.
func validateLint(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	for id := range cfg.Lint.Rules {
		if !lint.Known(id) {
			sl.ReportError(cfg.Lint.Rules, "Rules", "Rules", "known_rule", id)
		}
	}
	if _, err := lint.NewLinter(cfg.Lint.RuleSettings(), zap.NewNop()); err != nil {
		for _, e := range multierr.Errors(err) {
			sl.ReportError(cfg.Lint.Rules, "Rules", "Rules", "rule_options", e.Error())
		}
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(validateLint)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation. Rule entries from the file replace
// default entries with the same id as a whole.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
