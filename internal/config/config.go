// Package config reads extraction settings from INI or YAML files and
// sets up logging for the command line tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"

	"github.com/snapcore/go-lingva"
)

// ExtractorConfig holds settings for a single extractor.
type ExtractorConfig struct {
	Keywords   []string `yaml:"keywords"`
	CommentTag string   `yaml:"comment-tag"`
	Domain     string   `yaml:"domain"`
}

type Config struct {
	// Extensions maps file extensions (".html") to extractor names.
	Extensions map[string]string          `yaml:"extensions"`
	Extractors map[string]ExtractorConfig `yaml:"extractors"`
}

// Load reads a configuration file. Files ending in .yaml or .yml are
// read as YAML, anything else as INI.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user supplied config file
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	default:
		cfg, err = ParseINI(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Int("extensions", len(cfg.Extensions)).
		Int("extractors", len(cfg.Extractors)).
		Msg("Loaded configuration")
	return cfg, nil
}

func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const (
	extensionsSection = "extensions"
	extensionPrefix   = "extension:"
	extractorPrefix   = "extractor:"
)

func ParseINI(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	for _, section := range f.Sections() {
		name := section.Name()
		switch {
		case name == extensionsSection:
			for _, key := range section.Keys() {
				cfg.setExtension(key.Name(), key.Value())
			}
		case strings.HasPrefix(name, extensionPrefix):
			plugin := section.Key("plugin").String()
			if plugin == "" {
				return nil, fmt.Errorf("section [%s] has no plugin", name)
			}
			cfg.setExtension(strings.TrimPrefix(name, extensionPrefix), plugin)
		case strings.HasPrefix(name, extractorPrefix):
			if cfg.Extractors == nil {
				cfg.Extractors = make(map[string]ExtractorConfig)
			}
			cfg.Extractors[strings.TrimPrefix(name, extractorPrefix)] = ExtractorConfig{
				Keywords:   strings.Fields(section.Key("keywords").String()),
				CommentTag: section.Key("comment-tag").String(),
				Domain:     section.Key("domain").String(),
			}
		case name == ini.DefaultSection && len(section.Keys()) == 0:
		default:
			log.Warn().Str("section", name).Msg("Ignoring unknown configuration section")
		}
	}
	return cfg, nil
}

func (cfg *Config) setExtension(ext, name string) {
	if cfg.Extensions == nil {
		cfg.Extensions = make(map[string]string)
	}
	cfg.Extensions[ext] = strings.TrimSpace(name)
}

// Apply installs the extension mappings into reg. Mappings and
// extractor sections must name registered extractors.
func (cfg *Config) Apply(reg *lingva.Registry) error {
	exts := make([]string, 0, len(cfg.Extensions))
	for ext := range cfg.Extensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	for _, ext := range exts {
		if err := reg.Map(ext, cfg.Extensions[ext]); err != nil {
			return err
		}
	}
	for name := range cfg.Extractors {
		if _, ok := reg.Extractor(name); !ok {
			return fmt.Errorf("configuration for unknown extractor %q", name)
		}
	}
	return nil
}

// Options returns the options for the named extractor: base, with
// the configured keywords added, and the comment tag and domain filled
// in when base leaves them unset.
func (cfg *Config) Options(name string, base *lingva.Options) *lingva.Options {
	opts := lingva.Options{}
	if base != nil {
		opts = *base
		opts.Keywords = slices.Clone(base.Keywords)
	}
	if cfg == nil {
		return &opts
	}
	ec, ok := cfg.Extractors[name]
	if !ok {
		return &opts
	}
	opts.Keywords = append(opts.Keywords, ec.Keywords...)
	if !opts.CommentTag.Enabled() && ec.CommentTag != "" {
		opts.CommentTag = lingva.TaggedComments(ec.CommentTag)
	}
	if opts.Domain == "" {
		opts.Domain = ec.Domain
	}
	return &opts
}
