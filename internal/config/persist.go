package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultUserConfig is the user configuration file read when no path is given.
const DefaultUserConfig = "~/.assetfetch/config.yaml"

// DefaultPath returns the expanded location of DefaultUserConfig.
func DefaultPath() (string, error) {
	return expandHome(DefaultUserConfig)
}

// LoadOptional is Load for a user file that may not exist yet.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	return Load(path)
}

// SetDownloadSource stores name as download_source in the YAML file at path,
// keeping every other key and its comments. The file is created when missing.
func SetDownloadSource(path, name string) error {
	var doc yaml.Node

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return errors.Wrapf(err, "failed to read config file: %s", path)
	default:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return errors.Wrapf(err, "failed to parse config file: %s", path)
		}
	}

	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return errors.Errorf("config file %s is not a mapping", path)
	}

	setMappingValue(root, "download_source", name)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, "failed to encode configuration")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, out, 0o644), "failed to write config file: %s", path)
}

func setMappingValue(mapping *yaml.Node, key, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1].Kind = yaml.ScalarNode
			mapping.Content[i+1].Tag = "!!str"
			mapping.Content[i+1].Value = value
			mapping.Content[i+1].Content = nil
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}
