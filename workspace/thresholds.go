package workspace

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/labelkit/go-labelkit/postprocess"
)

// ConfigFileName is the workspace configuration file holding the
// suppression thresholds.
const ConfigFileName = "labelkit.yaml"

// configFile is the on-disk shape of labelkit.yaml.
type configFile struct {
	Thresholds postprocess.Thresholds `yaml:"thresholds"`
}

// LoadThresholds reads the threshold configuration, returning the
// defaults when the file does not exist yet.
func LoadThresholds(path string) (postprocess.Thresholds, error) {

	buf, err := os.ReadFile(path)

	if errors.Is(err, os.ErrNotExist) {
		return postprocess.DefaultThresholds(), nil
	}

	if err != nil {
		return postprocess.Thresholds{}, fmt.Errorf("error reading config: %w", err)
	}

	var cfg configFile

	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return postprocess.Thresholds{}, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Thresholds.Default == (postprocess.ClassThreshold{}) {
		cfg.Thresholds.Default = postprocess.DefaultThresholds().Default
	}

	return cfg.Thresholds, nil
}

// SaveThresholds writes the threshold configuration.
func SaveThresholds(path string, th postprocess.Thresholds) error {

	buf, err := yaml.Marshal(configFile{Thresholds: th})

	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	return nil
}
