package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const exampleHeader = "# postboard configuration example\n" +
	"# Copy this file to config.yaml and customize as needed.\n" +
	"# S3 credentials are read from " + EnvS3AccessKeyID + " and " + EnvS3SecretAccessKey + ".\n\n"

// ExampleYAML renders the default configuration as a commented config file.
func ExampleYAML() ([]byte, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("error generating YAML: %w", err)
	}
	return append([]byte(exampleHeader), data...), nil
}
