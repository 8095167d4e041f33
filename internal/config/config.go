package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// DeploymentConfig holds the six required deployment settings read from the
// JSON config file. It is loaded once per run and never mutated.
type DeploymentConfig struct {
	AgentName string `json:"agent_name"`
	GroupID   string `json:"group_id"`
	Region    string `json:"aws_region"`
	SourceIP  string `json:"ip_address_for_ssh_access"`
	APIKey    string `json:"fivetran_api_key"`
	APISecret string `json:"fivetran_api_secret"`
}

// StackName returns the CloudFormation stack name derived from the agent name.
func (c *DeploymentConfig) StackName() string {
	return "fivetran-agent-" + c.AgentName
}

// NotFoundError indicates the config file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}

// ParseError indicates the config file is not valid JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse config file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FieldMissingError indicates a required field is absent, null, or empty.
type FieldMissingError struct {
	Field string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("required config field %q is missing or empty", e.Field)
}

// Load reads and validates the deployment config at path. Required fields are
// checked in a fixed order; an absent key, a JSON null, an empty string, and a
// whitespace-only string are all treated the same way. Required fields are
// never defaulted.
func Load(fs afero.Fs, path string) (*DeploymentConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg DeploymentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	required := []struct {
		name  string
		value string
	}{
		{"agent_name", cfg.AgentName},
		{"group_id", cfg.GroupID},
		{"aws_region", cfg.Region},
		{"ip_address_for_ssh_access", cfg.SourceIP},
		{"fivetran_api_key", cfg.APIKey},
		{"fivetran_api_secret", cfg.APISecret},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return nil, &FieldMissingError{Field: field.name}
		}
	}

	return &cfg, nil
}
