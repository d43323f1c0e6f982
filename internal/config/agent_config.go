package config

import "github.com/aleister1102/firefoxversions/internal/agent"

// AgentConfig names the agent instance and carries its raw options
type AgentConfig struct {
	Name    string         `json:"name,omitempty" yaml:"name,omitempty" validate:"required"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// NewDefaultAgentConfig creates default agent configuration
func NewDefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Name:    DefaultAgentName,
		Options: agent.DefaultOptions(),
	}
}
