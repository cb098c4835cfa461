// Package plugin defines the per-stage capability interfaces of release
// plugins and the registry that maps configured names to implementations.
package plugin

import (
	"fmt"
	"slices"
)

// Plugin is the identity every release plugin exposes. Stage behavior is
// provided by implementing one or more capability interfaces from types.go.
type Plugin interface {
	// Metadata returns the plugin's metadata (name, version, capabilities).
	Metadata() PluginMetadata
}

// PluginMetadata describes a plugin's identity and capabilities.
type PluginMetadata struct {
	// Name is the unique plugin identifier (e.g., "conventional", "registry").
	Name string

	// Version is the plugin's own semantic version.
	Version string

	// Description provides a human-readable summary of the plugin's purpose.
	Description string

	// Author is the plugin creator or maintainer.
	Author string

	// Capabilities lists optional features this plugin provides.
	Capabilities []PluginCapability
}

// String returns a human-readable representation of the plugin metadata.
func (m PluginMetadata) String() string {
	return fmt.Sprintf("%s@%s", m.Name, m.Version)
}

// Validate checks if the plugin metadata is valid.
func (m PluginMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	return nil
}

// Has reports whether the metadata advertises capability c.
func (m PluginMetadata) Has(c PluginCapability) bool {
	return slices.Contains(m.Capabilities, c)
}

// PluginCapability describes optional features a plugin may provide.
type PluginCapability string

const (
	// CapabilityConcurrent marks a read-only plugin that may run alongside
	// other concurrent plugins of the same stage.
	CapabilityConcurrent PluginCapability = "concurrent"

	// CapabilityNetwork indicates the plugin performs network I/O.
	CapabilityNetwork PluginCapability = "network"
)

// String returns the string representation of the capability.
func (c PluginCapability) String() string {
	return string(c)
}

// Spec names a plugin and its options as written in configuration.
type Spec struct {
	Name    string         `koanf:"name" yaml:"name"`
	Options map[string]any `koanf:"options" yaml:"options,omitempty"`
}

// Instance is a resolved plugin bound to the stage it runs on.
type Instance struct {
	Name   string
	Stage  Stage
	Plugin Plugin
}

// Concurrent reports whether the instance may run concurrently.
func (i Instance) Concurrent() bool {
	return i.Plugin.Metadata().Has(CapabilityConcurrent)
}
