package model

// Capability identifies a class of work an LLM endpoint is suited for.
// Workflow roles resolve to capabilities, and capabilities resolve to an
// ordered list of concrete endpoints.
type Capability string

const (
	// CapabilityPlanning handles architecture and design reasoning.
	CapabilityPlanning Capability = "planning"
	// CapabilityWriting handles document drafting and formatting.
	CapabilityWriting Capability = "writing"
	// CapabilityFast handles quick structured checks where latency matters
	// more than depth.
	CapabilityFast Capability = "fast"
)

// AllCapabilities returns every known capability.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityPlanning,
		CapabilityWriting,
		CapabilityFast,
	}
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	switch c {
	case CapabilityPlanning, CapabilityWriting, CapabilityFast:
		return true
	}
	return false
}

// Role is a named position in the requirements pipeline. Each role maps to
// a capability through the registry so deployments can retune models
// without touching pipeline code.
type Role string

const (
	RoleValidator      Role = "requirement-validator"
	RoleFormatter      Role = "prd-formatter"
	RoleDocumentWriter Role = "document-writer"
	RoleDesignWriter   Role = "design-writer"
)

// DefaultRoleCapabilities maps each pipeline role to the capability it
// uses by default.
func DefaultRoleCapabilities() map[Role]Capability {
	return map[Role]Capability{
		RoleValidator:      CapabilityFast,
		RoleFormatter:      CapabilityWriting,
		RoleDocumentWriter: CapabilityWriting,
		RoleDesignWriter:   CapabilityPlanning,
	}
}
