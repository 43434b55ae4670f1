// Package profile bundles a column mapping, a schema and writer defaults
// under a named key, and keeps a process-wide registry of them. Profiles are
// loaded from a JSON definition file at startup and are immutable afterwards.
package profile

import (
	"fmt"

	"github.com/sheetbridge/sheetbridge/internal/tabular"
)

// Profile is one named conversion configuration.
type Profile struct {
	// Key uniquely identifies the profile, e.g. "contacts".
	Key string

	// Label is the display name shown in listings.
	Label string

	// Mappings associates spreadsheet headers with internal field names,
	// in declaration order.
	Mappings []tabular.ColumnMapping

	// Schema declares and validates the internal fields.
	Schema *tabular.Schema

	// Options are the writer defaults for exports and templates generated
	// from this profile.
	Options tabular.WriteOptions
}

// Validate checks the profile for configuration errors beyond what schema
// and reader construction already catch.
func (p *Profile) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("profile has no key")
	}
	if p.Schema == nil {
		return fmt.Errorf("profile %q has no schema", p.Key)
	}
	if len(p.Mappings) == 0 {
		return fmt.Errorf("profile %q has no column mappings", p.Key)
	}
	return nil
}

// Headers returns the external column labels in declaration order, used for
// template downloads.
func (p *Profile) Headers() []string {
	out := make([]string, len(p.Mappings))
	for i, m := range p.Mappings {
		out[i] = m.Header
	}
	return out
}

// FieldOrder returns the internal field names in mapping declaration order.
func (p *Profile) FieldOrder() []string {
	out := make([]string, len(p.Mappings))
	for i, m := range p.Mappings {
		out[i] = m.Field
	}
	return out
}
