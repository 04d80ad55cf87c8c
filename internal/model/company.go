package model

import "maps"

// Provenance identifies which corpus a master record originates from.
type Provenance string

const (
	ProvenanceHub      Provenance = "hub"
	ProvenanceRegistry Provenance = "registry"
)

// SourceRecord is one row of the curated hub list.
type SourceRecord struct {
	Name     string            `json:"company_name"`
	URL      string            `json:"url,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TargetRecord is one row of the bulk company register extract.
type TargetRecord struct {
	Name               string            `json:"company_name"`
	RegistrationID     string            `json:"registration_id"`
	Status             string            `json:"status"`
	ClassificationCode string            `json:"classification_code"`
	Address            map[string]string `json:"address_fields,omitempty"`
}

// RegistryFields is the registry-side payload carried by a master record.
// It is a copy: master records keep no references into the input corpora.
type RegistryFields struct {
	Name               string            `json:"company_name"`
	RegistrationID     string            `json:"registration_id"`
	Status             string            `json:"status"`
	ClassificationCode string            `json:"classification_code"`
	Address            map[string]string `json:"address_fields,omitempty"`
}

// RegistryFieldsFrom copies the registry-side fields out of t.
func RegistryFieldsFrom(t TargetRecord) *RegistryFields {
	return &RegistryFields{
		Name:               t.Name,
		RegistrationID:     t.RegistrationID,
		Status:             t.Status,
		ClassificationCode: t.ClassificationCode,
		Address:            maps.Clone(t.Address),
	}
}

// MasterRecord is one distinct company in the merged output corpus.
type MasterRecord struct {
	Name     string            `json:"company_name"`
	URL      string            `json:"url,omitempty"`
	Source   Provenance        `json:"source"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Registry *RegistryFields   `json:"registry,omitempty"`

	RegistryValidated bool `json:"registry_validated"`
	HasIdentifyingURL bool `json:"has_identifying_url"`
	ConcernFlag       bool `json:"concern_flag"`

	// Set only for hub records that were accepted against a registry record.
	MatchScore      *float64 `json:"match_score,omitempty"`
	MatchSourceName string   `json:"match_source_name,omitempty"`
}

// Postcode returns the registry postcode, if any.
func (m MasterRecord) Postcode() string {
	if m.Registry == nil {
		return ""
	}
	return m.Registry.Address["postcode"]
}

// RegistryValue returns a registry address field, or "" when absent.
func (m MasterRecord) RegistryValue(key string) string {
	if m.Registry == nil {
		return ""
	}
	return m.Registry.Address[key]
}
