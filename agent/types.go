// Package agent implements the four pipeline collaborators: validation,
// formatting, document drafting, and design drafting. Each agent holds a
// typed JSON contract with its model and parses responses defensively.
package agent

// Definition pairs a data attribute with its business definition.
type Definition struct {
	Attribute  string `json:"attribute"`
	Definition string `json:"definition"`
}

// MappingRow describes one attribute mapping between systems.
type MappingRow struct {
	Attribute   string `json:"attribute"`
	Type        string `json:"type"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// RequirementInput is the raw submission entering the pipeline. It is
// treated as immutable once the workflow starts.
type RequirementInput struct {
	BusinessNeed   string       `json:"business_need"`
	Requirements   string       `json:"requirements"`
	BusinessImpact string       `json:"business_impact"`
	DeliveryDate   string       `json:"delivery_date"`
	CampaignDate   string       `json:"campaign_date"`
	Contributors   []string     `json:"contributors"`
	Definitions    []Definition `json:"definitions,omitempty"`

	// Submission surface coordinates, used for feedback notifications.
	ChannelType string `json:"channel_type,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// ValidationResult is the outcome of the validation stage.
type ValidationResult struct {
	IsValid       bool              `json:"is_valid"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	UnclearFields []string          `json:"unclear_fields,omitempty"`
	Feedback      string            `json:"feedback,omitempty"`
	Examples      map[string]string `json:"examples,omitempty"`
}

// RequirementEntry is one structured requirement inside a formatted PRD.
type RequirementEntry struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	WhoWhatWhereWhenWhy string `json:"who_what_where_when_why"`
}

// Timeline carries the delivery and campaign dates of a PRD.
type Timeline struct {
	DeliveryDate string `json:"delivery_date"`
	CampaignDate string `json:"campaign_date"`
}

// FormattedPRD is the PRD produced by the formatting stage.
type FormattedPRD struct {
	BusinessNeed   string             `json:"business_need"`
	Requirements   []RequirementEntry `json:"requirements"`
	BusinessImpact string             `json:"business_impact"`
	Timeline       Timeline           `json:"timeline"`
	Contributors   []string           `json:"contributors"`
	Definitions    []Definition       `json:"definitions,omitempty"`
	MappingTables  []MappingRow       `json:"mapping_tables,omitempty"`
}

// DocumentContent is the drafted document and ticket content produced by
// the document stage. Artifact creation happens in the integrations layer.
type DocumentContent struct {
	DocumentTitle     string   `json:"document_title"`
	DocumentBody      string   `json:"document_body"`
	TicketSummary     string   `json:"ticket_summary"`
	TicketDescription string   `json:"ticket_description"`
	TicketLabels      []string `json:"ticket_labels,omitempty"`
}

// DesignContent is the drafted technical design produced by the design stage.
type DesignContent struct {
	Overview      string       `json:"overview"`
	MappingTables []MappingRow `json:"mapping_tables,omitempty"`
	Queries       []string     `json:"queries,omitempty"`
	Dependencies  []string     `json:"dependencies,omitempty"`
	Security      []string     `json:"security,omitempty"`
}
