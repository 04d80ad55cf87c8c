package model

// Enrichment holds the LLM-generated descriptive metadata for a company.
type Enrichment struct {
	Description  string   `json:"description,omitempty"`
	SectorTags   []string `json:"sector_tags"`
	Stage        string   `json:"stage,omitempty"`
	TechKeywords string   `json:"tech_keywords,omitempty"`
	EmployeeEst  string   `json:"employee_est,omitempty"`
	HiringStatus string   `json:"hiring_status,omitempty"`
	FoundedYear  *int     `json:"founded_year,omitempty"`
	HQCity       string   `json:"hq_city,omitempty"`
	Error        string   `json:"enrich_error,omitempty"`
}

// EnrichedRecord layers an enrichment over a master record without
// mutating it.
type EnrichedRecord struct {
	Master     MasterRecord `json:"master"`
	Enrichment Enrichment   `json:"enrichment"`
}

// Geocode is a resolved postcode location.
type Geocode struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
