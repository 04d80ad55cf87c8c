package model

// ScrapeStatus describes how far the careers crawl got for a company.
type ScrapeStatus string

const (
	ScrapeStatusCareersFound  ScrapeStatus = "careers_page_found"
	ScrapeStatusHomepageOnly  ScrapeStatus = "homepage_only"
	ScrapeStatusHomepageError ScrapeStatus = "homepage_error"
)

// Role is one open position extracted from a careers page.
type Role struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	Location string `json:"location"`
	URL      string `json:"url"`
}

// CareersResult is the careers-stage outcome for one company.
type CareersResult struct {
	CompanyName    string       `json:"company_name"`
	CompanyURL     string       `json:"company_url"`
	CareersURL     string       `json:"careers_url,omitempty"`
	HasCareersPage bool         `json:"has_careers_page"`
	Roles          []Role       `json:"roles"`
	ContactEmail   string       `json:"contact_email,omitempty"`
	ApplyURL       string       `json:"apply_url,omitempty"`
	Summary        string       `json:"summary,omitempty"`
	ScrapeStatus   ScrapeStatus `json:"scrape_status"`
	Error          string       `json:"error,omitempty"`
}
