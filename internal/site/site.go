// Package site builds the static job board from the pipeline outputs and
// serves it for preview.
package site

import (
	"time"

	"github.com/sells-group/jobboard-cli/internal/geo"
	"github.com/sells-group/jobboard-cli/internal/model"
	"github.com/sells-group/jobboard-cli/internal/scrape"
)

// Output file names under the site directory.
const (
	DataFile    = "site_data.json"
	GeoJSONFile = "companies.geojson"
	IndexFile   = "index.html"
)

const maxDescription = 280

// Company is one row of the board.
type Company struct {
	Name       string       `json:"name"`
	URL        string       `json:"url"`
	Source     string       `json:"source"`
	Hub        string       `json:"hub"`
	Desc       string       `json:"desc"`
	Tags       []string     `json:"tags"`
	Stage      string       `json:"stage"`
	Employees  string       `json:"employees"`
	Hiring     string       `json:"hiring"`
	CH         bool         `json:"ch"`
	Postcode   string       `json:"postcode"`
	SIC        string       `json:"sic"`
	Founded    *int         `json:"founded"`
	CareersURL string       `json:"careers_url"`
	HasCareers bool         `json:"has_careers"`
	Roles      []model.Role `json:"roles"`
	Contact    string       `json:"contact"`
	Tech       string       `json:"tech"`
	Lat        float64      `json:"lat"`
	Lon        float64      `json:"lon"`
	LocApprox  bool         `json:"loc_approx"`
}

// Role is one open position on the jobs tab.
type Role struct {
	Company    string   `json:"company"`
	URL        string   `json:"url"`
	CareersURL string   `json:"careers_url"`
	Tags       []string `json:"tags"`
	Stage      string   `json:"stage"`
	Title      string   `json:"title"`
	Type       string   `json:"type"`
	Location   string   `json:"location"`
}

// Data is everything the board renders.
type Data struct {
	Title       string        `json:"title"`
	LastUpdated string        `json:"last_updated"`
	Companies   []Company     `json:"companies"`
	Roles       []Role        `json:"roles"`
	Sectors     []string      `json:"sectors"`
	Stats       Stats         `json:"stats"`
	HubLinks    []HubLink     `json:"hub_links"`
	Centre      model.Geocode `json:"centre"`
}

// Input gathers the stage outputs the board is built from. Careers and
// enrichment results are keyed by company name, geocodes by postcode.
type Input struct {
	Records     []model.MasterRecord
	Careers     map[string]model.CareersResult
	Enrichments map[string]model.Enrichment
	Geocodes    map[string]model.Geocode
}

// Build combines the inputs into board data, one company per master record
// in corpus order.
func Build(in Input, s Settings, now time.Time) Data {
	placer := geo.NewPlacer(in.Geocodes, s.Centroids, s.Centre, s.Seed)

	d := Data{
		Title:       s.Title,
		LastUpdated: now.Format("2 January 2006"),
		Companies:   make([]Company, 0, len(in.Records)),
		Roles:       []Role{},
		HubLinks:    s.HubLinks,
		Centre:      s.Centre,
	}
	for _, m := range in.Records {
		c := company(m, in.Enrichments[m.Name], in.Careers[m.Name])
		p := placer.Place(c.Postcode)
		c.Lat, c.Lon, c.LocApprox = p.Lat, p.Lon, p.Approx
		d.Companies = append(d.Companies, c)

		for _, r := range c.Roles {
			d.Roles = append(d.Roles, Role{
				Company:    c.Name,
				URL:        c.URL,
				CareersURL: c.CareersURL,
				Tags:       c.Tags,
				Stage:      c.Stage,
				Title:      r.Title,
				Type:       orDefault(r.Type, "unknown"),
				Location:   orDefault(r.Location, s.Region),
			})
		}
	}
	d.Stats = computeStats(d.Companies, len(d.Roles))
	d.Sectors = sectors(d.Companies)
	return d
}

func company(m model.MasterRecord, e model.Enrichment, cr model.CareersResult) Company {
	c := Company{
		Name:       m.Name,
		URL:        m.URL,
		Source:     string(m.Source),
		Hub:        m.Metadata["hub_name"],
		Desc:       scrape.Truncate(e.Description, maxDescription),
		Tags:       e.SectorTags,
		Stage:      orDefault(e.Stage, "unknown"),
		Employees:  orDefault(e.EmployeeEst, "unknown"),
		Hiring:     orDefault(e.HiringStatus, "no_info"),
		CH:         m.RegistryValidated,
		Postcode:   geo.NormalizePostcode(m.Postcode()),
		Founded:    e.FoundedYear,
		CareersURL: cr.CareersURL,
		HasCareers: cr.HasCareersPage,
		Roles:      cr.Roles,
		Contact:    cr.ContactEmail,
		Tech:       e.TechKeywords,
	}
	if c.Employees == "unknown" {
		c.Employees = "?"
	}
	if m.Registry != nil {
		c.SIC = m.Registry.ClassificationCode
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Roles == nil {
		c.Roles = []model.Role{}
	}
	return c
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
