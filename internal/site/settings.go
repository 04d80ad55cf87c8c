package site

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/jobboard-cli/internal/geo"
	"github.com/sells-group/jobboard-cli/internal/model"
)

// HubLink is one startup hub credited on the about tab.
type HubLink struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Settings controls presentation and map placement. Every field has a
// default; a settings file only needs the keys it changes.
type Settings struct {
	Title     string                   `yaml:"title"`
	Region    string                   `yaml:"region"`
	HubLinks  []HubLink                `yaml:"hub_links"`
	Centre    model.Geocode            `yaml:"centre"`
	Centroids map[string]model.Geocode `yaml:"centroids"`
	Seed      uint64                   `yaml:"seed"`
}

// DefaultSettings returns the Cambridge job board settings.
func DefaultSettings() Settings {
	return Settings{
		Title:     "Cambridge Tech: Job Board",
		Region:    "Cambridge",
		HubLinks:  defaultHubLinks(),
		Centre:    geo.DefaultCentre,
		Centroids: geo.DefaultCentroids,
		Seed:      geo.DefaultSeed,
	}
}

// LoadSettings reads a YAML settings file over the defaults. An empty path
// returns the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, eris.Wrapf(err, "site: read settings %s", path)
	}

	// Decode into a fresh struct so centroid maps replace rather than merge.
	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return s, eris.Wrapf(err, "site: parse settings %s", path)
	}
	if file.Title != "" {
		s.Title = file.Title
	}
	if file.Region != "" {
		s.Region = file.Region
	}
	if len(file.HubLinks) > 0 {
		s.HubLinks = file.HubLinks
	}
	if file.Centre != (model.Geocode{}) {
		s.Centre = file.Centre
	}
	if len(file.Centroids) > 0 {
		s.Centroids = make(map[string]model.Geocode, len(file.Centroids))
		for code, c := range file.Centroids {
			s.Centroids[geo.NormalizePostcode(code)] = c
		}
	}
	if file.Seed != 0 {
		s.Seed = file.Seed
	}
	return s, nil
}

func defaultHubLinks() []HubLink {
	return []HubLink{
		{"Cambridge Enterprise", "https://www.enterprise.cam.ac.uk/"},
		{"St John's Innovation Centre", "https://www.stjohns.co.uk/"},
		{"Accelerate Cambridge (JBS)", "https://www.jbs.cam.ac.uk/entrepreneurship/programmes/accelerate-cambridge/"},
		{"IdeaSpace", "https://www.ideaspace.cam.ac.uk/"},
		{"Babraham Research Campus", "https://www.babraham.com/"},
		{"Allia Future Business Centre", "https://futurebusinesscentre.co.uk/"},
		{"Eagle Labs Cambridge (Barclays)", "https://labs.uk.barclays/locations/cambridge"},
		{"Cambridge Innovation Capital", "https://www.cic.vc/"},
		{"Cambridge Science Park", "https://www.cambridgesciencepark.co.uk/"},
		{"The Bradfield Centre", "https://www.bradfieldcentre.com/"},
		{"Wellcome Genome Campus", "https://www.wellcomegenomecampus.org/"},
		{"Cambridge Social Ventures (JBS)", "https://www.jbs.cam.ac.uk/centres/social-innovation/cambridge-social-ventures/"},
		{"EPOC", "https://www.epoc.group.cam.ac.uk/"},
		{"IQ Capital", "https://www.iqcapital.vc/"},
		{"Start Codon", "https://startcodon.co/"},
		{"One Nucleus", "https://www.onenucleus.com/"},
		{"Cambridge Cleantech", "https://www.cambridgecleantech.org.uk/"},
		{"Gen2 Cambridge", "https://gentwo.co.uk/life-sciences/"},
		{"Accelerate@Babraham", "https://www.accelerateatbabraham.com/about/"},
		{"Granta Park", "https://www.grantapark.com/"},
		{"Chesterford Research Park", "https://www.chesterfordresearchpark.com/"},
		{"Cambridge Research Park", "https://www.cambridgeresearchpark.co.uk/"},
		{"Melbourn Science Park", "https://www.melbournsciencepark.com/"},
		{"Cambridge Biomedical Campus", "https://cambridge-biomedical.com/"},
	}
}
