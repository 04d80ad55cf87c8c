package geo

import (
	"math"
	"math/rand/v2"

	"github.com/sells-group/jobboard-cli/internal/model"
)

// Jitter spreads for approximate placements, in degrees.
const (
	centroidSigmaLat = 0.003
	centroidSigmaLon = 0.004
	centreSigmaLat   = 0.006
	centreSigmaLon   = 0.007
)

// DefaultSeed keeps placements stable between builds.
const DefaultSeed = 42

// DefaultCentre is where companies with no usable postcode are scattered.
var DefaultCentre = model.Geocode{Lat: 52.2054, Lon: 0.1132}

// DefaultCentroids are approximate centres of the Cambridge outward codes.
var DefaultCentroids = map[string]model.Geocode{
	"CB1":  {Lat: 52.2020, Lon: 0.1300},
	"CB2":  {Lat: 52.1980, Lon: 0.1200},
	"CB3":  {Lat: 52.2040, Lon: 0.0960},
	"CB4":  {Lat: 52.2280, Lon: 0.1310},
	"CB5":  {Lat: 52.2140, Lon: 0.1870},
	"CB21": {Lat: 52.1020, Lon: 0.2220},
	"CB22": {Lat: 52.1340, Lon: 0.1860},
	"CB23": {Lat: 52.1980, Lon: 0.0460},
	"CB24": {Lat: 52.2880, Lon: 0.1130},
	"CB25": {Lat: 52.2830, Lon: 0.2720},
}

// Placement is where a company is drawn on the map.
type Placement struct {
	Lat    float64
	Lon    float64
	Approx bool
}

// Placer assigns map coordinates to postcodes. Approximate placements draw
// from a seeded generator, so the same inputs in the same order always give
// the same map. A Placer is not safe for concurrent use.
type Placer struct {
	geocodes  map[string]model.Geocode
	centroids map[string]model.Geocode
	centre    model.Geocode
	rng       *rand.Rand
}

// NewPlacer builds a Placer. Nil centroids fall back to DefaultCentroids.
func NewPlacer(geocodes, centroids map[string]model.Geocode, centre model.Geocode, seed uint64) *Placer {
	if centroids == nil {
		centroids = DefaultCentroids
	}
	return &Placer{
		geocodes:  geocodes,
		centroids: centroids,
		centre:    centre,
		rng:       rand.New(rand.NewPCG(seed, 0)),
	}
}

// Place resolves a postcode: an exact geocode when one is known, else the
// jittered centroid of its outward code, else a scatter around the centre.
func (p *Placer) Place(postcode string) Placement {
	pc := NormalizePostcode(postcode)
	if g, ok := p.geocodes[pc]; ok && pc != "" {
		return Placement{Lat: g.Lat, Lon: g.Lon}
	}
	if c, ok := p.centroids[OutwardCode(pc)]; ok {
		return p.jitter(c, centroidSigmaLat, centroidSigmaLon)
	}
	return p.jitter(p.centre, centreSigmaLat, centreSigmaLon)
}

func (p *Placer) jitter(c model.Geocode, sigmaLat, sigmaLon float64) Placement {
	return Placement{
		Lat:    round5(c.Lat + p.rng.NormFloat64()*sigmaLat),
		Lon:    round5(c.Lon + p.rng.NormFloat64()*sigmaLon),
		Approx: true,
	}
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
