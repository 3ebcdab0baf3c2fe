package resolution

import (
	"math"

	"github.com/antzucaro/matchr"
	"github.com/restinspect/platform/pkg/common/models"
)

// Weights blends the per-attribute similarities into one score.
type Weights struct {
	Name    float64 `yaml:"name" json:"name"`
	Address float64 `yaml:"address" json:"address"`
	City    float64 `yaml:"city" json:"city"`
	State   float64 `yaml:"state" json:"state"`
	Zip     float64 `yaml:"zip" json:"zip"`
}

func (w Weights) sum() float64 {
	return w.Name + w.Address + w.City + w.State + w.Zip
}

type Scorer struct {
	weights Weights
}

func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

var defaultScorer = NewScorer(DefaultRules().Weights)

// Similarity scores two restaurants with the default weights.
func Similarity(a, b models.Restaurant) float64 {
	return defaultScorer.Score(a, b)
}

// Score returns a value in [0,1]. Name, address and city are compared with
// Jaro-Winkler; state and zip only count when they are equal.
func (s *Scorer) Score(a, b models.Restaurant) float64 {
	score := s.weights.Name*jaroWinkler(a.Name, b.Name) +
		s.weights.Address*jaroWinkler(a.Address, b.Address) +
		s.weights.City*jaroWinkler(a.City, b.City) +
		s.weights.State*exact(a.State, b.State) +
		s.weights.Zip*exact(a.Zip, b.Zip)

	return math.Max(0, math.Min(1, score))
}

func jaroWinkler(a, b string) float64 {
	return matchr.JaroWinkler(a, b, false)
}

func exact(a, b string) float64 {
	if a == b {
		return 1
	}
	return 0
}
