package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // tweet, tweet-match, resolution
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Restaurant is a facility listing as seen by the resolution engine.
type Restaurant struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	FacilityType string  `json:"facility_type"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Zip          string  `json:"zip"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Resolved     bool    `json:"clean"`
}

type Inspection struct {
	ID             string    `json:"id"`
	Risk           string    `json:"risk"`
	Date           time.Time `json:"inspection_date"`
	InspectionType string    `json:"inspection_type"`
	Results        string    `json:"results"`
	Violations     string    `json:"violations"`
	RestaurantID   int64     `json:"restaurant_id"`
}

type RestaurantWithInspections struct {
	Restaurant
	Inspections []Inspection `json:"inspections"`
}

// LinkEdge records that OriginalID was merged into PrimaryID.
type LinkEdge struct {
	PrimaryID  int64 `json:"primary_rest_id"`
	OriginalID int64 `json:"original_rest_id"`
}

type LinkedRestaurants struct {
	Primary Restaurant   `json:"primary"`
	Linked  []Restaurant `json:"linked"`
	IDs     []int64      `json:"ids"`
}

// Provenance is the signal that attributed a tweet to a restaurant.
type Provenance string

const (
	ProvenanceName Provenance = "name"
	ProvenanceGeo  Provenance = "geo"
	ProvenanceBoth Provenance = "both"
)

type TweetAssociation struct {
	TweetKey     string     `json:"tkey"`
	RestaurantID int64      `json:"restaurant_id,omitempty"`
	Provenance   Provenance `json:"match"`
}

// Tweet is an incoming social post. Key and Text must be present but may be
// empty. Author, Source and CreatedAt are carried through but take no part
// in matching.
type Tweet struct {
	Key       *string    `json:"key" validate:"required"`
	Author    string     `json:"author,omitempty"`
	CreatedAt string     `json:"created_at,omitempty"`
	Source    string     `json:"source,omitempty"`
	Lat       Coordinate `json:"lat"`
	Long      Coordinate `json:"long"`
	Text      *string    `json:"text" validate:"required"`
}

func NewTweet(key, text string) Tweet {
	return Tweet{Key: &key, Text: &text}
}

func (t Tweet) GetKey() string {
	if t.Key == nil {
		return ""
	}
	return *t.Key
}

func (t Tweet) GetText() string {
	if t.Text == nil {
		return ""
	}
	return *t.Text
}

// HasLocation reports whether both coordinates were supplied.
func (t Tweet) HasLocation() bool {
	return t.Lat.Valid && t.Long.Valid
}

type TweetMatchResult struct {
	TweetKey      string             `json:"tkey"`
	RestaurantIDs []int64            `json:"restaurant_ids"`
	Matches       []TweetAssociation `json:"matches"`
}

// Coordinate is an optional degree value. It decodes from a JSON number or a
// numeric string; null, a missing field and "" leave it invalid.
type Coordinate struct {
	Value float64
	Valid bool
}

func NewCoordinate(v float64) Coordinate {
	return Coordinate{Value: v, Valid: true}
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Coordinate{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = Coordinate{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		*c = NewCoordinate(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", string(data), err)
	}
	*c = NewCoordinate(v)
	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// BoundingBox is an inclusive latitude/longitude window.
type BoundingBox struct {
	MinLat  float64
	MaxLat  float64
	MinLong float64
	MaxLong float64
}

func (b BoundingBox) Contains(lat, long float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && long >= b.MinLong && long <= b.MaxLong
}

// Resolution pass summary
type ResolutionSummary struct {
	RunID        string        `json:"run_id"`
	Mode         string        `json:"mode"`
	Strategy     string        `json:"strategy"`
	Processed    int           `json:"processed"`
	Clusters     int           `json:"clusters"`
	Singletons   int           `json:"singletons"`
	LinkEdges    int           `json:"link_edges"`
	Repointed    int           `json:"repointed"`
	Renamed      int           `json:"renamed"`
	Duration     time.Duration `json:"duration"`
	CompletedAt  time.Time     `json:"completed_at"`
	ErrorMessage string        `json:"error,omitempty"`
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// ResolutionRun is the audit record of one resolution pass.
type ResolutionRun struct {
	ID         string                 `json:"id"`
	Mode       string                 `json:"mode"`
	Strategy   string                 `json:"strategy"`
	Status     RunStatus              `json:"status"`
	Stats      map[string]interface{} `json:"stats,omitempty"`
	Error      string                 `json:"error,omitempty"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
}
