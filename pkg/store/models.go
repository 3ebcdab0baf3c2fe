package store

import (
	"encoding/json"
	"time"

	"github.com/restinspect/platform/pkg/common/models"
	"gorm.io/datatypes"
)

type Restaurant struct {
	ID           int64   `gorm:"primaryKey;column:id;autoIncrement"`
	Name         string  `gorm:"column:name;index;index:idx_ri_restaurants_name_address,priority:1"`
	FacilityType string  `gorm:"column:facility_type"`
	Address      string  `gorm:"column:address;index:idx_ri_restaurants_name_address,priority:2"`
	City         string  `gorm:"column:city"`
	State        string  `gorm:"column:state"`
	Zip          string  `gorm:"column:zip"`
	Latitude     float64 `gorm:"column:latitude;index:idx_ri_restaurants_location,priority:1"`
	Longitude    float64 `gorm:"column:longitude;index:idx_ri_restaurants_location,priority:2"`
	Clean        bool    `gorm:"column:clean;not null;default:false;index"`
}

func (Restaurant) TableName() string {
	return "ri_restaurants"
}

type Inspection struct {
	ID             string    `gorm:"primaryKey;column:id"`
	Risk           string    `gorm:"column:risk"`
	InspectionDate time.Time `gorm:"column:inspection_date"`
	InspectionType string    `gorm:"column:inspection_type"`
	Results        string    `gorm:"column:results"`
	Violations     string    `gorm:"column:violations;type:text"`
	RestaurantID   int64     `gorm:"column:restaurant_id;not null;index"`
}

func (Inspection) TableName() string {
	return "ri_inspections"
}

// Link is one edge of the merge graph. An original id appears in exactly one edge.
type Link struct {
	PrimaryRestID  int64 `gorm:"primaryKey;column:primary_rest_id;autoIncrement:false"`
	OriginalRestID int64 `gorm:"primaryKey;column:original_rest_id;autoIncrement:false;uniqueIndex"`
}

func (Link) TableName() string {
	return "ri_linked"
}

type TweetMatch struct {
	TKey         string `gorm:"primaryKey;column:tkey"`
	RestaurantID int64  `gorm:"primaryKey;column:restaurant_id;autoIncrement:false;index"`
	Match        string `gorm:"column:match"`
}

func (TweetMatch) TableName() string {
	return "ri_tweetmatch"
}

type ResolutionRun struct {
	ID         string            `gorm:"primaryKey;column:id"`
	Mode       string            `gorm:"column:mode"`
	Strategy   string            `gorm:"column:strategy"`
	Status     string            `gorm:"column:status;index"`
	Stats      datatypes.JSONMap `gorm:"column:stats"`
	Error      string            `gorm:"column:error"`
	StartedAt  time.Time         `gorm:"column:started_at"`
	FinishedAt *time.Time        `gorm:"column:finished_at"`
}

func (ResolutionRun) TableName() string {
	return "resolution_runs"
}

func restaurantFromModel(r models.Restaurant) Restaurant {
	return Restaurant{
		ID:           r.ID,
		Name:         r.Name,
		FacilityType: r.FacilityType,
		Address:      r.Address,
		City:         r.City,
		State:        r.State,
		Zip:          r.Zip,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Clean:        r.Resolved,
	}
}

func (r Restaurant) toModel() models.Restaurant {
	return models.Restaurant{
		ID:           r.ID,
		Name:         r.Name,
		FacilityType: r.FacilityType,
		Address:      r.Address,
		City:         r.City,
		State:        r.State,
		Zip:          r.Zip,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Resolved:     r.Clean,
	}
}

func restaurantsToModels(rows []Restaurant) []models.Restaurant {
	out := make([]models.Restaurant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}

func inspectionFromModel(i models.Inspection) Inspection {
	return Inspection{
		ID:             i.ID,
		Risk:           i.Risk,
		InspectionDate: i.Date,
		InspectionType: i.InspectionType,
		Results:        i.Results,
		Violations:     i.Violations,
		RestaurantID:   i.RestaurantID,
	}
}

func (i Inspection) toModel() models.Inspection {
	return models.Inspection{
		ID:             i.ID,
		Risk:           i.Risk,
		Date:           i.InspectionDate,
		InspectionType: i.InspectionType,
		Results:        i.Results,
		Violations:     i.Violations,
		RestaurantID:   i.RestaurantID,
	}
}

func runFromModel(run *models.ResolutionRun) ResolutionRun {
	return ResolutionRun{
		ID:         run.ID,
		Mode:       run.Mode,
		Strategy:   run.Strategy,
		Status:     string(run.Status),
		Stats:      datatypes.JSONMap(run.Stats),
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

func (r ResolutionRun) toModel() *models.ResolutionRun {
	return &models.ResolutionRun{
		ID:         r.ID,
		Mode:       r.Mode,
		Strategy:   r.Strategy,
		Status:     models.RunStatus(r.Status),
		Stats:      statsFromJSON(r.Stats),
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// statsFromJSON turns the json.Number values datatypes.JSONMap scans into
// int64 or float64.
func statsFromJSON(stats datatypes.JSONMap) map[string]interface{} {
	if stats == nil {
		return nil
	}
	out := make(map[string]interface{}, len(stats))
	for k, v := range stats {
		n, ok := v.(json.Number)
		if !ok {
			out[k] = v
			continue
		}
		if i, err := n.Int64(); err == nil {
			out[k] = i
		} else if f, err := n.Float64(); err == nil {
			out[k] = f
		} else {
			out[k] = n.String()
		}
	}
	return out
}
