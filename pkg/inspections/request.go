package inspections

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/common/validation"
)

// DateLayout is the MM/DD/YYYY format inspection dates arrive in.
const DateLayout = "01/02/2006"

// LoadRequest is the flat body of POST /inspections. Every attribute must be
// present; empty strings are accepted.
type LoadRequest struct {
	Name         *string  `json:"name" validate:"required"`
	FacilityType *string  `json:"facility_type" validate:"required"`
	Address      *string  `json:"address" validate:"required"`
	City         *string  `json:"city" validate:"required"`
	State        *string  `json:"state" validate:"required"`
	Zip          *string  `json:"zip" validate:"required"`
	Latitude     *float64 `json:"latitude" validate:"required"`
	Longitude    *float64 `json:"longitude" validate:"required"`

	InspectionID   *InspectionID `json:"inspection_id" validate:"required"`
	Risk           *string       `json:"risk" validate:"required"`
	Date           *string       `json:"date" validate:"required"`
	InspectionType *string       `json:"inspection_type" validate:"required"`
	Results        *string       `json:"results" validate:"required"`
	Violations     *string       `json:"violations" validate:"required"`
}

// InspectionID decodes from a JSON string or number.
type InspectionID string

func (id *InspectionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = InspectionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid inspection id %s", string(data))
	}
	*id = InspectionID(n.String())
	return nil
}

// ToModels validates the request and splits it into its restaurant and
// inspection halves.
func (r LoadRequest) ToModels() (models.Restaurant, models.Inspection, error) {
	if err := validation.Struct(r); err != nil {
		return models.Restaurant{}, models.Inspection{}, err
	}

	id := strings.TrimSpace(string(*r.InspectionID))
	if id == "" {
		return models.Restaurant{}, models.Inspection{}, validation.New("inspection_id must not be empty")
	}
	date, err := time.Parse(DateLayout, strings.TrimSpace(*r.Date))
	if err != nil {
		return models.Restaurant{}, models.Inspection{}, validation.New("date %q is not MM/DD/YYYY", *r.Date)
	}

	rest := models.Restaurant{
		Name:         *r.Name,
		FacilityType: *r.FacilityType,
		Address:      *r.Address,
		City:         *r.City,
		State:        *r.State,
		Zip:          *r.Zip,
		Latitude:     *r.Latitude,
		Longitude:    *r.Longitude,
	}
	insp := models.Inspection{
		ID:             id,
		Risk:           *r.Risk,
		Date:           date,
		InspectionType: *r.InspectionType,
		Results:        *r.Results,
		Violations:     *r.Violations,
	}
	return rest, insp, nil
}
