package resolution

import (
	"unicode/utf8"

	"github.com/restinspect/platform/pkg/common/models"
)

// Cluster is a set of records judged to be the same restaurant.
type Cluster struct {
	Primary models.Restaurant
	Members []models.Restaurant
	// Renamed is set when the primary's name or address was replaced by a
	// longer value from another member.
	Renamed bool
}

// NewCluster picks the smallest id as primary and gives it the longest name
// and the longest address found among members. Ties keep the first value in
// member order.
func NewCluster(members []models.Restaurant) Cluster {
	if len(members) == 0 {
		return Cluster{}
	}

	primary := members[0]
	longestName := members[0].Name
	longestAddress := members[0].Address
	for _, m := range members[1:] {
		if m.ID < primary.ID {
			primary = m
		}
		if utf8.RuneCountInString(m.Name) > utf8.RuneCountInString(longestName) {
			longestName = m.Name
		}
		if utf8.RuneCountInString(m.Address) > utf8.RuneCountInString(longestAddress) {
			longestAddress = m.Address
		}
	}

	renamed := primary.Name != longestName || primary.Address != longestAddress
	primary.Name = longestName
	primary.Address = longestAddress

	return Cluster{Primary: primary, Members: members, Renamed: renamed}
}

func (c Cluster) MemberIDs() []int64 {
	ids := make([]int64, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.ID)
	}
	return ids
}
