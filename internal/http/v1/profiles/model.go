package profiles

import (
	"math"

	"github.com/janisto/profile-directory/internal/platform/timeutil"
	profilesvc "github.com/janisto/profile-directory/internal/service/profile"
)

// Location holds resolved coordinates. It is always present; unresolved
// coordinates are null.
type Location struct {
	Lat *float64 `json:"lat" nullable:"true" doc:"Latitude"  example:"51.5034"`
	Lng *float64 `json:"lng" nullable:"true" doc:"Longitude" example:"-0.1276"`
}

// Profile represents a directory profile response.
type Profile struct {
	ID          string        `json:"id"                doc:"Unique identifier"           example:"0195a1b2-3c4d-7e5f-8a9b-0c1d2e3f4a5b"`
	Name        string        `json:"name"              doc:"Display name"                example:"Ada"`
	Description string        `json:"description"       doc:"Free-text description"       example:"Mathematician"`
	Address     string        `json:"address"           doc:"Address as entered"          example:"10 Downing St, London"`
	Location    Location      `json:"location"          doc:"Coordinates resolved from the address"`
	Photo       string        `json:"photo,omitempty"   doc:"Photo URL"                   example:"http://localhost:8080/uploads/0195a1b2.png"`
	Contact     string        `json:"contact,omitempty" doc:"Contact information"         example:"ada@example.com"`
	Interests   []string      `json:"interests"         doc:"Interest tags"               example:"[\"math\"]"`
	CreatedAt   timeutil.Time `json:"createdAt"         doc:"Creation timestamp"          example:"2024-01-15T10:30:00.000Z"`
	UpdatedAt   timeutil.Time `json:"updatedAt"         doc:"Last update timestamp"       example:"2024-01-15T10:30:00.000Z"`
}

// DeleteResult confirms a deletion.
type DeleteResult struct {
	Message string `json:"message" doc:"Confirmation message" example:"Profile deleted"`
}

func toHTTPProfile(p *profilesvc.Profile) Profile {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return Profile{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Address:     p.Address,
		Location: Location{
			Lat: finite(p.Location.Lat),
			Lng: finite(p.Location.Lng),
		},
		Photo:     p.Photo,
		Contact:   p.Contact,
		Interests: interests,
		CreatedAt: timeutil.Time{Time: p.CreatedAt},
		UpdatedAt: timeutil.Time{Time: p.UpdatedAt},
	}
}

func toHTTPProfiles(list []profilesvc.Profile) []Profile {
	out := make([]Profile, len(list))
	for i := range list {
		out[i] = toHTTPProfile(&list[i])
	}
	return out
}

// finite drops values JSON cannot carry.
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	f := *v
	return &f
}
