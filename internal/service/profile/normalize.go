package profile

import "slices"

// Payload is a raw profile submission before normalization. ID is whatever
// the caller sent and is never carried into the stored document.
type Payload struct {
	ID          string
	Name        string
	Description string
	Address     string
	Lat         *float64
	Lng         *float64
	Photo       string
	Contact     string
	Interests   []string
}

// Normalize folds the flat lat/lng pair into a Location and drops the
// client-supplied id. Absent or NaN coordinates pass through unchanged.
func Normalize(p Payload) Document {
	return Document{
		Name:        p.Name,
		Description: p.Description,
		Address:     p.Address,
		Location: Location{
			Lat: p.Lat,
			Lng: p.Lng,
		},
		Photo:     p.Photo,
		Contact:   p.Contact,
		Interests: slices.Clone(p.Interests),
	}
}
