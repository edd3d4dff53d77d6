package workflow

import "time"

// Draft is the in-progress report a worker accumulates before
// submission. It is owned exclusively by one Workflow instance.
type Draft struct {
	// ImageURI is the opaque local handle of the captured photo. It is
	// normalized into an uploadable path before every upload attempt.
	ImageURI string

	// Address is the human-readable location, either reverse-geocoded
	// or typed manually. Latitude/Longitude carry the raw coordinate
	// pair when device location was used.
	Address   string
	Latitude  *float64
	Longitude *float64

	// Summary is the AI-generated description, empty until the fetch
	// started on entering the summary state resolves.
	Summary        string
	SummaryPending bool
	SummaryErr     error

	CreatedAt time.Time
}

// Submittable reports whether the draft satisfies its invariant: an
// image and at least one location representation are both present.
func (d Draft) Submittable() bool {
	return d.ImageURI != "" && d.hasLocation()
}

func (d Draft) hasLocation() bool {
	return d.Address != "" || (d.Latitude != nil && d.Longitude != nil)
}

// LocationText returns the location in the form submitted to the
// backend, preferring the address over raw coordinates.
func (d Draft) LocationText() string {
	if d.Address != "" {
		return d.Address
	}
	if d.Latitude != nil && d.Longitude != nil {
		return coordinateText(*d.Latitude, *d.Longitude)
	}
	return ""
}
