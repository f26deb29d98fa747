package nominatim

// Place is a normalized business record from the geospatial directory.
type Place struct {
	ExternalID string  `json:"external_id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Phone      string  `json:"phone,omitempty"`
	Email      string  `json:"email,omitempty"`
}

// searchResult mirrors the wire format of the Nominatim search endpoint
// (format=jsonv2). Coordinates come back as strings.
type searchResult struct {
	PlaceID     int64             `json:"place_id"`
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	ExtraTags   map[string]string `json:"extratags"`
}
