package domain

// LocationFix is a single coarse position, produced at most once per process.
type LocationFix struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
}
