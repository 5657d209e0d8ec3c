package models

import "time"

// Assignment records which package plane was chosen to draw a live aircraft.
type Assignment struct {
	ICAO24     string    `json:"icao24"`
	ICAO       string    `json:"icao"` // type designator that was queried
	Airline    string    `json:"airline,omitempty"`
	Livery     string    `json:"livery,omitempty"`
	Package    string    `json:"package"`
	ModelKind  string    `json:"model_kind"`
	ModelPath  string    `json:"model_path"`
	Quality    int       `json:"quality"` // exact pass number, -1 otherwise
	Phase      string    `json:"phase"`   // exact, equipment or default
	AssignedAt time.Time `json:"assigned_at"`
}
