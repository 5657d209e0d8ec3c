package models

// Aircraft is one row of the aircraft registry. The fields are the subset of
// the aircraft-database CSV that model matching needs.
type Aircraft struct {
	ICAO24           string // Primary key - 6 hex digit address, lower case
	Registration     string // Aircraft registration (e.g., D-AIPA), used as livery
	TypeCode         string // ICAO type designator (e.g., A320)
	OperatorICAO     string // Operator ICAO code (e.g., DLH)
	ManufacturerName string // Manufacturer name
	Model            string // Aircraft model
}
