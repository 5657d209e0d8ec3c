package csl

import (
	"fmt"
	"io"
	"strings"
)

// Weight categories used by the equipment fallback.
const (
	CategoryLight  = 'L'
	CategoryMedium = 'M'
	CategoryHeavy  = 'H'
)

// AircraftCode is one row of the ICAO aircraft type designator document.
type AircraftCode struct {
	ICAO     string
	Equip    string // e.g. "L2J": description, engine count, engine type
	Category byte   // weight category
}

// EngineCount returns the engine count character, 0 if Equip is short.
func (c AircraftCode) EngineCount() byte {
	if len(c.Equip) < 2 {
		return 0
	}
	return c.Equip[1]
}

// EngineType returns the engine type character, 0 if Equip is short.
func (c AircraftCode) EngineType() byte {
	if len(c.Equip) < 3 {
		return 0
	}
	return c.Equip[2]
}

// CategoryName describes the weight category for logs.
func (c AircraftCode) CategoryName() string {
	switch c.Category {
	case CategoryLight:
		return "light"
	case CategoryMedium:
		return "medium"
	case CategoryHeavy:
		return "heavy"
	default:
		return "other"
	}
}

// AircraftCodes maps ICAO type designators to their equipment data.
type AircraftCodes map[string]AircraftCode

// ParseAircraftCodes reads the tab-separated type designator document. Rows
// with fewer than five fields are ignored; field 2 is the ICAO code, field 3
// the equipment string and the first character of field 4 the weight
// category. Later rows for the same code replace earlier ones.
func ParseAircraftCodes(r io.Reader) (AircraftCodes, error) {
	codes := make(AircraftCodes)
	sc := NewLineScanner(r)
	for sc.Scan() {
		fields := Tokenize(sc.Text(), "\t\r\n", 0)
		if len(fields) < 5 {
			continue
		}
		codes[fields[2]] = AircraftCode{
			ICAO:     fields[2],
			Equip:    fields[3],
			Category: fields[4][0],
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read aircraft codes: %w", err)
	}
	return codes, nil
}

// Groupings maps an ICAO code to the space-joined list of codes declared
// related to it.
type Groupings map[string]string

// ParseGroupings reads the related-types document: whitespace-separated
// rows, ';' starts a comment row, every code in a row shares one group.
func ParseGroupings(r io.Reader) (Groupings, error) {
	groups := make(Groupings)
	sc := NewLineScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, ";") {
			continue
		}
		codes := Tokenize(line, lineSeparators, 0)
		if len(codes) == 0 {
			continue
		}
		group := strings.Join(codes, " ")
		for _, code := range codes {
			groups[code] = group
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read groupings: %w", err)
	}
	return groups, nil
}
