package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csl_trmnl/internal/matcher"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in      string
		want    matcher.Query
		wantErr bool
	}{
		{in: "A320", want: matcher.Query{ICAO: "A320"}},
		{in: "A320/DLH", want: matcher.Query{ICAO: "A320", Airline: "DLH"}},
		{in: "A320/DLH/D-AIPA", want: matcher.Query{ICAO: "A320", Airline: "DLH", Livery: "D-AIPA"}},
		{in: "A320//D-AIPA", want: matcher.Query{ICAO: "A320", Livery: "D-AIPA"}},
		{in: "", wantErr: true},
		{in: "/DLH", wantErr: true},
		{in: "A320/DLH/D-AIPA/extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseQuery(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
