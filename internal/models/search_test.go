package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchRequestValidate(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

	valid := SearchRequest{
		TripType:    TripTypeOneWay,
		Origin:      "DEL",
		Destination: "BOM",
		DepartDate:  "2025-07-01",
		Adults:      1,
		Cabin:       CabinEconomy,
	}

	tests := []struct {
		name    string
		mutate  func(r *SearchRequest)
		wantErr error
	}{
		{
			name:    "valid one way",
			mutate:  func(r *SearchRequest) {},
			wantErr: nil,
		},
		{
			name: "valid round trip",
			mutate: func(r *SearchRequest) {
				r.TripType = TripTypeRoundTrip
				r.ReturnDate = "2025-07-05"
			},
			wantErr: nil,
		},
		{
			name: "same day departure allowed",
			mutate: func(r *SearchRequest) {
				r.DepartDate = "2025-06-10"
			},
			wantErr: nil,
		},
		{
			name: "missing origin",
			mutate: func(r *SearchRequest) {
				r.Origin = ""
			},
			wantErr: ErrMissingRoute,
		},
		{
			name: "same origin and destination",
			mutate: func(r *SearchRequest) {
				r.Destination = "DEL"
			},
			wantErr: ErrSameRoute,
		},
		{
			name: "no adults",
			mutate: func(r *SearchRequest) {
				r.Adults = 0
			},
			wantErr: ErrNoAdults,
		},
		{
			name: "negative children",
			mutate: func(r *SearchRequest) {
				r.Children = -1
			},
			wantErr: ErrNegativeCount,
		},
		{
			name: "infants exceed adults",
			mutate: func(r *SearchRequest) {
				r.Adults = 1
				r.Infants = 2
			},
			wantErr: ErrTooManyInfants,
		},
		{
			name: "malformed date",
			mutate: func(r *SearchRequest) {
				r.DepartDate = "01/07/2025"
			},
			wantErr: ErrInvalidDate,
		},
		{
			name: "departure in the past",
			mutate: func(r *SearchRequest) {
				r.DepartDate = "2025-06-09"
			},
			wantErr: ErrPastDate,
		},
		{
			name: "round trip without return date",
			mutate: func(r *SearchRequest) {
				r.TripType = TripTypeRoundTrip
			},
			wantErr: ErrMissingReturnDate,
		},
		{
			name: "return before departure",
			mutate: func(r *SearchRequest) {
				r.TripType = TripTypeRoundTrip
				r.ReturnDate = "2025-06-30"
			},
			wantErr: ErrReturnBeforeDeparture,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate(now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveFare(t *testing.T) {
	c := Candidate{QuotedFare: 4500}
	assert.Equal(t, 4500.0, c.EffectiveFare())

	c.ConfirmedFare = 4800
	assert.Equal(t, 4800.0, c.EffectiveFare())
}

func TestSortCandidatesStable(t *testing.T) {
	cs := []Candidate{
		{Index: "a", QuotedFare: 5200},
		{Index: "b", QuotedFare: 4100},
		{Index: "c", QuotedFare: 4100},
		{Index: "d", QuotedFare: 3900},
	}

	SortCandidates(cs)

	assert.Equal(t, "d", cs[0].Index)
	// Equal fares keep their incoming order.
	assert.Equal(t, "b", cs[1].Index)
	assert.Equal(t, "c", cs[2].Index)
	assert.Equal(t, "a", cs[3].Index)
}
