package models

import (
	"errors"
	"sort"
	"time"
)

// DateLayout is the wire format for travel dates.
const DateLayout = "2006-01-02"

type TripType string

const (
	TripTypeOneWay    TripType = "ON"
	TripTypeRoundTrip TripType = "RT"
)

type CabinClass string

const (
	CabinEconomy  CabinClass = "E"
	CabinBusiness CabinClass = "B"
	CabinFirst    CabinClass = "F"
)

// SearchRequest represents an agent's flight search submission
type SearchRequest struct {
	TripType      TripType   `json:"tripType"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	DepartDate    string     `json:"departDate"`
	ReturnDate    string     `json:"returnDate,omitempty"`
	Adults        int        `json:"adults"`
	Children      int        `json:"children"`
	Infants       int        `json:"infants"`
	Cabin         CabinClass `json:"cabin"`
	DirectOnly    bool       `json:"directOnly"`
	StudentFare   bool       `json:"studentFare"`
	NearbyAirport bool       `json:"nearbyAirport"`
}

var (
	ErrMissingRoute          = errors.New("origin and destination are required")
	ErrSameRoute             = errors.New("origin and destination must differ")
	ErrNoAdults              = errors.New("at least one adult passenger is required")
	ErrNegativeCount         = errors.New("passenger counts cannot be negative")
	ErrTooManyInfants        = errors.New("infant count cannot exceed adult count")
	ErrInvalidDate           = errors.New("invalid travel date")
	ErrPastDate              = errors.New("travel date cannot be in the past")
	ErrMissingReturnDate     = errors.New("round trip requires a return date")
	ErrReturnBeforeDeparture = errors.New("return date cannot be before departure date")
)

// Validate checks the request before any upstream call is made.
func (r *SearchRequest) Validate(now time.Time) error {
	if r.Origin == "" || r.Destination == "" {
		return ErrMissingRoute
	}
	if r.Origin == r.Destination {
		return ErrSameRoute
	}
	if r.Children < 0 || r.Infants < 0 {
		return ErrNegativeCount
	}
	if r.Adults < 1 {
		return ErrNoAdults
	}
	if r.Infants > r.Adults {
		return ErrTooManyInfants
	}

	depart, err := time.Parse(DateLayout, r.DepartDate)
	if err != nil {
		return ErrInvalidDate
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if depart.Before(today) {
		return ErrPastDate
	}

	if r.TripType == TripTypeRoundTrip {
		if r.ReturnDate == "" {
			return ErrMissingReturnDate
		}
		ret, err := time.Parse(DateLayout, r.ReturnDate)
		if err != nil {
			return ErrInvalidDate
		}
		if ret.Before(depart) {
			return ErrReturnBeforeDeparture
		}
	}

	return nil
}

// Candidate is one priceable flight option within a search session.
// Immutable once received; selection copies it into the booking session.
type Candidate struct {
	Index         string  `json:"index"`
	Provider      string  `json:"provider,omitempty"`
	Carrier       string  `json:"carrier"`
	FlightNo      string  `json:"flightNo"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	DepartureTime string  `json:"departureTime"`
	ArrivalTime   string  `json:"arrivalTime"`
	Duration      string  `json:"duration,omitempty"`
	Stops         int     `json:"stops"`
	Refundable    bool    `json:"refundable"`
	QuotedFare    float64 `json:"quotedFare"`
	ConfirmedFare float64 `json:"confirmedFare,omitempty"`
}

// EffectiveFare returns the confirmed fare when present, otherwise the quoted fare.
func (c Candidate) EffectiveFare() float64 {
	if c.ConfirmedFare > 0 {
		return c.ConfirmedFare
	}
	return c.QuotedFare
}

// SortCandidates orders candidates ascending by effective fare. The sort is
// stable so batches with equal fares keep the upstream order.
func SortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].EffectiveFare() < cs[j].EffectiveFare()
	})
}
