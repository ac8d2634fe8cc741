package models

import "time"

// PaxType is the upstream passenger type code
type PaxType string

const (
	PaxAdult  PaxType = "ADT"
	PaxChild  PaxType = "CHD"
	PaxInfant PaxType = "INF"
)

// PassengerRecord holds one traveller's data, mutated by agent input
type PassengerRecord struct {
	ID             int     `json:"id"`
	Type           PaxType `json:"type"`
	Title          string  `json:"title,omitempty"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	DOB            string  `json:"dob,omitempty"`
	Gender         string  `json:"gender,omitempty"`
	Nationality    string  `json:"nationality,omitempty"`
	PassportNo     string  `json:"passportNo,omitempty"`
	PassportExpiry string  `json:"passportExpiry,omitempty"`
	VisaType       string  `json:"visaType,omitempty"`
}

// SyncPassengers reconciles the record list to the confirmed per-type counts.
// Existing records are preserved in order where counts match, blank records
// are appended where a type's count grew, excess records are truncated where
// it shrank. IDs are renumbered sequentially afterward.
func SyncPassengers(existing []PassengerRecord, adults, children, infants int) []PassengerRecord {
	want := []struct {
		typ   PaxType
		count int
	}{
		{PaxAdult, adults},
		{PaxChild, children},
		{PaxInfant, infants},
	}

	byType := make(map[PaxType][]PassengerRecord)
	for _, p := range existing {
		byType[p.Type] = append(byType[p.Type], p)
	}

	var out []PassengerRecord
	for _, w := range want {
		have := byType[w.typ]
		for i := 0; i < w.count; i++ {
			if i < len(have) {
				out = append(out, have[i])
			} else {
				out = append(out, PassengerRecord{Type: w.typ})
			}
		}
	}

	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// AgeOn computes a passenger's age in whole years as of the given date,
// decrementing when the birthday has not yet occurred that year.
func AgeOn(dob string, at time.Time) (int, error) {
	d, err := time.Parse(DateLayout, dob)
	if err != nil {
		return 0, err
	}
	age := at.Year() - d.Year()
	if at.Month() < d.Month() || (at.Month() == d.Month() && at.Day() < d.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, nil
}

// ContactInfo is the booking-level contact, validated independently of the
// per-trip ruleset
type ContactInfo struct {
	Title     string `json:"title,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// AncillaryItem is one chosen baggage or meal add-on
type AncillaryItem struct {
	PassengerID int     `json:"passengerId"`
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

// SeatSelection is a chosen seat for one passenger
type SeatSelection struct {
	PassengerID int     `json:"passengerId"`
	SeatNo      string  `json:"seatNo"`
	Price       float64 `json:"price"`
}

// AncillarySelection aggregates the chosen add-ons. Never mandatory.
type AncillarySelection struct {
	Baggage []AncillaryItem `json:"baggage,omitempty"`
	Meals   []AncillaryItem `json:"meals,omitempty"`
	Seats   []SeatSelection `json:"seats,omitempty"`
}

// Total returns the sum of all selected add-on and seat prices.
func (a AncillarySelection) Total() float64 {
	var total float64
	for _, b := range a.Baggage {
		total += b.Price
	}
	for _, m := range a.Meals {
		total += m.Price
	}
	for _, s := range a.Seats {
		total += s.Price
	}
	return total
}

// PricingConfirmation is the result of the two-step pricing chain. Its TUI
// supersedes the search token, and its counts supersede the requested ones.
type PricingConfirmation struct {
	TUI       string  `json:"tui"`
	NetFare   float64 `json:"netFare"`
	GrossFare float64 `json:"grossFare"`
	Adults    int     `json:"adults"`
	Children  int     `json:"children"`
	Infants   int     `json:"infants"`
}

// BookingStatus is the monotonically advancing booking session status
type BookingStatus string

const (
	StatusPricing    BookingStatus = "pricing"
	StatusFareChange BookingStatus = "fare_change"
	StatusReady      BookingStatus = "ready"
	StatusPaying     BookingStatus = "paying"
	StatusComplete   BookingStatus = "complete"
	StatusError      BookingStatus = "error"
	StatusCancelled  BookingStatus = "cancelled"
)

// BookingSession aggregates everything one booking attempt owns. It is
// persisted wholesale across steps; concurrent writers are unsupported and
// the last write wins.
type BookingSession struct {
	ID            string              `json:"id"`
	TUI           string              `json:"tui"`
	Search        SearchRequest       `json:"search"`
	Candidate     Candidate           `json:"candidate"`
	Pricing       PricingConfirmation `json:"pricing"`
	Passengers    []PassengerRecord   `json:"passengers,omitempty"`
	Contact       ContactInfo         `json:"contact"`
	Ancillaries   AncillarySelection  `json:"ancillaries"`
	Status        BookingStatus       `json:"status"`
	TransactionID int64               `json:"transactionId,omitempty"`
	PayableAmount float64             `json:"payableAmount"`
	FailureReason string              `json:"failureReason,omitempty"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}
