package models

import "time"

// Signals for workflow communication
const (
	SignalFareDecision     = "fare-decision"
	SignalSubmitPassengers = "submit-passengers"
	SignalSubmitPayment    = "submit-payment"
	SignalRetryPricing     = "retry-pricing"
	SignalCancelBooking    = "cancel-booking"
)

// Queries for workflow state
const (
	QueryGetState = "get_state"
)

// BookingWorkflowInput starts one booking attempt from a search selection
type BookingWorkflowInput struct {
	BookingID string        `json:"bookingId"`
	TUI       string        `json:"tui"`
	Search    SearchRequest `json:"search"`
	Candidate Candidate     `json:"candidate"`
}

// FareDecisionSignal resolves a fare-change prompt
type FareDecisionSignal struct {
	Accept bool `json:"accept"`
}

// SubmitPassengersSignal carries the agent's passenger, contact and
// ancillary input for itinerary creation
type SubmitPassengersSignal struct {
	Travellers  []PassengerRecord  `json:"travellers"`
	Contact     ContactInfo        `json:"contact"`
	Ancillaries AncillarySelection `json:"ancillaries"`
}

// SubmitPaymentSignal triggers the payment step
type SubmitPaymentSignal struct {
	PayMode string `json:"payMode,omitempty"`
}

// ValidationErrors maps passenger ID -> field -> message, plus contact
// field errors. Absence of entries signals success.
type ValidationErrors struct {
	Fields  map[int]map[string]string `json:"fields,omitempty"`
	Contact map[string]string         `json:"contact,omitempty"`
}

func (v ValidationErrors) Empty() bool {
	return len(v.Fields) == 0 && len(v.Contact) == 0
}

// BookingState is the query-visible state of the booking workflow
type BookingState struct {
	BookingID       string            `json:"bookingId"`
	Status          BookingStatus     `json:"status"`
	NetFare         float64           `json:"netFare"`
	Payable         float64           `json:"payable"`
	OldFare         float64           `json:"oldFare,omitempty"`
	NewFare         float64           `json:"newFare,omitempty"`
	Passengers      []PassengerRecord `json:"passengers,omitempty"`
	Contact         ContactInfo       `json:"contact"`
	Validation      *ValidationErrors `json:"validation,omitempty"`
	TransactionID   int64             `json:"transactionId,omitempty"`
	PaymentAttempts int               `json:"paymentAttempts"`
	SessionExpired  bool              `json:"sessionExpired,omitempty"`
	FailureReason   string            `json:"failureReason,omitempty"`
	LastUpdated     time.Time         `json:"lastUpdated"`
}

// BookingWorkflowResult is the terminal outcome of the booking workflow
type BookingWorkflowResult struct {
	Success       bool   `json:"success"`
	TransactionID int64  `json:"transactionId,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}
