package database

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus is the archive-side status of a finalized booking
type RecordStatus string

const (
	RecordStatusConfirmed  RecordStatus = "confirmed"
	RecordStatusInProgress RecordStatus = "in_progress"
	RecordStatusCancelled  RecordStatus = "cancelled"
)

// BookingRecord is a finalized booking persisted for agency reporting
type BookingRecord struct {
	ID            uuid.UUID    `json:"id"`
	BookingID     string       `json:"bookingId"`
	TransactionID int64        `json:"transactionId"`
	PNR           string       `json:"pnr,omitempty"`
	Origin        string       `json:"origin"`
	Destination   string       `json:"destination"`
	DepartDate    string       `json:"departDate"`
	Passengers    int          `json:"passengers"`
	NetAmount     float64      `json:"netAmount"`
	TotalAmount   float64      `json:"totalAmount"`
	Status        RecordStatus `json:"status"`
	ContactEmail  string       `json:"contactEmail"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
