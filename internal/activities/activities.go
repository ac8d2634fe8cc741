package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/farebridge/agency-booking/internal/database"
	"github.com/farebridge/agency-booking/internal/gds"
	"github.com/farebridge/agency-booking/internal/models"
	"github.com/farebridge/agency-booking/internal/pricing"
	"github.com/farebridge/agency-booking/internal/rules"
	"github.com/farebridge/agency-booking/internal/session"
)

// GDS is the slice of the upstream client the activities need.
type GDS interface {
	SmartPricer(ctx context.Context, req *gds.SmartPricerRequest) (*gds.SmartPricerResponse, error)
	GetSPricer(ctx context.Context, req *gds.GetSPricerRequest) (*gds.GetSPricerResponse, error)
	GetTravelCheckList(ctx context.Context, req *gds.TravelCheckListRequest) (*gds.TravelCheckListResponse, error)
	GetSSR(ctx context.Context, req *gds.SSRRequest) (*gds.SSRResponse, error)
	CreateItinerary(ctx context.Context, req *gds.CreateItineraryRequest) (*gds.CreateItineraryResponse, error)
	StartPay(ctx context.Context, req *gds.StartPayRequest) (*gds.StartPayResponse, error)
}

// Archive is the persistence slice for finalized bookings.
type Archive interface {
	InsertBooking(ctx context.Context, rec *database.BookingRecord) error
	UpdateStatus(ctx context.Context, bookingID string, status database.RecordStatus) error
}

// Activities hosts all booking workflow activities.
type Activities struct {
	gds      GDS
	clientID string
	pricer   *pricing.Validator
	store    session.Store
	archive  Archive
}

func NewActivities(client GDS, clientID string, store session.Store, archive Archive) *Activities {
	return &Activities{
		gds:      client,
		clientID: clientID,
		pricer:   pricing.NewValidator(client, clientID),
		store:    store,
		archive:  archive,
	}
}

type ConfirmPriceInput struct {
	BookingID string           `json:"bookingId"`
	TUI       string           `json:"tui"`
	Candidate models.Candidate `json:"candidate"`
	TripType  models.TripType  `json:"tripType"`
}

// ConfirmPrice runs the two-step pricing chain and returns the classified
// outcome. Transport failures become activity errors and are retried by the
// workflow's retry policy.
func (a *Activities) ConfirmPrice(ctx context.Context, in ConfirmPriceInput) (*pricing.Result, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Confirming price", "bookingId", in.BookingID, "index", in.Candidate.Index)

	res, err := a.pricer.ConfirmPrice(ctx, in.Candidate, in.TUI, in.TripType)
	if err != nil {
		return nil, err
	}
	logger.Info("Price confirmation classified", "bookingId", in.BookingID, "outcome", res.Outcome)
	return res, nil
}

type FetchChecklistInput struct {
	TUI string `json:"tui"`
}

// FetchChecklist derives the passenger requirement ruleset. The checklist
// collaborator is non-blocking: any failure falls back to the default
// ruleset rather than failing the booking flow.
func (a *Activities) FetchChecklist(ctx context.Context, in FetchChecklistInput) (*rules.Ruleset, error) {
	logger := activity.GetLogger(ctx)

	resp, err := a.gds.GetTravelCheckList(ctx, &gds.TravelCheckListRequest{TUI: in.TUI, ClientID: a.clientID})
	if err != nil {
		logger.Warn("Checklist fetch failed, using default ruleset", "error", err)
		rs := rules.Default()
		return &rs, nil
	}
	rs := rules.BuildRuleset(resp)
	return &rs, nil
}

type FetchAncillariesInput struct {
	TUI string `json:"tui"`
}

type FetchAncillariesOutput struct {
	Baggage []models.AncillaryItem `json:"baggage,omitempty"`
	Meals   []models.AncillaryItem `json:"meals,omitempty"`
}

// FetchAncillaries loads the optional SSR offers. Absence or failure means
// no offers; it never blocks the booking.
func (a *Activities) FetchAncillaries(ctx context.Context, in FetchAncillariesInput) (*FetchAncillariesOutput, error) {
	logger := activity.GetLogger(ctx)

	resp, err := a.gds.GetSSR(ctx, &gds.SSRRequest{TUI: in.TUI, ClientID: a.clientID})
	if err != nil || resp.Code != gds.CodeOK {
		if err != nil {
			logger.Warn("SSR fetch failed, continuing without offers", "error", err)
		}
		return &FetchAncillariesOutput{}, nil
	}

	out := &FetchAncillariesOutput{}
	for _, b := range resp.Baggage {
		out.Baggage = append(out.Baggage, models.AncillaryItem{Code: b.Code, Description: b.Description, Price: b.Charge})
	}
	for _, m := range resp.Meals {
		out.Meals = append(out.Meals, models.AncillaryItem{Code: m.Code, Description: m.Description, Price: m.Charge})
	}
	return out, nil
}

type CreateItineraryInput struct {
	BookingID   string                    `json:"bookingId"`
	TUI         string                    `json:"tui"`
	Contact     models.ContactInfo        `json:"contact"`
	Travellers  []models.PassengerRecord  `json:"travellers"`
	NetAmount   float64                   `json:"netAmount"`
	Ancillaries models.AncillarySelection `json:"ancillaries"`
}

type CreateItineraryOutput struct {
	Success        bool    `json:"success"`
	FareChanged    bool    `json:"fareChanged"`
	OldFare        float64 `json:"oldFare,omitempty"`
	NewFare        float64 `json:"newFare,omitempty"`
	SessionExpired bool    `json:"sessionExpired"`
	TransactionID  int64   `json:"transactionId,omitempty"`
	TUI            string  `json:"tui,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// CreateItinerary submits the itinerary. The upstream distinguishes
// failure modes by payload content, so the output is classified the same
// way pricing outcomes are.
func (a *Activities) CreateItinerary(ctx context.Context, in CreateItineraryInput) (*CreateItineraryOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Creating itinerary", "bookingId", in.BookingID, "travellers", len(in.Travellers))

	now := time.Now()
	travellers := make([]gds.ItineraryTraveller, 0, len(in.Travellers))
	for _, p := range in.Travellers {
		t := gds.ItineraryTraveller{
			ID:          p.ID,
			Title:       p.Title,
			FName:       p.FirstName,
			LName:       p.LastName,
			DOB:         p.DOB,
			Gender:      p.Gender,
			PTC:         string(p.Type),
			Nationality: p.Nationality,
			PassportNo:  p.PassportNo,
			PDOE:        p.PassportExpiry,
			VisaType:    p.VisaType,
		}
		if p.DOB != "" {
			if age, err := models.AgeOn(p.DOB, now); err == nil {
				t.Age = age
			}
		}
		travellers = append(travellers, t)
	}

	var ssr []gds.SelectedSSR
	for _, b := range in.Ancillaries.Baggage {
		ssr = append(ssr, gds.SelectedSSR{PaxID: b.PassengerID, Code: b.Code, Description: b.Description, Charge: b.Price})
	}
	for _, m := range in.Ancillaries.Meals {
		ssr = append(ssr, gds.SelectedSSR{PaxID: m.PassengerID, Code: m.Code, Description: m.Description, Charge: m.Price})
	}
	for _, s := range in.Ancillaries.Seats {
		ssr = append(ssr, gds.SelectedSSR{PaxID: s.PassengerID, Code: "SEAT-" + s.SeatNo, Charge: s.Price})
	}

	resp, err := a.gds.CreateItinerary(ctx, &gds.CreateItineraryRequest{
		TUI:      in.TUI,
		ClientID: a.clientID,
		ContactInfo: gds.ContactInfo{
			Title:  in.Contact.Title,
			FName:  in.Contact.FirstName,
			LName:  in.Contact.LastName,
			Mobile: in.Contact.Phone,
			Email:  in.Contact.Email,
		},
		Travellers: travellers,
		NetAmount:  in.NetAmount,
		SSRAmount:  in.Ancillaries.Total(),
		SSR:        ssr,
	})
	if err != nil {
		return nil, err
	}

	msg := gds.FirstMsg(resp.Msg)

	if oldFare, newFare, ok := pricing.ParseFareChange(msg); ok {
		return &CreateItineraryOutput{FareChanged: true, OldFare: oldFare, NewFare: newFare, Message: msg}, nil
	}
	if resp.Code != gds.CodeOK {
		if pricing.IsSessionExpired(resp.Code, msg) {
			return &CreateItineraryOutput{SessionExpired: true, Message: msg}, nil
		}
		if msg == "" {
			msg = "itinerary creation failed with code " + resp.Code
		}
		return &CreateItineraryOutput{Message: msg}, nil
	}

	logger.Info("Itinerary created", "bookingId", in.BookingID, "transactionId", resp.TransactionID)
	return &CreateItineraryOutput{
		Success:       true,
		TransactionID: resp.TransactionID,
		TUI:           resp.TUI,
	}, nil
}

type StartPayInput struct {
	BookingID     string  `json:"bookingId"`
	TransactionID int64   `json:"transactionId"`
	NetAmount     float64 `json:"netAmount"`
	TUI           string  `json:"tui"`
	PayMode       string  `json:"payMode,omitempty"`
}

type StartPayOutput struct {
	Success    bool   `json:"success"`
	InProgress bool   `json:"inProgress"`
	Status     string `json:"status,omitempty"`
	Message    string `json:"message,omitempty"`
}

// StartPay commits the payment. Code 200 and the in-progress code are both
// treated as accepted; anything else is a retryable payment failure.
func (a *Activities) StartPay(ctx context.Context, in StartPayInput) (*StartPayOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Starting payment", "bookingId", in.BookingID, "transactionId", in.TransactionID, "amount", in.NetAmount)

	payMode := in.PayMode
	if payMode == "" {
		payMode = "DEPOSIT"
	}

	resp, err := a.gds.StartPay(ctx, &gds.StartPayRequest{
		TransactionID: in.TransactionID,
		PayMode:       payMode,
		NetAmount:     in.NetAmount,
		ClientID:      a.clientID,
		TUI:           in.TUI,
	})
	if err != nil {
		return nil, err
	}

	switch resp.Code {
	case gds.CodeOK:
		logger.Info("Payment accepted", "bookingId", in.BookingID)
		return &StartPayOutput{Success: true, Status: resp.Status}, nil
	case gds.CodePaymentInProgress:
		logger.Info("Payment in progress upstream", "bookingId", in.BookingID)
		return &StartPayOutput{Success: true, InProgress: true, Status: resp.Status}, nil
	default:
		msg := gds.FirstMsg(resp.Msg)
		if msg == "" {
			msg = "payment failed with code " + resp.Code
		}
		logger.Warn("Payment rejected", "bookingId", in.BookingID, "code", resp.Code)
		return &StartPayOutput{Message: msg, Status: resp.Status}, nil
	}
}

// SaveSession persists the booking session snapshot so the frontend can
// recover it after a reload.
func (a *Activities) SaveSession(ctx context.Context, s models.BookingSession) error {
	return a.store.Save(ctx, &s)
}

type ClearSessionInput struct {
	BookingID string `json:"bookingId"`
}

// ClearSession drops the durable session snapshot.
func (a *Activities) ClearSession(ctx context.Context, in ClearSessionInput) error {
	err := a.store.Delete(ctx, in.BookingID)
	if err != nil && err != session.ErrNotFound {
		return err
	}
	return nil
}

type RecordBookingInput struct {
	Record database.BookingRecord `json:"record"`
}

// RecordBooking archives a finalized booking for agency reporting.
func (a *Activities) RecordBooking(ctx context.Context, in RecordBookingInput) error {
	logger := activity.GetLogger(ctx)
	if err := a.archive.InsertBooking(ctx, &in.Record); err != nil {
		return err
	}
	logger.Info("Booking archived", "bookingId", in.Record.BookingID, "status", in.Record.Status)
	return nil
}
