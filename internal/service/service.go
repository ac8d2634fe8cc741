package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/client"

	"github.com/farebridge/agency-booking/internal/database"
	"github.com/farebridge/agency-booking/internal/gds"
	"github.com/farebridge/agency-booking/internal/models"
	"github.com/farebridge/agency-booking/internal/poller"
	"github.com/farebridge/agency-booking/internal/session"
	"github.com/farebridge/agency-booking/internal/websocket"
)

const (
	TaskQueue = "agency-booking-queue"
)

var (
	ErrSearchNotFound    = errors.New("search session not found")
	ErrCandidateNotFound = errors.New("candidate not found in search session")
)

// GDS is the slice of the upstream client the API side needs directly.
// Pricing, itinerary and payment calls go through the workflow instead.
type GDS interface {
	ExpressSearch(ctx context.Context, req *gds.ExpressSearchRequest) (*gds.ExpressSearchResponse, error)
	GetExpSearch(ctx context.Context, req *gds.GetExpSearchRequest) (*gds.GetExpSearchResponse, error)
	GetSSR(ctx context.Context, req *gds.SSRRequest) (*gds.SSRResponse, error)
	RetrieveBooking(ctx context.Context, req *gds.RetrieveBookingRequest) (*gds.RetrieveBookingResponse, error)
	CancelBooking(ctx context.Context, req *gds.CancelBookingRequest) (*gds.CancelBookingResponse, error)
}

// Archive is the read/update slice of the booking archive.
type Archive interface {
	GetByBookingID(ctx context.Context, bookingID string) (*database.BookingRecord, error)
	ListRecent(ctx context.Context, limit int) ([]database.BookingRecord, error)
	UpdateStatus(ctx context.Context, bookingID string, status database.RecordStatus) error
}

// AncillaryOffers are the optional add-ons available for a booking
type AncillaryOffers struct {
	Baggage []models.AncillaryItem `json:"baggage,omitempty"`
	Meals   []models.AncillaryItem `json:"meals,omitempty"`
}

// BookingService defines the operations the HTTP surface exposes
type BookingService interface {
	StartSearch(ctx context.Context, req *models.SearchRequest) (string, error)
	SearchSnapshot(tui string) (*poller.Snapshot, error)
	CancelSearch(tui string) error
	StartBooking(ctx context.Context, tui, candidateIndex string) (string, error)
	GetBookingState(ctx context.Context, bookingID string) (*models.BookingState, error)
	DecideFare(ctx context.Context, bookingID string, accept bool) error
	SubmitPassengers(ctx context.Context, bookingID string, sig *models.SubmitPassengersSignal) error
	SubmitPayment(ctx context.Context, bookingID, payMode string) error
	RetryPricing(ctx context.Context, bookingID string) error
	CancelBooking(ctx context.Context, bookingID string) error
	GetAncillaries(ctx context.Context, bookingID string) (*AncillaryOffers, error)
	RetrieveBooking(ctx context.Context, bookingID string) (*gds.RetrieveBookingResponse, error)
	VoidBooking(ctx context.Context, bookingID, remarks string) (*gds.CancelBookingResponse, error)
	ListBookings(ctx context.Context, limit int) ([]database.BookingRecord, error)
}

type activeSearch struct {
	search  *poller.Search
	request models.SearchRequest
	cancel  context.CancelFunc
}

// bookingServiceImpl implements BookingService
type bookingServiceImpl struct {
	temporalClient client.Client
	gds            GDS
	clientID       string
	store          session.Store
	archive        Archive
	hub            *websocket.Hub
	log            *logrus.Logger
	pollCfg        poller.Config

	mu       sync.Mutex
	searches map[string]*activeSearch

	searchLatch latch
	bookLatch   latch
}

// NewBookingService creates a new BookingService
func NewBookingService(temporalClient client.Client, gdsClient GDS, clientID string, store session.Store, archive Archive, hub *websocket.Hub, log *logrus.Logger) BookingService {
	return &bookingServiceImpl{
		temporalClient: temporalClient,
		gds:            gdsClient,
		clientID:       clientID,
		store:          store,
		archive:        archive,
		hub:            hub,
		log:            log,
		pollCfg:        poller.DefaultConfig(),
		searches:       make(map[string]*activeSearch),
	}
}

// StartSearch validates the request, submits it upstream and starts the
// polling loop for its session token.
func (s *bookingServiceImpl) StartSearch(ctx context.Context, req *models.SearchRequest) (string, error) {
	if !s.searchLatch.tryAcquire() {
		return "", ErrOperationInFlight
	}
	defer s.searchLatch.release()

	resp, err := s.gds.ExpressSearch(ctx, gds.NewExpressSearchRequest(req, s.clientID))
	if err != nil {
		return "", fmt.Errorf("failed to start search: %w", err)
	}
	if resp.Code != gds.CodeOK || resp.TUI == "" {
		msg := gds.FirstMsg(resp.Msg)
		if msg == "" {
			msg = "search rejected with code " + resp.Code
		}
		return "", errors.New(msg)
	}

	tui := resp.TUI
	search := poller.New(s.gds, s.clientID, tui, s.pollCfg, s.log.WithField("component", "poller"))
	if s.hub != nil {
		search.OnBatch(func(candidates []models.Candidate, complete bool) {
			s.hub.BroadcastBatch(tui, candidates, complete)
		})
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.searches[tui] = &activeSearch{search: search, request: *req, cancel: cancel}
	s.mu.Unlock()

	go func() {
		if err := search.Run(pollCtx); err != nil && s.hub != nil {
			s.hub.BroadcastTimeout(tui)
		}
		cancel()
	}()

	s.log.WithFields(logrus.Fields{
		"tui":   tui,
		"route": req.Origin + "-" + req.Destination,
	}).Info("search started")
	return tui, nil
}

// SearchSnapshot returns the current sorted candidate list for a search.
func (s *bookingServiceImpl) SearchSnapshot(tui string) (*poller.Snapshot, error) {
	s.mu.Lock()
	active, ok := s.searches[tui]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSearchNotFound
	}
	snap := active.search.Snapshot()
	return &snap, nil
}

// CancelSearch sets the cooperative cancellation flag and discards the
// session. In-flight polls are not aborted, only ignored.
func (s *bookingServiceImpl) CancelSearch(tui string) error {
	s.mu.Lock()
	active, ok := s.searches[tui]
	if ok {
		delete(s.searches, tui)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSearchNotFound
	}
	active.search.Cancel()
	active.cancel()
	return nil
}

// StartBooking copies the selected candidate into a new booking session and
// starts the booking workflow for it.
func (s *bookingServiceImpl) StartBooking(ctx context.Context, tui, candidateIndex string) (string, error) {
	if !s.bookLatch.tryAcquire() {
		return "", ErrOperationInFlight
	}
	defer s.bookLatch.release()

	s.mu.Lock()
	active, ok := s.searches[tui]
	s.mu.Unlock()
	if !ok {
		return "", ErrSearchNotFound
	}

	snap := active.search.Snapshot()
	var candidate *models.Candidate
	for i := range snap.Candidates {
		if snap.Candidates[i].Index == candidateIndex {
			candidate = &snap.Candidates[i]
			break
		}
	}
	if candidate == nil {
		return "", ErrCandidateNotFound
	}

	bookingID := uuid.New().String()[:8]
	input := models.BookingWorkflowInput{
		BookingID: bookingID,
		TUI:       tui,
		Search:    active.request,
		Candidate: *candidate,
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        "booking-" + bookingID,
		TaskQueue: TaskQueue,
	}
	_, err := s.temporalClient.ExecuteWorkflow(ctx, workflowOptions, "BookingWorkflow", input)
	if err != nil {
		return "", fmt.Errorf("failed to start booking workflow: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"bookingId": bookingID,
		"index":     candidateIndex,
	}).Info("booking started")
	return bookingID, nil
}

// GetBookingState queries the workflow for its current state.
func (s *bookingServiceImpl) GetBookingState(ctx context.Context, bookingID string) (*models.BookingState, error) {
	response, err := s.temporalClient.QueryWorkflow(ctx, "booking-"+bookingID, "", models.QueryGetState)
	if err != nil {
		return nil, fmt.Errorf("failed to query booking: %w", err)
	}
	var state models.BookingState
	if err := response.Get(&state); err != nil {
		return nil, fmt.Errorf("failed to decode booking state: %w", err)
	}
	return &state, nil
}

func (s *bookingServiceImpl) DecideFare(ctx context.Context, bookingID string, accept bool) error {
	return s.temporalClient.SignalWorkflow(ctx, "booking-"+bookingID, "", models.SignalFareDecision, models.FareDecisionSignal{Accept: accept})
}

func (s *bookingServiceImpl) SubmitPassengers(ctx context.Context, bookingID string, sig *models.SubmitPassengersSignal) error {
	return s.temporalClient.SignalWorkflow(ctx, "booking-"+bookingID, "", models.SignalSubmitPassengers, sig)
}

func (s *bookingServiceImpl) SubmitPayment(ctx context.Context, bookingID, payMode string) error {
	return s.temporalClient.SignalWorkflow(ctx, "booking-"+bookingID, "", models.SignalSubmitPayment, models.SubmitPaymentSignal{PayMode: payMode})
}

func (s *bookingServiceImpl) RetryPricing(ctx context.Context, bookingID string) error {
	return s.temporalClient.SignalWorkflow(ctx, "booking-"+bookingID, "", models.SignalRetryPricing, nil)
}

func (s *bookingServiceImpl) CancelBooking(ctx context.Context, bookingID string) error {
	return s.temporalClient.SignalWorkflow(ctx, "booking-"+bookingID, "", models.SignalCancelBooking, nil)
}

// GetAncillaries fetches the optional SSR offers for a booking in Ready
// state, using the session's current token.
func (s *bookingServiceImpl) GetAncillaries(ctx context.Context, bookingID string) (*AncillaryOffers, error) {
	sess, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	resp, err := s.gds.GetSSR(ctx, &gds.SSRRequest{TUI: sess.TUI, ClientID: s.clientID})
	if err != nil || resp.Code != gds.CodeOK {
		// Absence of offers is not an error; the booking proceeds without.
		return &AncillaryOffers{}, nil
	}

	offers := &AncillaryOffers{}
	for _, b := range resp.Baggage {
		offers.Baggage = append(offers.Baggage, models.AncillaryItem{Code: b.Code, Description: b.Description, Price: b.Charge})
	}
	for _, m := range resp.Meals {
		offers.Meals = append(offers.Meals, models.AncillaryItem{Code: m.Code, Description: m.Description, Price: m.Charge})
	}
	return offers, nil
}

// RetrieveBooking proxies the upstream booking detail for a finalized booking.
func (s *bookingServiceImpl) RetrieveBooking(ctx context.Context, bookingID string) (*gds.RetrieveBookingResponse, error) {
	state, err := s.GetBookingState(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if state.TransactionID == 0 {
		return nil, errors.New("booking has no transaction yet")
	}
	return s.gds.RetrieveBooking(ctx, &gds.RetrieveBookingRequest{
		TransactionID: state.TransactionID,
		ClientID:      s.clientID,
	})
}

// VoidBooking cancels a finalized booking upstream and updates the archive.
func (s *bookingServiceImpl) VoidBooking(ctx context.Context, bookingID, remarks string) (*gds.CancelBookingResponse, error) {
	state, err := s.GetBookingState(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if state.TransactionID == 0 {
		return nil, errors.New("booking has no transaction yet")
	}

	resp, err := s.gds.CancelBooking(ctx, &gds.CancelBookingRequest{
		TransactionID: state.TransactionID,
		Remarks:       remarks,
		ClientID:      s.clientID,
	})
	if err != nil {
		return nil, err
	}
	if resp.Code == gds.CodeOK {
		if err := s.archive.UpdateStatus(ctx, bookingID, database.RecordStatusCancelled); err != nil && !errors.Is(err, database.ErrNotFound) {
			s.log.WithError(err).WithField("bookingId", bookingID).Warn("failed to update archived booking")
		}
	}
	return resp, nil
}

// ListBookings returns recently finalized bookings from the archive.
func (s *bookingServiceImpl) ListBookings(ctx context.Context, limit int) ([]database.BookingRecord, error) {
	return s.archive.ListRecent(ctx, limit)
}
