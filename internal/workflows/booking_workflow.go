package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/farebridge/agency-booking/internal/activities"
	"github.com/farebridge/agency-booking/internal/database"
	"github.com/farebridge/agency-booking/internal/models"
	"github.com/farebridge/agency-booking/internal/pricing"
	"github.com/farebridge/agency-booking/internal/rules"
)

const (
	// GDSActivityTimeout bounds one upstream call from the workflow's side
	GDSActivityTimeout = 45 * time.Second
	// PaymentTimeout is longer: StartPay can sit on the provider for a while
	PaymentTimeout = 90 * time.Second
)

// BookingWorkflow sequences one booking attempt: price confirmation,
// passenger collection and validation, itinerary creation and payment.
// Every agent action arrives as a signal; the frontend reads state through
// the get_state query. No failure escapes unclassified: the workflow always
// resolves to a fare-change prompt, a retryable error state, an expired
// session, a cancellation or a completed booking.
func BookingWorkflow(ctx workflow.Context, input models.BookingWorkflowInput) (*models.BookingWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Booking workflow started", "bookingId", input.BookingID, "index", input.Candidate.Index)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: GDSActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	})

	// No automatic retries for payment; the agent retries explicitly.
	payCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: PaymentTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	state := models.BookingState{
		BookingID:   input.BookingID,
		Status:      models.StatusPricing,
		LastUpdated: workflow.Now(ctx),
	}
	sess := models.BookingSession{
		ID:        input.BookingID,
		TUI:       input.TUI,
		Search:    input.Search,
		Candidate: input.Candidate,
		Status:    models.StatusPricing,
	}

	if err := workflow.SetQueryHandler(ctx, models.QueryGetState, func() (models.BookingState, error) {
		return state, nil
	}); err != nil {
		return nil, err
	}

	fareCh := workflow.GetSignalChannel(ctx, models.SignalFareDecision)
	paxCh := workflow.GetSignalChannel(ctx, models.SignalSubmitPassengers)
	payCh := workflow.GetSignalChannel(ctx, models.SignalSubmitPayment)
	retryCh := workflow.GetSignalChannel(ctx, models.SignalRetryPricing)
	cancelCh := workflow.GetSignalChannel(ctx, models.SignalCancelBooking)

	saveSession := func() {
		if err := workflow.ExecuteActivity(ctx, "SaveSession", sess).Get(ctx, nil); err != nil {
			logger.Warn("Failed to persist session snapshot", "error", err)
		}
	}

	setStatus := func(st models.BookingStatus) {
		state.Status = st
		sess.Status = st
		state.LastUpdated = workflow.Now(ctx)
		saveSession()
	}

	recomputePayable := func() {
		sess.PayableAmount = sess.Pricing.NetFare + sess.Ancillaries.Total()
		state.NetFare = sess.Pricing.NetFare
		state.Payable = sess.PayableAmount
	}

	applyConfirmation := func(c models.PricingConfirmation) {
		if c.TUI != "" {
			sess.TUI = c.TUI
		}
		// The upstream's counts win over the originally requested ones.
		if c.Adults == 0 && c.Children == 0 && c.Infants == 0 {
			c.Adults = input.Search.Adults
			c.Children = input.Search.Children
			c.Infants = input.Search.Infants
		}
		sess.Pricing = c
		sess.Passengers = models.SyncPassengers(sess.Passengers, c.Adults, c.Children, c.Infants)
		state.Passengers = sess.Passengers
		recomputePayable()
	}

	clearSession := func() {
		dctx, cancel := workflow.NewDisconnectedContext(ctx)
		defer cancel()
		if err := workflow.ExecuteActivity(dctx, "ClearSession", activities.ClearSessionInput{BookingID: input.BookingID}).Get(dctx, nil); err != nil {
			logger.Warn("Failed to clear session snapshot", "error", err)
		}
	}

	cleanup := func(reason string) *models.BookingWorkflowResult {
		clearSession()
		state.Status = models.StatusCancelled
		state.FailureReason = reason
		state.LastUpdated = workflow.Now(ctx)
		logger.Info("Booking abandoned", "bookingId", input.BookingID, "reason", reason)
		return &models.BookingWorkflowResult{Success: false, FailureReason: reason}
	}

	expire := func() *models.BookingWorkflowResult {
		clearSession()
		state.Status = models.StatusError
		state.SessionExpired = true
		state.FailureReason = "session expired"
		state.LastUpdated = workflow.Now(ctx)
		logger.Info("Upstream session expired", "bookingId", input.BookingID)
		return &models.BookingWorkflowResult{Success: false, FailureReason: "session_expired"}
	}

	// awaitFareDecision blocks until the agent accepts or rejects the new
	// fare, or cancels the booking.
	awaitFareDecision := func() (accept, cancelled bool) {
		for {
			var got bool
			sel := workflow.NewSelector(ctx)
			sel.AddReceive(fareCh, func(c workflow.ReceiveChannel, more bool) {
				var sig models.FareDecisionSignal
				c.Receive(ctx, &sig)
				got = true
				accept = sig.Accept
			})
			sel.AddReceive(cancelCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				cancelled = true
			})
			sel.Select(ctx)
			if ctx.Err() != nil {
				return false, true
			}
			if cancelled || got {
				return accept, cancelled
			}
		}
	}

	awaitRetry := func() (cancelled bool) {
		for {
			var retried bool
			sel := workflow.NewSelector(ctx)
			sel.AddReceive(retryCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				retried = true
			})
			sel.AddReceive(cancelCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				cancelled = true
			})
			sel.Select(ctx)
			if ctx.Err() != nil {
				return true
			}
			if retried || cancelled {
				return cancelled
			}
		}
	}

	// --- Pricing ---

pricingLoop:
	for {
		setStatus(models.StatusPricing)

		var res pricing.Result
		err := workflow.ExecuteActivity(ctx, "ConfirmPrice", activities.ConfirmPriceInput{
			BookingID: input.BookingID,
			TUI:       sess.TUI,
			Candidate: input.Candidate,
			TripType:  input.Search.TripType,
		}).Get(ctx, &res)

		if err != nil {
			logger.Error("Price confirmation failed", "error", err)
			state.FailureReason = "price confirmation unavailable"
			setStatus(models.StatusError)
		} else {
			switch res.Outcome {
			case pricing.OutcomeConfirmed:
				applyConfirmation(res.Confirmation)
				break pricingLoop

			case pricing.OutcomeFareChanged:
				state.OldFare = res.OldFare
				state.NewFare = res.NewFare
				setStatus(models.StatusFareChange)

				accept, cancelled := awaitFareDecision()
				if cancelled {
					return cleanup("cancelled"), nil
				}
				if !accept {
					return cleanup("fare_rejected"), nil
				}
				conf := res.Confirmation
				conf.NetFare = res.NewFare
				applyConfirmation(conf)
				state.OldFare, state.NewFare = 0, 0
				break pricingLoop

			case pricing.OutcomeSessionExpired:
				return expire(), nil

			default:
				state.FailureReason = res.Message
				setStatus(models.StatusError)
			}
		}

		if awaitRetry() {
			return cleanup("cancelled"), nil
		}
	}

	// --- Ready: collect passengers, create the itinerary ---

	ruleset := rules.Default()
	if err := workflow.ExecuteActivity(ctx, "FetchChecklist", activities.FetchChecklistInput{TUI: sess.TUI}).Get(ctx, &ruleset); err != nil {
		logger.Warn("Checklist unavailable, using default ruleset", "error", err)
		ruleset = rules.Default()
	}

	var offers activities.FetchAncillariesOutput
	if err := workflow.ExecuteActivity(ctx, "FetchAncillaries", activities.FetchAncillariesInput{TUI: sess.TUI}).Get(ctx, &offers); err != nil {
		logger.Warn("Ancillary offers unavailable", "error", err)
	}

	setStatus(models.StatusReady)

readyLoop:
	for {
		var (
			pax       *models.SubmitPassengersSignal
			cancelled bool
		)
		sel := workflow.NewSelector(ctx)
		sel.AddReceive(paxCh, func(c workflow.ReceiveChannel, more bool) {
			var sig models.SubmitPassengersSignal
			c.Receive(ctx, &sig)
			pax = &sig
		})
		sel.AddReceive(cancelCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, nil)
			cancelled = true
		})
		sel.Select(ctx)
		if ctx.Err() != nil || cancelled {
			return cleanup("cancelled"), nil
		}
		if pax == nil {
			continue
		}

		// Local validation; on failure no network call is made.
		verrs := rules.Validate(pax.Travellers, pax.Contact, ruleset)
		if !verrs.Empty() {
			state.Validation = &verrs
			state.LastUpdated = workflow.Now(ctx)
			continue
		}
		if !countsMatch(pax.Travellers, sess.Pricing) {
			state.Validation = &models.ValidationErrors{
				Contact: map[string]string{"travellers": "passenger records do not match the confirmed counts"},
			}
			state.LastUpdated = workflow.Now(ctx)
			continue
		}
		state.Validation = nil

		sess.Passengers = pax.Travellers
		sess.Contact = pax.Contact
		sess.Ancillaries = pax.Ancillaries
		state.Passengers = pax.Travellers
		state.Contact = pax.Contact
		recomputePayable()
		saveSession()

		for {
			var out activities.CreateItineraryOutput
			err := workflow.ExecuteActivity(ctx, "CreateItinerary", activities.CreateItineraryInput{
				BookingID:   input.BookingID,
				TUI:         sess.TUI,
				Contact:     sess.Contact,
				Travellers:  sess.Passengers,
				NetAmount:   sess.PayableAmount,
				Ancillaries: sess.Ancillaries,
			}).Get(ctx, &out)

			if err != nil {
				logger.Error("Itinerary submission failed", "error", err)
				state.FailureReason = "itinerary submission unavailable"
				state.LastUpdated = workflow.Now(ctx)
				continue readyLoop
			}

			if out.FareChanged {
				state.OldFare = out.OldFare
				state.NewFare = out.NewFare
				setStatus(models.StatusFareChange)

				accept, cancelled := awaitFareDecision()
				if cancelled {
					return cleanup("cancelled"), nil
				}
				if !accept {
					return cleanup("fare_rejected"), nil
				}
				sess.Pricing.NetFare = out.NewFare
				state.OldFare, state.NewFare = 0, 0
				recomputePayable()
				setStatus(models.StatusReady)
				continue
			}
			if out.SessionExpired {
				return expire(), nil
			}
			if !out.Success {
				state.FailureReason = out.Message
				state.LastUpdated = workflow.Now(ctx)
				continue readyLoop
			}

			sess.TransactionID = out.TransactionID
			state.TransactionID = out.TransactionID
			if out.TUI != "" {
				// Payment must use the token itinerary creation returned.
				sess.TUI = out.TUI
			}
			state.FailureReason = ""
			break readyLoop
		}
	}

	// --- Paying ---

	setStatus(models.StatusPaying)

	for {
		var (
			paySig    *models.SubmitPaymentSignal
			cancelled bool
		)
		sel := workflow.NewSelector(ctx)
		sel.AddReceive(payCh, func(c workflow.ReceiveChannel, more bool) {
			var sig models.SubmitPaymentSignal
			c.Receive(ctx, &sig)
			paySig = &sig
		})
		sel.AddReceive(cancelCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, nil)
			cancelled = true
		})
		sel.Select(ctx)
		if ctx.Err() != nil || cancelled {
			return cleanup("cancelled"), nil
		}
		if paySig == nil {
			continue
		}

		state.PaymentAttempts++

		var out activities.StartPayOutput
		err := workflow.ExecuteActivity(payCtx, "StartPay", activities.StartPayInput{
			BookingID:     input.BookingID,
			TransactionID: sess.TransactionID,
			NetAmount:     sess.PayableAmount,
			TUI:           sess.TUI,
			PayMode:       paySig.PayMode,
		}).Get(ctx, &out)

		if err != nil {
			logger.Error("Payment attempt failed", "error", err, "attempt", state.PaymentAttempts)
			state.FailureReason = "payment attempt failed"
			state.LastUpdated = workflow.Now(ctx)
			continue
		}
		if !out.Success {
			// Terminal for the attempt, not for the booking; the agent may
			// retry without re-collecting passenger data.
			state.FailureReason = out.Message
			state.LastUpdated = workflow.Now(ctx)
			continue
		}

		recordStatus := database.RecordStatusConfirmed
		if out.InProgress {
			recordStatus = database.RecordStatusInProgress
		}
		rec := database.BookingRecord{
			BookingID:     input.BookingID,
			TransactionID: sess.TransactionID,
			Origin:        input.Search.Origin,
			Destination:   input.Search.Destination,
			DepartDate:    input.Search.DepartDate,
			Passengers:    len(sess.Passengers),
			NetAmount:     sess.Pricing.NetFare,
			TotalAmount:   sess.PayableAmount,
			Status:        recordStatus,
			ContactEmail:  sess.Contact.Email,
		}
		if err := workflow.ExecuteActivity(ctx, "RecordBooking", activities.RecordBookingInput{Record: rec}).Get(ctx, nil); err != nil {
			logger.Error("Failed to archive booking", "error", err)
		}

		clearSession()
		state.Status = models.StatusComplete
		state.FailureReason = ""
		state.LastUpdated = workflow.Now(ctx)

		logger.Info("Booking complete", "bookingId", input.BookingID, "transactionId", sess.TransactionID)
		return &models.BookingWorkflowResult{Success: true, TransactionID: sess.TransactionID}, nil
	}
}

func countsMatch(travellers []models.PassengerRecord, conf models.PricingConfirmation) bool {
	var adt, chd, inf int
	for _, t := range travellers {
		switch t.Type {
		case models.PaxAdult:
			adt++
		case models.PaxChild:
			chd++
		case models.PaxInfant:
			inf++
		}
	}
	return adt == conf.Adults && chd == conf.Children && inf == conf.Infants
}
