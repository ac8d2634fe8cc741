package workflows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/farebridge/agency-booking/internal/activities"
	"github.com/farebridge/agency-booking/internal/database"
	"github.com/farebridge/agency-booking/internal/models"
	"github.com/farebridge/agency-booking/internal/pricing"
	"github.com/farebridge/agency-booking/internal/rules"
)

type BookingWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *BookingWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterActivity(&activities.Activities{})
}

func (s *BookingWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func TestBookingWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(BookingWorkflowTestSuite))
}

func testInput() models.BookingWorkflowInput {
	return models.BookingWorkflowInput{
		BookingID: "bk-test-1",
		TUI:       "search-tui",
		Search: models.SearchRequest{
			TripType:    models.TripTypeOneWay,
			Origin:      "DEL",
			Destination: "BOM",
			DepartDate:  "2025-07-01",
			Adults:      1,
		},
		Candidate: models.Candidate{Index: "1A", Carrier: "6E", QuotedFare: 892},
	}
}

func validPassengers() models.SubmitPassengersSignal {
	return models.SubmitPassengersSignal{
		Travellers: []models.PassengerRecord{
			{ID: 1, Type: models.PaxAdult, FirstName: "Asha", LastName: "Rao", DOB: "1990-02-11", PassportNo: "P1234567"},
		},
		Contact: models.ContactInfo{Email: "agent@example.com", Phone: "9876543210"},
	}
}

func confirmedPricing() *pricing.Result {
	return &pricing.Result{
		Outcome: pricing.OutcomeConfirmed,
		Confirmation: models.PricingConfirmation{
			TUI: "priced-tui", NetFare: 892, GrossFare: 940, Adults: 1,
		},
	}
}

func defaultRuleset() *rules.Ruleset {
	rs := rules.Default()
	return &rs
}

// mockAmbient covers the activities every path through the workflow touches.
func (s *BookingWorkflowTestSuite) mockAmbient() {
	s.env.OnActivity("SaveSession", mock.Anything, mock.Anything).Return(nil)
}

func (s *BookingWorkflowTestSuite) queryState() models.BookingState {
	val, err := s.env.QueryWorkflow(models.QueryGetState)
	s.Require().NoError(err)
	var st models.BookingState
	s.Require().NoError(val.Get(&st))
	return st
}

func (s *BookingWorkflowTestSuite) TestHappyPath() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(confirmedPricing(), nil)
	s.env.OnActivity("FetchChecklist", mock.Anything, mock.Anything).Return(defaultRuleset(), nil)
	s.env.OnActivity("FetchAncillaries", mock.Anything, mock.Anything).Return(&activities.FetchAncillariesOutput{}, nil)
	s.env.OnActivity("CreateItinerary", mock.Anything, mock.Anything).Return(&activities.CreateItineraryOutput{
		Success: true, TransactionID: 77001, TUI: "itin-tui",
	}, nil)
	s.env.OnActivity("StartPay", mock.Anything, mock.Anything).Return(&activities.StartPayOutput{Success: true}, nil)
	s.env.OnActivity("RecordBooking", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		s.Equal(models.StatusReady, st.Status)
		s.Equal(892.0, st.NetFare)
		s.Len(st.Passengers, 1)

		s.env.SignalWorkflow(models.SignalSubmitPassengers, validPassengers())
	}, 100*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		s.Equal(models.StatusPaying, st.Status)
		s.Equal(int64(77001), st.TransactionID)

		s.env.SignalWorkflow(models.SignalSubmitPayment, models.SubmitPaymentSignal{})
	}, 200*time.Millisecond)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.True(result.Success)
	s.Equal(int64(77001), result.TransactionID)
	s.Equal(models.StatusComplete, s.queryState().Status)
}

func (s *BookingWorkflowTestSuite) TestFareChangeAccepted() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(&pricing.Result{
		Outcome: pricing.OutcomeFareChanged,
		OldFare: 892,
		NewFare: 950,
		Confirmation: models.PricingConfirmation{
			TUI: "priced-tui", NetFare: 950, Adults: 1,
		},
	}, nil)
	s.env.OnActivity("FetchChecklist", mock.Anything, mock.Anything).Return(defaultRuleset(), nil)
	s.env.OnActivity("FetchAncillaries", mock.Anything, mock.Anything).Return(&activities.FetchAncillariesOutput{}, nil)
	s.env.OnActivity("CreateItinerary", mock.Anything, mock.Anything).Return(&activities.CreateItineraryOutput{
		Success: true, TransactionID: 77002,
	}, nil)
	s.env.OnActivity("StartPay", mock.Anything, mock.Anything).Return(&activities.StartPayOutput{Success: true}, nil)
	s.env.OnActivity("RecordBooking", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		s.Equal(models.StatusFareChange, st.Status)
		s.Equal(892.0, st.OldFare)
		s.Equal(950.0, st.NewFare)

		s.env.SignalWorkflow(models.SignalFareDecision, models.FareDecisionSignal{Accept: true})
	}, 100*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		s.Equal(models.StatusReady, st.Status)
		// The accepted fare carries forward; the prompt amounts are cleared.
		s.Equal(950.0, st.NetFare)
		s.Zero(st.OldFare)
		s.Zero(st.NewFare)

		s.env.SignalWorkflow(models.SignalSubmitPassengers, validPassengers())
	}, 200*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(models.SignalSubmitPayment, models.SubmitPaymentSignal{})
	}, 300*time.Millisecond)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.True(result.Success)
}

func (s *BookingWorkflowTestSuite) TestFareChangeRejected() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(&pricing.Result{
		Outcome: pricing.OutcomeFareChanged,
		OldFare: 892,
		NewFare: 950,
	}, nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(models.SignalFareDecision, models.FareDecisionSignal{Accept: false})
	}, 100*time.Millisecond)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.False(result.Success)
	s.Equal("fare_rejected", result.FailureReason)
	s.Equal(models.StatusCancelled, s.queryState().Status)
}

func (s *BookingWorkflowTestSuite) TestSessionExpiredIsTerminal() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(&pricing.Result{
		Outcome: pricing.OutcomeSessionExpired,
		Message: "Session expired, please search again",
	}, nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.False(result.Success)
	s.Equal("session_expired", result.FailureReason)

	st := s.queryState()
	s.Equal(models.StatusError, st.Status)
	s.True(st.SessionExpired)
}

func (s *BookingWorkflowTestSuite) TestPricingFailureThenRetry() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(&pricing.Result{
		Outcome: pricing.OutcomeFailed,
		Message: "Fare basis not available",
	}, nil).Once()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(confirmedPricing(), nil).Once()
	s.env.OnActivity("FetchChecklist", mock.Anything, mock.Anything).Return(defaultRuleset(), nil)
	s.env.OnActivity("FetchAncillaries", mock.Anything, mock.Anything).Return(&activities.FetchAncillariesOutput{}, nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		s.Equal(models.StatusError, st.Status)
		s.Equal("Fare basis not available", st.FailureReason)
		s.False(st.SessionExpired)

		s.env.SignalWorkflow(models.SignalRetryPricing, nil)
	}, 100*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		s.Equal(models.StatusReady, s.queryState().Status)
		s.env.SignalWorkflow(models.SignalCancelBooking, nil)
	}, 200*time.Millisecond)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.False(result.Success)
	s.Equal("cancelled", result.FailureReason)
}

func (s *BookingWorkflowTestSuite) TestValidationFailureStaysReady() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(confirmedPricing(), nil)
	s.env.OnActivity("FetchChecklist", mock.Anything, mock.Anything).Return(defaultRuleset(), nil)
	s.env.OnActivity("FetchAncillaries", mock.Anything, mock.Anything).Return(&activities.FetchAncillariesOutput{}, nil)
	s.env.OnActivity("CreateItinerary", mock.Anything, mock.Anything).Return(&activities.CreateItineraryOutput{
		Success: true, TransactionID: 77003,
	}, nil).Once()
	s.env.OnActivity("StartPay", mock.Anything, mock.Anything).Return(&activities.StartPayOutput{Success: true}, nil)
	s.env.OnActivity("RecordBooking", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.RegisterDelayedCallback(func() {
		// Missing DOB and passport under the default ruleset.
		s.env.SignalWorkflow(models.SignalSubmitPassengers, models.SubmitPassengersSignal{
			Travellers: []models.PassengerRecord{
				{ID: 1, Type: models.PaxAdult, FirstName: "Asha", LastName: "Rao"},
			},
			Contact: models.ContactInfo{Email: "agent@example.com", Phone: "9876543210"},
		})
	}, 100*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		s.Equal(models.StatusReady, st.Status)
		s.Require().NotNil(st.Validation)
		s.Contains(st.Validation.Fields[1], "dob")
		s.Contains(st.Validation.Fields[1], "passportNo")

		s.env.SignalWorkflow(models.SignalSubmitPassengers, validPassengers())
	}, 200*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		s.Equal(models.StatusPaying, st.Status)
		s.Nil(st.Validation)

		s.env.SignalWorkflow(models.SignalSubmitPayment, models.SubmitPaymentSignal{})
	}, 300*time.Millisecond)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.True(result.Success)
}

func (s *BookingWorkflowTestSuite) TestFareChangeDuringItinerary() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(confirmedPricing(), nil)
	s.env.OnActivity("FetchChecklist", mock.Anything, mock.Anything).Return(defaultRuleset(), nil)
	s.env.OnActivity("FetchAncillaries", mock.Anything, mock.Anything).Return(&activities.FetchAncillariesOutput{}, nil)
	s.env.OnActivity("CreateItinerary", mock.Anything, mock.Anything).Return(&activities.CreateItineraryOutput{
		FareChanged: true, OldFare: 892, NewFare: 950,
	}, nil).Once()
	s.env.OnActivity("CreateItinerary", mock.Anything, mock.Anything).Return(&activities.CreateItineraryOutput{
		Success: true, TransactionID: 77006,
	}, nil).Once()
	s.env.OnActivity("StartPay", mock.Anything, mock.Anything).Return(&activities.StartPayOutput{Success: true}, nil)
	s.env.OnActivity("RecordBooking", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(models.SignalSubmitPassengers, validPassengers())
	}, 100*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		s.Equal(models.StatusFareChange, st.Status)
		s.Equal(950.0, st.NewFare)

		s.env.SignalWorkflow(models.SignalFareDecision, models.FareDecisionSignal{Accept: true})
	}, 200*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		s.Equal(models.StatusPaying, st.Status)
		// The itinerary is resubmitted with the accepted fare; no fresh
		// passenger input is needed.
		s.Equal(950.0, st.NetFare)

		s.env.SignalWorkflow(models.SignalSubmitPayment, models.SubmitPaymentSignal{})
	}, 300*time.Millisecond)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.True(result.Success)
	s.Equal(int64(77006), result.TransactionID)
}

func (s *BookingWorkflowTestSuite) TestCancelDuringReady() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(confirmedPricing(), nil)
	s.env.OnActivity("FetchChecklist", mock.Anything, mock.Anything).Return(defaultRuleset(), nil)
	s.env.OnActivity("FetchAncillaries", mock.Anything, mock.Anything).Return(&activities.FetchAncillariesOutput{}, nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.RegisterDelayedCallback(func() {
		s.Equal(models.StatusReady, s.queryState().Status)
		s.env.SignalWorkflow(models.SignalCancelBooking, nil)
	}, 100*time.Millisecond)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.False(result.Success)
	s.Equal("cancelled", result.FailureReason)
	s.Equal(models.StatusCancelled, s.queryState().Status)
}

func (s *BookingWorkflowTestSuite) TestPaymentFailureThenRetry() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(confirmedPricing(), nil)
	s.env.OnActivity("FetchChecklist", mock.Anything, mock.Anything).Return(defaultRuleset(), nil)
	s.env.OnActivity("FetchAncillaries", mock.Anything, mock.Anything).Return(&activities.FetchAncillariesOutput{}, nil)
	s.env.OnActivity("CreateItinerary", mock.Anything, mock.Anything).Return(&activities.CreateItineraryOutput{
		Success: true, TransactionID: 77004,
	}, nil)
	s.env.OnActivity("StartPay", mock.Anything, mock.Anything).Return(&activities.StartPayOutput{
		Message: "Insufficient deposit balance",
	}, nil).Once()
	s.env.OnActivity("StartPay", mock.Anything, mock.Anything).Return(&activities.StartPayOutput{Success: true}, nil).Once()
	s.env.OnActivity("RecordBooking", mock.Anything, mock.Anything).Return(nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(models.SignalSubmitPassengers, validPassengers())
	}, 100*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(models.SignalSubmitPayment, models.SubmitPaymentSignal{})
	}, 200*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		st := s.queryState()
		// A declined payment leaves the booking payable, not failed.
		s.Equal(models.StatusPaying, st.Status)
		s.Equal(1, st.PaymentAttempts)
		s.Equal("Insufficient deposit balance", st.FailureReason)

		s.env.SignalWorkflow(models.SignalSubmitPayment, models.SubmitPaymentSignal{})
	}, 300*time.Millisecond)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.True(result.Success)
	s.Equal(2, s.queryState().PaymentAttempts)
}

func (s *BookingWorkflowTestSuite) TestInProgressPaymentArchivedAsInProgress() {
	s.mockAmbient()
	s.env.OnActivity("ConfirmPrice", mock.Anything, mock.Anything).Return(confirmedPricing(), nil)
	s.env.OnActivity("FetchChecklist", mock.Anything, mock.Anything).Return(defaultRuleset(), nil)
	s.env.OnActivity("FetchAncillaries", mock.Anything, mock.Anything).Return(&activities.FetchAncillariesOutput{}, nil)
	s.env.OnActivity("CreateItinerary", mock.Anything, mock.Anything).Return(&activities.CreateItineraryOutput{
		Success: true, TransactionID: 77005,
	}, nil)
	s.env.OnActivity("StartPay", mock.Anything, mock.Anything).Return(&activities.StartPayOutput{
		Success: true, InProgress: true,
	}, nil)
	s.env.OnActivity("RecordBooking", mock.Anything, mock.MatchedBy(func(in activities.RecordBookingInput) bool {
		return in.Record.Status == database.RecordStatusInProgress
	})).Return(nil)
	s.env.OnActivity("ClearSession", mock.Anything, mock.Anything).Return(nil)

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(models.SignalSubmitPassengers, validPassengers())
	}, 100*time.Millisecond)

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(models.SignalSubmitPayment, models.SubmitPaymentSignal{})
	}, 200*time.Millisecond)

	s.env.ExecuteWorkflow(BookingWorkflow, testInput())

	s.True(s.env.IsWorkflowCompleted())
	var result models.BookingWorkflowResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.True(result.Success)
}
