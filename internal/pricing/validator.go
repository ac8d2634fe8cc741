package pricing

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/farebridge/agency-booking/internal/gds"
	"github.com/farebridge/agency-booking/internal/models"
)

// Outcome classifies a price confirmation attempt. Only FareChanged is
// recoverable with user consent; SessionExpired is terminal for the booking.
type Outcome string

const (
	OutcomeConfirmed      Outcome = "confirmed"
	OutcomeFareChanged    Outcome = "fare_changed"
	OutcomeSessionExpired Outcome = "session_expired"
	OutcomeFailed         Outcome = "failed"
)

// Result carries the classified outcome of the two-step pricing chain.
type Result struct {
	Outcome      Outcome                    `json:"outcome"`
	Confirmation models.PricingConfirmation `json:"confirmation"`
	OldFare      float64                    `json:"oldFare,omitempty"`
	NewFare      float64                    `json:"newFare,omitempty"`
	Message      string                     `json:"message,omitempty"`
}

type pricer interface {
	SmartPricer(ctx context.Context, req *gds.SmartPricerRequest) (*gds.SmartPricerResponse, error)
	GetSPricer(ctx context.Context, req *gds.GetSPricerRequest) (*gds.GetSPricerResponse, error)
}

// Validator obtains a confirmed session-bound price for a search candidate.
// It performs no caching; every call hits the upstream.
type Validator struct {
	client   pricer
	clientID string
}

func NewValidator(client pricer, clientID string) *Validator {
	return &Validator{client: client, clientID: clientID}
}

// ConfirmPrice locks the candidate's fare against the search session and
// confirms it, returning the new session token and upstream-computed
// passenger counts. Transport errors are returned as Go errors; upstream
// business failures come back classified in the Result.
func (v *Validator) ConfirmPrice(ctx context.Context, candidate models.Candidate, searchTUI string, tripType models.TripType) (*Result, error) {
	lock, err := v.client.SmartPricer(ctx, &gds.SmartPricerRequest{
		Trips: []gds.SmartPricerTrip{{
			Amount:  candidate.EffectiveFare(),
			Index:   candidate.Index,
			OrderID: 1,
			TUI:     searchTUI,
		}},
		ClientID: v.clientID,
		Mode:     "SS",
		Options:  "A",
		TripType: string(tripType),
	})
	if err != nil {
		return nil, err
	}
	if lock.Code != gds.CodeOK {
		return classifyFailure(lock.Code, gds.FirstMsg(lock.Msg)), nil
	}

	conf, err := v.client.GetSPricer(ctx, &gds.GetSPricerRequest{
		TUI:      lock.TUI,
		ClientID: v.clientID,
	})
	if err != nil {
		return nil, err
	}

	msg := gds.FirstMsg(conf.Msg)
	if oldFare, newFare, ok := ParseFareChange(msg); ok {
		res := &Result{
			Outcome: OutcomeFareChanged,
			OldFare: oldFare,
			NewFare: newFare,
			Message: msg,
			Confirmation: models.PricingConfirmation{
				TUI:       tokenOf(conf.TUI, lock.TUI),
				NetFare:   conf.NetAmount,
				GrossFare: conf.GrossAmount,
				Adults:    conf.ADT,
				Children:  conf.CHD,
				Infants:   conf.INF,
			},
		}
		if res.Confirmation.NetFare == 0 {
			res.Confirmation.NetFare = newFare
		}
		return res, nil
	}

	if conf.Code != gds.CodeOK {
		return classifyFailure(conf.Code, msg), nil
	}

	return &Result{
		Outcome: OutcomeConfirmed,
		Confirmation: models.PricingConfirmation{
			TUI:       tokenOf(conf.TUI, lock.TUI),
			NetFare:   conf.NetAmount,
			GrossFare: conf.GrossAmount,
			Adults:    conf.ADT,
			Children:  conf.CHD,
			Infants:   conf.INF,
		},
	}, nil
}

func tokenOf(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func classifyFailure(code, msg string) *Result {
	if IsSessionExpired(code, msg) {
		return &Result{Outcome: OutcomeSessionExpired, Message: msg}
	}
	if msg == "" {
		msg = "pricing failed with code " + code
	}
	return &Result{Outcome: OutcomeFailed, Message: msg}
}

// The upstream embeds both amounts in the failure message, e.g.
// "...Previous Amt:-4500...New Amt:-4800...".
var fareChangeRe = regexp.MustCompile(`Previous\s*Amt:-\s*([0-9]+(?:\.[0-9]+)?).*?New\s*Amt:-\s*([0-9]+(?:\.[0-9]+)?)`)

// ParseFareChange extracts the previous and new amounts from a fare-change
// message. ok is false when the message is not a fare-change notice.
func ParseFareChange(msg string) (oldFare, newFare float64, ok bool) {
	m := fareChangeRe.FindStringSubmatch(msg)
	if m == nil {
		return 0, 0, false
	}
	oldFare, err1 := strconv.ParseFloat(m[1], 64)
	newFare, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return oldFare, newFare, true
}

// IsSessionExpired reports whether the upstream says the pricing/search
// session is gone. Terminal: the booking session must be cleared.
func IsSessionExpired(code, msg string) bool {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "session") &&
		(strings.Contains(lower, "expired") || strings.Contains(lower, "not found") || strings.Contains(lower, "invalid")) {
		return true
	}
	return false
}
