package gds

import "github.com/farebridge/agency-booking/internal/models"

// Wire shapes for the upstream reservation API. Field names are the
// upstream's own and must not be renamed; optional fields tolerate absence.

// CodeOK is the upstream's business-level success code. Failures are
// distinguished by Code/Msg content, never by transport status.
const CodeOK = "200"

// CodePaymentInProgress is returned by StartPay while the payment is still
// settling upstream. Treated as accepted pending confirmation against
// upstream documentation.
const CodePaymentInProgress = "6033"

type TripRequest struct {
	From       string `json:"From"`
	To         string `json:"To"`
	OnwardDate string `json:"OnwardDate"`
	ReturnDate string `json:"ReturnDate,omitempty"`
	TUI        string `json:"TUI"`
}

type ExpressSearchRequest struct {
	ADT               int           `json:"ADT"`
	CHD               int           `json:"CHD"`
	INF               int           `json:"INF"`
	Cabin             string        `json:"Cabin"`
	Source            string        `json:"Source"`
	Mode              string        `json:"Mode"`
	TUI               string        `json:"TUI"`
	FareType          string        `json:"FareType"`
	Trips             []TripRequest `json:"Trips"`
	ClientID          string        `json:"ClientID"`
	IsMultipleCarrier bool          `json:"IsMultipleCarrier"`
	IsRefundable      bool          `json:"IsRefundable"`
	IsDirect          bool          `json:"IsDirect"`
	IsStudentFare     bool          `json:"IsStudentFare"`
	IsNearbyAirport   bool          `json:"IsNearbyAirport"`
}

type ExpressSearchResponse struct {
	TUI  string   `json:"TUI"`
	Code string   `json:"Code"`
	Msg  []string `json:"Msg,omitempty"`
}

type GetExpSearchRequest struct {
	ClientID string `json:"ClientID"`
	TUI      string `json:"TUI"`
}

type JourneyOption struct {
	Index         string  `json:"Index"`
	Provider      string  `json:"Provider,omitempty"`
	MAC           string  `json:"MAC,omitempty"`
	VAC           string  `json:"VAC,omitempty"`
	FlightNo      string  `json:"FlightNo,omitempty"`
	From          string  `json:"From"`
	To            string  `json:"To"`
	DepartureTime string  `json:"DepartureTime,omitempty"`
	ArrivalTime   string  `json:"ArrivalTime,omitempty"`
	Duration      string  `json:"Duration,omitempty"`
	Stops         int     `json:"Stops"`
	Refundable    string  `json:"Refundable,omitempty"`
	NetFare       float64 `json:"NetFare"`
	GrossFare     float64 `json:"GrossFare"`
}

type SearchTrip struct {
	Journey []JourneyOption `json:"Journey"`
}

type GetExpSearchResponse struct {
	TUI       string       `json:"TUI"`
	Completed string       `json:"Completed,omitempty"`
	Trips     []SearchTrip `json:"Trips,omitempty"`
	Code      string       `json:"Code"`
	Msg       []string     `json:"Msg,omitempty"`
}

// IsComplete reports whether the upstream has finished fanning out the search.
func (r *GetExpSearchResponse) IsComplete() bool {
	return r.Completed == "True" || r.Completed == "true"
}

type SmartPricerTrip struct {
	Amount  float64 `json:"Amount"`
	Index   string  `json:"Index"`
	OrderID int     `json:"OrderID"`
	TUI     string  `json:"TUI"`
}

type SmartPricerRequest struct {
	Trips    []SmartPricerTrip `json:"Trips"`
	ClientID string            `json:"ClientID"`
	Mode     string            `json:"Mode"`
	Options  string            `json:"Options"`
	Source   string            `json:"Source"`
	TripType string            `json:"TripType"`
}

type SmartPricerResponse struct {
	TUI  string   `json:"TUI"`
	Code string   `json:"Code"`
	Msg  []string `json:"Msg,omitempty"`
}

type GetSPricerRequest struct {
	TUI      string `json:"TUI"`
	ClientID string `json:"ClientID"`
}

type GetSPricerResponse struct {
	TUI         string   `json:"TUI"`
	Code        string   `json:"Code"`
	Msg         []string `json:"Msg,omitempty"`
	NetAmount   float64  `json:"NetAmount"`
	GrossAmount float64  `json:"GrossAmount"`
	ADT         int      `json:"ADT"`
	CHD         int      `json:"CHD"`
	INF         int      `json:"INF"`
}

type TravelCheckListRequest struct {
	TUI      string `json:"TUI"`
	ClientID string `json:"ClientID"`
}

// TravellerCheckListItem flags which passenger fields the trip requires;
// the value "1" means required.
type TravellerCheckListItem struct {
	PassportNo  string `json:"PassportNo,omitempty"`
	PDOE        string `json:"PDOE,omitempty"`
	DOB         string `json:"DOB,omitempty"`
	Nationality string `json:"Nationality,omitempty"`
	VisaType    string `json:"VisaType,omitempty"`
}

type FnuLnuSetting struct {
	FirstNameErrorMsg string `json:"FirstNameErrorMsg,omitempty"`
	LastNameErrorMsg  string `json:"LastNameErrorMsg,omitempty"`
	IsTitleMandatory  bool   `json:"IsTitleMandatory,omitempty"`
}

type TravelCheckListResponse struct {
	Code               string                   `json:"Code"`
	Msg                []string                 `json:"Msg,omitempty"`
	TravellerCheckList []TravellerCheckListItem `json:"TravellerCheckList,omitempty"`
	FnuLnuSettings     []FnuLnuSetting          `json:"FnuLnuSettings,omitempty"`
}

type SSRRequest struct {
	TUI      string `json:"TUI"`
	ClientID string `json:"ClientID"`
	Source   string `json:"Source,omitempty"`
	FareType string `json:"FareType,omitempty"`
}

type SSRItem struct {
	ID          string  `json:"ID,omitempty"`
	Code        string  `json:"Code"`
	Description string  `json:"Description,omitempty"`
	Charge      float64 `json:"Charge"`
	PaxType     string  `json:"PaxType,omitempty"`
}

type SSRResponse struct {
	Code    string    `json:"Code"`
	Msg     []string  `json:"Msg,omitempty"`
	Baggage []SSRItem `json:"Baggage,omitempty"`
	Meals   []SSRItem `json:"Meals,omitempty"`
}

type ContactInfo struct {
	Title   string `json:"Title,omitempty"`
	FName   string `json:"FName,omitempty"`
	LName   string `json:"LName,omitempty"`
	Mobile  string `json:"Mobile"`
	Email   string `json:"Email"`
	Address string `json:"Address,omitempty"`
}

type ItineraryTraveller struct {
	ID          int    `json:"ID"`
	Title       string `json:"Title,omitempty"`
	FName       string `json:"FName"`
	LName       string `json:"LName"`
	Age         int    `json:"Age"`
	DOB         string `json:"DOB,omitempty"`
	Gender      string `json:"Gender,omitempty"`
	PTC         string `json:"PTC"`
	Nationality string `json:"Nationality,omitempty"`
	PassportNo  string `json:"PassportNo,omitempty"`
	PDOE        string `json:"PDOE,omitempty"`
	VisaType    string `json:"VisaType,omitempty"`
}

type SelectedSSR struct {
	PaxID       int     `json:"PaxID"`
	Code        string  `json:"Code"`
	Description string  `json:"Description,omitempty"`
	Charge      float64 `json:"Charge"`
}

type CreateItineraryRequest struct {
	TUI         string               `json:"TUI"`
	ClientID    string               `json:"ClientID"`
	ContactInfo ContactInfo          `json:"ContactInfo"`
	Travellers  []ItineraryTraveller `json:"Travellers"`
	NetAmount   float64              `json:"NetAmount"`
	SSRAmount   float64              `json:"SSRAmount"`
	SSR         []SelectedSSR        `json:"SSR,omitempty"`
}

type CreateItineraryResponse struct {
	TransactionID int64    `json:"TransactionID"`
	Code          string   `json:"Code"`
	Msg           []string `json:"Msg,omitempty"`
	TUI           string   `json:"TUI,omitempty"`
}

type StartPayRequest struct {
	TransactionID int64   `json:"TransactionID"`
	PayMode       string  `json:"PayMode"`
	NetAmount     float64 `json:"NetAmount"`
	ClientID      string  `json:"ClientID"`
	TUI           string  `json:"TUI"`
}

type StartPayResponse struct {
	Code          string   `json:"Code"`
	Msg           []string `json:"Msg,omitempty"`
	Status        string   `json:"Status,omitempty"`
	PaymentID     string   `json:"PaymentID,omitempty"`
	TransactionID int64    `json:"TransactionID,omitempty"`
}

type RetrieveBookingRequest struct {
	TransactionID int64  `json:"TransactionID"`
	ClientID      string `json:"ClientID"`
}

type RetrieveBookingResponse struct {
	Code          string               `json:"Code"`
	Msg           []string             `json:"Msg,omitempty"`
	TransactionID int64                `json:"TransactionID"`
	Status        string               `json:"Status,omitempty"`
	PNR           string               `json:"PNR,omitempty"`
	NetAmount     float64              `json:"NetAmount,omitempty"`
	GrossAmount   float64              `json:"GrossAmount,omitempty"`
	Trips         []SearchTrip         `json:"Trips,omitempty"`
	Travellers    []ItineraryTraveller `json:"Travellers,omitempty"`
	ContactInfo   *ContactInfo         `json:"ContactInfo,omitempty"`
}

type CancelBookingRequest struct {
	TransactionID   int64  `json:"TransactionID"`
	ReferenceNumber string `json:"ReferenceNumber,omitempty"`
	CancelType      string `json:"CancelType,omitempty"`
	Remarks         string `json:"Remarks,omitempty"`
	ClientID        string `json:"ClientID"`
}

type CancelBookingResponse struct {
	Code   string   `json:"Code"`
	Status string   `json:"Status,omitempty"`
	Msg    []string `json:"Msg,omitempty"`
}

// FirstMsg returns the first upstream message, or empty
func FirstMsg(msgs []string) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0]
}

// NewExpressSearchRequest translates a validated domain search request into
// the upstream wire shape.
func NewExpressSearchRequest(r *models.SearchRequest, clientID string) *ExpressSearchRequest {
	trip := TripRequest{
		From:       r.Origin,
		To:         r.Destination,
		OnwardDate: r.DepartDate,
	}
	if r.TripType == models.TripTypeRoundTrip {
		trip.ReturnDate = r.ReturnDate
	}
	return &ExpressSearchRequest{
		ADT:             r.Adults,
		CHD:             r.Children,
		INF:             r.Infants,
		Cabin:           string(r.Cabin),
		Source:          "CF",
		Mode:            "AS",
		FareType:        string(r.TripType),
		Trips:           []TripRequest{trip},
		ClientID:        clientID,
		IsDirect:        r.DirectOnly,
		IsStudentFare:   r.StudentFare,
		IsNearbyAirport: r.NearbyAirport,
	}
}

// Candidates translates a poll response into domain candidates. Untyped
// upstream blobs stop here; everything past this boundary is typed.
func (r *GetExpSearchResponse) Candidates() []models.Candidate {
	var out []models.Candidate
	for _, trip := range r.Trips {
		for _, j := range trip.Journey {
			carrier := j.VAC
			if carrier == "" {
				carrier = j.MAC
			}
			out = append(out, models.Candidate{
				Index:         j.Index,
				Provider:      j.Provider,
				Carrier:       carrier,
				FlightNo:      j.FlightNo,
				From:          j.From,
				To:            j.To,
				DepartureTime: j.DepartureTime,
				ArrivalTime:   j.ArrivalTime,
				Duration:      j.Duration,
				Stops:         j.Stops,
				Refundable:    j.Refundable == "Y",
				QuotedFare:    j.NetFare,
				ConfirmedFare: j.GrossFare,
			})
		}
	}
	return out
}
