package gds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farebridge/agency-booking/internal/models"
)

func TestNewExpressSearchRequest(t *testing.T) {
	search := &models.SearchRequest{
		TripType:    models.TripTypeRoundTrip,
		Origin:      "DEL",
		Destination: "BOM",
		DepartDate:  "2025-07-01",
		ReturnDate:  "2025-07-05",
		Adults:      2,
		Children:    1,
		Cabin:       models.CabinEconomy,
		DirectOnly:  true,
	}

	req := NewExpressSearchRequest(search, "bitest")

	assert.Equal(t, 2, req.ADT)
	assert.Equal(t, 1, req.CHD)
	assert.Equal(t, 0, req.INF)
	assert.Equal(t, "bitest", req.ClientID)
	assert.Equal(t, "RT", req.FareType)
	assert.True(t, req.IsDirect)
	require.Len(t, req.Trips, 1)
	assert.Equal(t, "DEL", req.Trips[0].From)
	assert.Equal(t, "2025-07-05", req.Trips[0].ReturnDate)

	// One way drops the return date even if set.
	search.TripType = models.TripTypeOneWay
	req = NewExpressSearchRequest(search, "bitest")
	assert.Empty(t, req.Trips[0].ReturnDate)
}

func TestCandidatesTranslation(t *testing.T) {
	resp := &GetExpSearchResponse{
		Completed: "True",
		Trips: []SearchTrip{{
			Journey: []JourneyOption{
				{Index: "1A", VAC: "6E", MAC: "AI", FlightNo: "2046", Refundable: "Y", NetFare: 3900},
				{Index: "1B", MAC: "AI", Refundable: "N", NetFare: 4100},
			},
		}},
	}

	cs := resp.Candidates()
	require.Len(t, cs, 2)

	// Validating carrier wins; marketing carrier is the fallback.
	assert.Equal(t, "6E", cs[0].Carrier)
	assert.Equal(t, "AI", cs[1].Carrier)
	assert.True(t, cs[0].Refundable)
	assert.False(t, cs[1].Refundable)
	assert.Equal(t, 3900.0, cs[0].QuotedFare)
	assert.True(t, resp.IsComplete())
}

func TestFirstMsg(t *testing.T) {
	assert.Equal(t, "", FirstMsg(nil))
	assert.Equal(t, "first", FirstMsg([]string{"first", "second"}))
}

func TestClientPostFillsAuthAndClientID(t *testing.T) {
	var gotAuth string
	var gotBody SmartPricerRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(SmartPricerResponse{Code: CodeOK, TUI: "lock-tui"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret-token", ClientID: "bitest"})

	resp, err := c.SmartPricer(context.Background(), &SmartPricerRequest{
		Trips: []SmartPricerTrip{{Index: "1A", TUI: "search-tui", Amount: 3900, OrderID: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "bitest", gotBody.ClientID)
	assert.Equal(t, "lock-tui", resp.TUI)
}

func TestClientNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, ClientID: "bitest"})

	_, err := c.GetExpSearch(context.Background(), &GetExpSearchRequest{TUI: "tui-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestIsTimeout(t *testing.T) {
	assert.False(t, IsTimeout(nil))
	assert.True(t, IsTimeout(context.DeadlineExceeded))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, ClientID: "bitest", Timeout: 5 * time.Millisecond})
	_, err := c.GetExpSearch(context.Background(), &GetExpSearchRequest{TUI: "tui-1"})
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}
