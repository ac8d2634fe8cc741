package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/farebridge/agency-booking/internal/handlers"
	"github.com/farebridge/agency-booking/internal/websocket"
)

// NewRouter configures all API routes
func NewRouter(h *handlers.Handler, hub *websocket.Hub) *mux.Router {
	r := mux.NewRouter()

	r.Use(corsMiddleware)

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Flight search
	api.HandleFunc("/search", h.StartSearch).Methods("POST")
	api.HandleFunc("/search/{tui}", h.GetSearch).Methods("GET")
	api.HandleFunc("/search/{tui}", h.CancelSearch).Methods("DELETE")
	api.HandleFunc("/search/{tui}/ws", func(w http.ResponseWriter, req *http.Request) {
		hub.Subscribe(w, req, mux.Vars(req)["tui"])
	}).Methods("GET")

	// Bookings
	api.HandleFunc("/bookings", h.StartBooking).Methods("POST")
	api.HandleFunc("/bookings", h.ListBookings).Methods("GET")
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods("GET")
	api.HandleFunc("/bookings/{id}", h.CancelBooking).Methods("DELETE")
	api.HandleFunc("/bookings/{id}/fare", h.DecideFare).Methods("POST")
	api.HandleFunc("/bookings/{id}/passengers", h.SubmitPassengers).Methods("POST")
	api.HandleFunc("/bookings/{id}/ancillaries", h.GetAncillaries).Methods("GET")
	api.HandleFunc("/bookings/{id}/pay", h.SubmitPayment).Methods("POST")
	api.HandleFunc("/bookings/{id}/retry", h.RetryPricing).Methods("POST")
	api.HandleFunc("/bookings/{id}/record", h.RetrieveBooking).Methods("GET")
	api.HandleFunc("/bookings/{id}/void", h.VoidBooking).Methods("POST")

	return r
}

// corsMiddleware adds CORS headers for the agent portal frontend
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
