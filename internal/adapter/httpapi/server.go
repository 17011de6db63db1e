package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/example/notivlaai-service/internal/domain"
	"github.com/example/notivlaai-service/internal/usecase"
)

type Server struct {
	Router *mux.Router

	UCSuggest   usecase.SuggestCustomers
	UCOrders    usecase.OrdersForCustomer
	UCInTransit usecase.MarkOrderInTransit
	UCPickedUp  usecase.MarkOrderPickedUp
}

// NewServer wires the REST routes of the search view, the two status
// commands issued by the displays, the websocket endpoint and the static
// files.
func NewServer(
	suggest usecase.SuggestCustomers,
	orders usecase.OrdersForCustomer,
	inTransit usecase.MarkOrderInTransit,
	pickedUp usecase.MarkOrderPickedUp,
	ws http.HandlerFunc,
	staticDir string,
) *Server {
	s := &Server{
		Router:      mux.NewRouter(),
		UCSuggest:   suggest,
		UCOrders:    orders,
		UCInTransit: inTransit,
		UCPickedUp:  pickedUp,
	}
	s.Router.HandleFunc("/api/customers", s.handleSuggest).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/customer/{id}/orders", s.handleOrders).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/order/{id}/in-transit", s.handleInTransit).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/order/{id}/picked-up", s.handlePickedUp).Methods(http.MethodPost)
	if ws != nil {
		s.Router.HandleFunc("/ws", ws)
	}
	s.Router.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	return s
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	customers, err := s.UCSuggest.Execute(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("httpapi: suggest: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	writeJSON(w, customers)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	orders, err := s.UCOrders.Execute(r.Context(), id)
	if err != nil {
		log.Printf("httpapi: orders for customer %d: %v", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, orders)
}

func (s *Server) handleInTransit(w http.ResponseWriter, r *http.Request) {
	s.handleCommand(w, r, s.UCInTransit.Execute)
}

func (s *Server) handlePickedUp(w http.ResponseWriter, r *http.Request) {
	s.handleCommand(w, r, s.UCPickedUp.Execute)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request, execute func(ctx context.Context, id int) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := execute(r.Context(), id)
	status := commandStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("httpapi: command for order %d: %v", id, err)
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	http.Error(w, http.StatusText(status), status)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func commandStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusNoContent
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
