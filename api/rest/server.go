// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package rest serves the order service over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/logging"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// OrderService is the business surface exposed over http.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/order_service_mock.go -package mocks code.funtury.io/predictmarket/api/rest OrderService
type OrderService interface {
	Create(ctx context.Context, sub types.OrderSubmission) (*types.SubmissionResult, error)
	Cancel(ctx context.Context, id uint64) (*types.Order, *types.Transaction, error)
	ListOrderBook(ctx context.Context, market, outcome string) ([]*types.Order, error)
	ListUserTransactions(ctx context.Context, user string) ([]*types.Transaction, error)
}

type Server struct {
	*httprouter.Router

	log *logging.Logger
	cfg Config
	svc OrderService
}

func NewServer(log *logging.Logger, cfg Config, svc OrderService) *Server {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	s := &Server{
		Router: httprouter.New(),
		log:    log,
		cfg:    cfg,
		svc:    svc,
	}

	s.GET("/", s.root)
	s.GET("/health", s.health)
	s.POST("/orders", s.CreateOrder)
	s.POST("/orders/:id/cancel", s.CancelOrder)
	s.GET("/orders/:market_address/:outcome", s.OrderBook)
	s.GET("/user/:user_address/transactions", s.UserTransactions)

	return s
}

// ReloadConf updates the internal configuration.
func (s *Server) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}
}

// Handler returns the router wrapped with cors, metrics and request logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s
	h = LoggingMiddleware(s.log, h)
	h = MetricCollectionMiddleware(h)
	return cors.New(CORSOptions(s.cfg.CORS)).Handler(h)
}

// Start serves requests until ctx is done, then shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.IP, s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout.Get(),
	}

	s.log.Info("starting rest api", logging.String("address", srv.Addr))
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Get())
	defer cancel()
	s.log.Info("stopping rest api")
	return srv.Shutdown(sctx)
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeSuccess(w, map[string]string{"message": "Welcome to Predict Market API."}, http.StatusOK)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeSuccess(w, map[string]bool{"success": true}, http.StatusOK)
}

func (s *Server) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := OrderRequest{}
	if err := unmarshalBody(w, r, &req); err != nil {
		writeError(w, newErrorWithDetails(ErrInvalidRequest.Error(), []string{err.Error()}), http.StatusBadRequest)
		return
	}

	res, err := s.svc.Create(r.Context(), req.IntoSubmission())
	if err != nil {
		s.writeServiceError(w, err, res)
		return
	}
	writeSuccess(w, NewSubmissionResponse(res), http.StatusOK)
}

func (s *Server) CancelOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := strconv.ParseUint(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, newErrorWithDetails(ErrInvalidRequest.Error(), []string{"order id must be a positive integer"}), http.StatusBadRequest)
		return
	}

	o, _, err := s.svc.Cancel(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	writeSuccess(w, NewOrderResponse(o), http.StatusOK)
}

func (s *Server) OrderBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	book, err := s.svc.ListOrderBook(r.Context(), ps.ByName("market_address"), ps.ByName("outcome"))
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	out := make([]*OrderResponse, 0, len(book))
	for _, o := range book {
		out = append(out, NewOrderResponse(o))
	}
	writeSuccess(w, out, http.StatusOK)
}

func (s *Server) UserTransactions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	txs, err := s.svc.ListUserTransactions(r.Context(), ps.ByName("user_address"))
	if err != nil {
		s.writeServiceError(w, err, nil)
		return
	}
	out := make([]*TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, NewTransactionResponse(t))
	}
	writeSuccess(w, out, http.StatusOK)
}

// StatusFor maps an error category to the http status reported to clients.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrPrecondition),
		errors.Is(err, types.ErrMarketUnavailable),
		errors.Is(err, types.ErrInvalidState),
		errors.Is(err, types.ErrSettlement):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error, res *types.SubmissionResult) {
	status := StatusFor(err)
	herr := newError(err.Error())
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", logging.Error(err))
		herr = newError("internal error")
	}

	var serr *types.SettlementError
	if errors.As(err, &serr) {
		herr.Details = settlementDetails(serr)
	}
	// fills that settled before the failure were kept
	if res != nil {
		herr.Result = NewSubmissionResponse(res)
	}
	writeError(w, herr, status)
}

func settlementDetails(e *types.SettlementError) []string {
	details := []string{
		"maker_serial: " + e.MakerSerial,
		"seller: " + e.Transfer.Seller,
		"buyer: " + e.Transfer.Buyer,
		"amount: " + strconv.FormatUint(e.Transfer.Amount, 10),
		"price: " + e.Transfer.Price.String(),
		"reverted: " + strconv.FormatBool(e.Reverted),
	}
	if e.TxHash != "" {
		details = append(details, "tx_hash: "+e.TxHash)
	}
	return details
}

func unmarshalBody(w http.ResponseWriter, r *http.Request, into interface{}) error {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return ErrInvalidRequest
	}
	return json.Unmarshal(body, into)
}

func writeError(w http.ResponseWriter, e error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf, _ := json.Marshal(e)
	w.Write(buf)
}

func writeSuccess(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	buf, _ := json.Marshal(data)
	w.Write(buf)
}
