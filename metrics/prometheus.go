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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"code.funtury.io/predictmarket/logging"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "predictmarket"

const (
	// Gauge ...
	Gauge instrument = iota
	// Counter ...
	Counter
	// Histogram ...
	Histogram
)

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported.
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signal the type of the instrument is not expected.
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	setupOnce sync.Once
	setupErr  error

	orderCounter          *prometheus.CounterVec
	fillCounter           *prometheus.CounterVec
	settlementFailures    *prometheus.CounterVec
	settlementTime        *prometheus.HistogramVec
	bookGauge             *prometheus.GaugeVec
	sqlQueryCounter       *prometheus.CounterVec
	sqlQueryTimeCounter   *prometheus.CounterVec
	apiRequestCallCounter *prometheus.CounterVec
	apiRequestTimeCounter *prometheus.CounterVec
)

// abstract prometheus types.
type instrument int

// combine all possible prometheus options + way to differentiate between regular or vector type.
type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

type mi struct {
	gaugeV     *prometheus.GaugeVec
	gauge      prometheus.Gauge
	counterV   *prometheus.CounterVec
	counter    prometheus.Counter
	histogramV *prometheus.HistogramVec
	histogram  prometheus.Histogram
}

// InstrumentOption - vararg for instrument options setting.
type InstrumentOption func(o *instrumentOpts)

// Vectors - configuration used to create a vector of a given interface, slice of label names.
func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

// Help - set the help field on instrument.
func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

// Namespace - set namespace.
func Namespace(ns string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Namespace = ns
	}
}

// Buckets - specific to histogram type.
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument configure and register new metrics instrument.
func AddInstrument(t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Name: name,
		},
	}
	for _, o := range opts {
		o(&opt)
	}
	switch t {
	case Gauge:
		o := prometheus.GaugeOpts(opt.opts)
		if len(opt.vectors) == 0 {
			ret.gauge = prometheus.NewGauge(o)
			col = ret.gauge
		} else {
			ret.gaugeV = prometheus.NewGaugeVec(o, opt.vectors)
			col = ret.gaugeV
		}
	case Counter:
		o := prometheus.CounterOpts(opt.opts)
		if len(opt.vectors) == 0 {
			ret.counter = prometheus.NewCounter(o)
			col = ret.counter
		} else {
			ret.counterV = prometheus.NewCounterVec(o, opt.vectors)
			col = ret.counterV
		}
	case Histogram:
		o := prometheus.HistogramOpts{
			Name:        opt.opts.Name,
			Namespace:   opt.opts.Namespace,
			Subsystem:   opt.opts.Subsystem,
			ConstLabels: opt.opts.ConstLabels,
			Help:        opt.opts.Help,
			Buckets:     opt.buckets,
		}
		if len(opt.vectors) == 0 {
			ret.histogram = prometheus.NewHistogram(o)
			col = ret.histogram
		} else {
			ret.histogramV = prometheus.NewHistogramVec(o, opt.vectors)
			col = ret.histogramV
		}
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := prometheus.Register(col); err != nil {
		return nil, pkgerrors.Wrapf(err, "registering instrument %s", name)
	}
	return &ret, nil
}

// GaugeVec returns a prometheus GaugeVec instrument.
func (m mi) GaugeVec() (*prometheus.GaugeVec, error) {
	if m.gaugeV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gaugeV, nil
}

// CounterVec returns a prometheus CounterVec instrument.
func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func (m mi) HistogramVec() (*prometheus.HistogramVec, error) {
	if m.histogramV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogramV, nil
}

// Setup registers every instrument with the default registry. It is safe
// to call more than once.
func Setup() error {
	setupOnce.Do(func() {
		setupErr = setupMetrics()
	})
	return setupErr
}

func addCounterVec(name, help string, labels ...string) (*prometheus.CounterVec, error) {
	h, err := AddInstrument(Counter, name, Namespace(namespace), Vectors(labels...), Help(help))
	if err != nil {
		return nil, err
	}
	return h.CounterVec()
}

func setupMetrics() error {
	var err error

	if orderCounter, err = addCounterVec("orders_total", "Number of order requests processed", "action", "result"); err != nil {
		return err
	}
	if fillCounter, err = addCounterVec("fills_total", "Number of settled fills", "outcome"); err != nil {
		return err
	}
	if settlementFailures, err = addCounterVec("settlement_failures_total", "Number of failed share transfers", "reason"); err != nil {
		return err
	}

	h, err := AddInstrument(
		Histogram,
		"settlement_seconds",
		Namespace(namespace),
		Vectors("result"),
		Buckets([]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}),
		Help("Time spent submitting a share transfer and waiting for its receipt"),
	)
	if err != nil {
		return err
	}
	if settlementTime, err = h.HistogramVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Gauge,
		"book_orders",
		Namespace(namespace),
		Vectors("outcome"),
		Help("Number of orders in the last served order book query"),
	)
	if err != nil {
		return err
	}
	if bookGauge, err = h.GaugeVec(); err != nil {
		return err
	}

	if sqlQueryCounter, err = addCounterVec("sql_query_count_total", "Count of SQL queries", "store", "query"); err != nil {
		return err
	}
	if sqlQueryTimeCounter, err = addCounterVec("sql_query_time_total", "Total time spent in SQL queries", "store", "query"); err != nil {
		return err
	}
	if apiRequestCallCounter, err = addCounterVec("request_count_total", "Count of API requests", "apiType", "requestType"); err != nil {
		return err
	}
	if apiRequestTimeCounter, err = addCounterVec("request_time_total", "Total time spent in each API request", "apiType", "requestType"); err != nil {
		return err
	}
	return nil
}

// OrderCounterInc increments the order counter.
func OrderCounterInc(action, result string) {
	if orderCounter == nil {
		return
	}
	orderCounter.WithLabelValues(action, result).Inc()
}

// FillCounterAdd counts settled fills.
func FillCounterAdd(n int, outcome string) {
	if fillCounter == nil {
		return
	}
	fillCounter.WithLabelValues(outcome).Add(float64(n))
}

func SettlementFailureInc(reason string) {
	if settlementFailures == nil {
		return
	}
	settlementFailures.WithLabelValues(reason).Inc()
}

// StartSettlement returns a function recording the elapsed time under the
// result it is given.
func StartSettlement() func(result string) {
	startTime := time.Now()
	return func(result string) {
		if settlementTime == nil {
			return
		}
		settlementTime.WithLabelValues(result).Observe(time.Since(startTime).Seconds())
	}
}

func BookGaugeSet(n int, outcome string) {
	if bookGauge == nil {
		return
	}
	bookGauge.WithLabelValues(outcome).Set(float64(n))
}

// StartSQLQuery updates the SQL metrics once the returned function is called.
func StartSQLQuery(store, query string) func() {
	startTime := time.Now()
	return func() {
		if sqlQueryCounter == nil || sqlQueryTimeCounter == nil {
			return
		}
		sqlQueryCounter.WithLabelValues(store, query).Inc()
		sqlQueryTimeCounter.WithLabelValues(store, query).Add(time.Since(startTime).Seconds())
	}
}

// APIRequestAndTimeREST updates the metrics for REST API calls.
func APIRequestAndTimeREST(request string, time float64) {
	if apiRequestCallCounter == nil || apiRequestTimeCounter == nil {
		return
	}
	apiRequestCallCounter.WithLabelValues("REST", request).Inc()
	apiRequestTimeCounter.WithLabelValues("REST", request).Add(time)
}

// Server exposes the default registry over http.
type Server struct {
	log  *logging.Logger
	conf Config
	srv  *http.Server
}

// Start enables metrics for the given config. A nil server is returned when
// metrics are disabled.
func Start(log *logging.Logger, conf Config) (*Server, error) {
	if !conf.Enabled {
		return nil, nil
	}
	if err := Setup(); err != nil {
		return nil, fmt.Errorf("could not set up metrics: %w", err)
	}

	log = log.Named("metrics")
	log.SetLevel(conf.Level.Get())

	mux := http.NewServeMux()
	mux.Handle(conf.Path, promhttp.Handler())
	s := &Server{
		log:  log,
		conf: conf,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", conf.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	go func() {
		log.Info("starting metrics server", logging.Int("port", conf.Port), logging.String("path", conf.Path))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", logging.Error(err))
		}
	}()
	return s, nil
}

func (s *Server) Stop() error {
	if s == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.conf.Timeout.Get())
	defer cancel()
	return s.srv.Shutdown(ctx)
}
