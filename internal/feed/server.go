package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"limitbook/internal/market"
	marketservice "limitbook/internal/market/service"
	"limitbook/internal/orderbook/core"
)

// DepthMessage is one depth snapshot as sent to websocket subscribers.
type DepthMessage struct {
	Symbol string      `json:"symbol"`
	Bids   []levelJSON `json:"bids"`
	Asks   []levelJSON `json:"asks"`
}

type levelJSON struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

type orderRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type cancelRequest struct {
	Symbol  string `json:"symbol"`
	OrderID uint64 `json:"orderId"`
}

type modifyRequest struct {
	Symbol   string `json:"symbol"`
	OrderID  uint64 `json:"orderId"`
	Side     string `json:"side"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type tradeJSON struct {
	BidOrderID uint64 `json:"bidOrderId"`
	BidPrice   int64  `json:"bidPrice"`
	AskOrderID uint64 `json:"askOrderId"`
	AskPrice   int64  `json:"askPrice"`
	Quantity   int64  `json:"quantity"`
}

type orderResponse struct {
	OrderID uint64      `json:"orderId"`
	Trades  []tradeJSON `json:"trades"`
}

type modifyResponse struct {
	Trades []tradeJSON `json:"trades"`
}

// Server exposes order entry and a depth snapshot stream over HTTP.
type Server struct {
	cfg      Config
	log      *zap.Logger
	mkt      *marketservice.MarketService
	depthHub *hub[DepthMessage]
	upgrader websocket.Upgrader
	metrics  *metrics
	registry *prometheus.Registry

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewServer creates a feed server on top of a market service and starts its
// depth broadcaster.
func NewServer(cfg Config, log *zap.Logger, mkt *marketservice.MarketService) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultConfig().ListenAddr
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = DefaultConfig().SubscriberBuffer
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = DefaultConfig().CORSOrigin
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		log:      log,
		mkt:      mkt,
		depthHub: newHub[DepthMessage](),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		metrics:  newMetrics(registry),
		registry: registry,
		closed:   make(chan struct{}),
	}

	s.wg.Add(1)
	go s.runDepthBroadcaster()

	return s
}

// runDepthBroadcaster turns the market event stream into per-symbol depth
// snapshots for websocket subscribers.
func (s *Server) runDepthBroadcaster() {
	defer s.wg.Done()

	events := s.mkt.Events()
	for {
		select {
		case <-s.closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			depth, err := s.mkt.Depth(ev.Symbol)
			if err != nil {
				continue
			}
			dropped := s.depthHub.Broadcast(toDepthMessage(ev.Symbol, depth))
			if dropped > 0 {
				s.metrics.droppedBroadcast.Add(float64(dropped))
			}
		}
	}
}

// Routes returns the HTTP handler for the feed server.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/orders", s.withCORS(http.HandlerFunc(s.handleOrder)))
	mux.Handle("/orders/cancel", s.withCORS(http.HandlerFunc(s.handleCancel)))
	mux.Handle("/orders/modify", s.withCORS(http.HandlerFunc(s.handleModify)))
	mux.Handle("/depth", s.withCORS(http.HandlerFunc(s.handleDepth)))
	mux.Handle("/ws/depth", s.withCORS(http.HandlerFunc(s.handleDepthStream)))
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("feed server listening", zap.String("addr", s.cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.Close()
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close stops the depth broadcaster.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	typ, err := parseOrderType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("quantity must be positive"))
		return
	}

	sym := market.Symbol(req.Symbol)
	id, err := s.mkt.NextID(sym)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	trades, err := s.mkt.AddOrder(r.Context(), sym, core.Order{
		ID:       id,
		Side:     side,
		Type:     typ,
		Price:    core.Price(req.Price),
		Quantity: core.Quantity(req.Quantity),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.metrics.ordersTotal.WithLabelValues("add", req.Symbol).Inc()
	if len(trades) > 0 {
		s.metrics.tradesTotal.WithLabelValues(req.Symbol).Add(float64(len(trades)))
	}
	s.log.Debug("order accepted",
		zap.String("symbol", req.Symbol),
		zap.Uint64("orderId", uint64(id)),
		zap.Int("trades", len(trades)))

	writeJSON(w, http.StatusAccepted, orderResponse{
		OrderID: uint64(id),
		Trades:  toTradesJSON(trades),
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}

	sym := market.Symbol(req.Symbol)
	if err := s.mkt.CancelOrder(r.Context(), sym, core.OrderID(req.OrderID)); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	s.metrics.ordersTotal.WithLabelValues("cancel", req.Symbol).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req modifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("quantity must be positive"))
		return
	}

	sym := market.Symbol(req.Symbol)
	trades, err := s.mkt.ModifyOrder(r.Context(), sym, core.Modify{
		ID:       core.OrderID(req.OrderID),
		Side:     side,
		Price:    core.Price(req.Price),
		Quantity: core.Quantity(req.Quantity),
	})
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	s.metrics.ordersTotal.WithLabelValues("modify", req.Symbol).Inc()
	if len(trades) > 0 {
		s.metrics.tradesTotal.WithLabelValues(req.Symbol).Add(float64(len(trades)))
	}
	writeJSON(w, http.StatusOK, modifyResponse{Trades: toTradesJSON(trades)})
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sym := market.Symbol(r.URL.Query().Get("symbol"))
	depth, err := s.mkt.Depth(sym)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, toDepthMessage(sym, depth))
}

func (s *Server) handleDepthStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.depthHub.Subscribe(s.cfg.SubscriberBuffer)
	defer s.depthHub.Unsubscribe(sub)

	s.metrics.wsSubscribers.Inc()
	defer s.metrics.wsSubscribers.Dec()
	s.log.Info("depth subscriber connected",
		zap.String("subscriber", sub.id.String()),
		zap.Int("subscribers", s.depthHub.Count()))
	defer s.log.Info("depth subscriber disconnected", zap.String("subscriber", sub.id.String()))

	// Filter to one symbol when requested, otherwise stream them all.
	want := r.URL.Query().Get("symbol")

	for msg := range sub.ch {
		if want != "" && msg.Symbol != want {
			continue
		}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func toDepthMessage(sym market.Symbol, d core.Depth) DepthMessage {
	msg := DepthMessage{
		Symbol: string(sym),
		Bids:   make([]levelJSON, 0, len(d.Bids)),
		Asks:   make([]levelJSON, 0, len(d.Asks)),
	}
	for _, l := range d.Bids {
		msg.Bids = append(msg.Bids, levelJSON{Price: int64(l.Price), Quantity: int64(l.Quantity)})
	}
	for _, l := range d.Asks {
		msg.Asks = append(msg.Asks, levelJSON{Price: int64(l.Price), Quantity: int64(l.Quantity)})
	}
	return msg
}

func toTradesJSON(trades []core.Trade) []tradeJSON {
	out := make([]tradeJSON, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeJSON{
			BidOrderID: uint64(t.Bid.OrderID),
			BidPrice:   int64(t.Bid.Price),
			AskOrderID: uint64(t.Ask.OrderID),
			AskPrice:   int64(t.Ask.Price),
			Quantity:   int64(t.Bid.Quantity),
		})
	}
	return out
}

func parseSide(value string) (core.Side, error) {
	switch strings.ToLower(value) {
	case "buy", "bid", "b":
		return core.SideBuy, nil
	case "sell", "ask", "s":
		return core.SideSell, nil
	default:
		return 0, fmt.Errorf("unknown side %s", value)
	}
}

func parseOrderType(value string) (core.OrderType, error) {
	switch strings.ToUpper(value) {
	case "GTC", "":
		return core.GoodTillCancel, nil
	case "FAK":
		return core.FillAndKill, nil
	default:
		return 0, fmt.Errorf("unknown order type %s", value)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
