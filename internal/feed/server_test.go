package feed

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"limitbook/internal/market"
	marketservice "limitbook/internal/market/service"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	instruments := []market.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Decimals: 2},
	}
	mkt := marketservice.NewMarketService(instruments, marketservice.DefaultConfig())
	t.Cleanup(mkt.Close)

	srv := NewServer(DefaultConfig(), zap.NewNop(), mkt)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestOrderEntryAndDepth(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/orders", orderRequest{
		Symbol: "AAPL", Side: "buy", Type: "GTC", Price: 100, Quantity: 10,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var placed orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&placed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if placed.OrderID == 0 {
		t.Error("expected assigned order id")
	}
	if len(placed.Trades) != 0 {
		t.Errorf("expected no trades, got %d", len(placed.Trades))
	}

	// Crossing sell trades against the resting bid.
	resp = postJSON(t, ts.URL+"/orders", orderRequest{
		Symbol: "AAPL", Side: "sell", Type: "GTC", Price: 100, Quantity: 4,
	})
	defer resp.Body.Close()
	var crossed orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&crossed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(crossed.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(crossed.Trades))
	}
	if crossed.Trades[0].Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", crossed.Trades[0].Quantity)
	}

	// The depth view trails the order path by one event dispatch.
	time.Sleep(20 * time.Millisecond)

	depthResp, err := http.Get(ts.URL + "/depth?symbol=AAPL")
	if err != nil {
		t.Fatalf("get depth: %v", err)
	}
	defer depthResp.Body.Close()
	var depth DepthMessage
	if err := json.NewDecoder(depthResp.Body).Decode(&depth); err != nil {
		t.Fatalf("decode depth: %v", err)
	}
	if len(depth.Bids) != 1 || depth.Bids[0].Price != 100 || depth.Bids[0].Quantity != 6 {
		t.Errorf("expected bid level 100x6, got %+v", depth.Bids)
	}
}

func TestCancelAndModifyEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/orders", orderRequest{
		Symbol: "AAPL", Side: "buy", Type: "GTC", Price: 100, Quantity: 10,
	})
	var placed orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&placed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/orders/modify", modifyRequest{
		Symbol: "AAPL", OrderID: placed.OrderID, Side: "buy", Price: 101, Quantity: 5,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("modify: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/orders/cancel", cancelRequest{
		Symbol: "AAPL", OrderID: placed.OrderID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	time.Sleep(20 * time.Millisecond)

	depthResp, err := http.Get(ts.URL + "/depth?symbol=AAPL")
	if err != nil {
		t.Fatalf("get depth: %v", err)
	}
	defer depthResp.Body.Close()
	var depth DepthMessage
	if err := json.NewDecoder(depthResp.Body).Decode(&depth); err != nil {
		t.Fatalf("decode depth: %v", err)
	}
	if len(depth.Bids) != 0 {
		t.Errorf("expected empty book after cancel, got %+v", depth.Bids)
	}
}

func TestOrderValidation(t *testing.T) {
	_, ts := newTestServer(t)

	cases := []struct {
		name string
		req  orderRequest
		want int
	}{
		{"bad side", orderRequest{Symbol: "AAPL", Side: "hold", Type: "GTC", Price: 100, Quantity: 1}, http.StatusBadRequest},
		{"bad type", orderRequest{Symbol: "AAPL", Side: "buy", Type: "IOC", Price: 100, Quantity: 1}, http.StatusBadRequest},
		{"zero quantity", orderRequest{Symbol: "AAPL", Side: "buy", Type: "GTC", Price: 100, Quantity: 0}, http.StatusBadRequest},
		{"unknown symbol", orderRequest{Symbol: "NOPE", Side: "buy", Type: "GTC", Price: 100, Quantity: 1}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/orders", tc.req)
			defer resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	h := newHub[int]()
	sub := h.Subscribe(1)

	if h.Count() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.Count())
	}
	if dropped := h.Broadcast(1); dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", dropped)
	}
	if dropped := h.Broadcast(2); dropped != 1 {
		t.Errorf("expected 1 dropped, got %d", dropped)
	}
	if got := <-sub.ch; got != 1 {
		t.Errorf("expected first message, got %d", got)
	}

	h.Unsubscribe(sub)
	if h.Count() != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", h.Count())
	}
}
