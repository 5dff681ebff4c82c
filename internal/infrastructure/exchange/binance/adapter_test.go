package binance

import "testing"

func TestMapSymbol(t *testing.T) {
	a := New("")

	if got := a.MapSymbol("BTC/USDT"); got != "BTCUSDT" {
		t.Fatalf("expected BTCUSDT, got %q", got)
	}
	// idempotent on already-mapped input
	if got := a.MapSymbol("BTCUSDT"); got != "BTCUSDT" {
		t.Fatalf("expected BTCUSDT, got %q", got)
	}
}

func TestConnectURL(t *testing.T) {
	a := New("")
	want := "wss://stream.binance.com:9443/ws/btcusdt@trade"
	if got := a.ConnectURL("BTCUSDT"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	a = New("wss://example.test/")
	if got := a.ConnectURL("ETHUSDT"); got != "wss://example.test/ws/ethusdt@trade" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestSubscribePayloadEmpty(t *testing.T) {
	a := New("")
	if payload := a.SubscribePayload("BTC/USDT"); payload != nil {
		t.Fatalf("expected no subscribe payload, got %s", payload)
	}
}

func TestParseFrame(t *testing.T) {
	a := New("")

	tests := []struct {
		name  string
		raw   string
		want  int
		price float64
	}{
		{"trade event", `{"e":"trade","s":"BTCUSDT","p":"24448.16"}`, 1, 24448.16},
		{"depth update", `{"e":"depthUpdate","s":"BTCUSDT"}`, 0, 0},
		{"missing price", `{"e":"trade","s":"BTCUSDT"}`, 0, 0},
		{"negative price", `{"e":"trade","s":"BTCUSDT","p":"-1"}`, 0, 0},
		{"not json", `hello`, 0, 0},
		{"empty object", `{}`, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := a.ParseFrame([]byte(tt.raw))
			if len(events) != tt.want {
				t.Fatalf("expected %d events, got %d", tt.want, len(events))
			}
			if tt.want == 1 {
				if events[0].Symbol != "BTCUSDT" || events[0].Price != tt.price {
					t.Fatalf("unexpected event %+v", events[0])
				}
			}
		})
	}
}
