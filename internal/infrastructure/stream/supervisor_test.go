package stream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"spreadeye/internal/infrastructure/exchange/binance"
	"spreadeye/internal/infrastructure/exchange/mexc"
)

type fakeConn struct {
	frames chan []byte

	mu     sync.Mutex
	writes [][]byte

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case f, ok := <-c.frames:
		if !ok {
			return nil, errors.New("remote closed")
		}
		return f, nil
	case <-c.closed:
		return nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) WriteMessage(payload []byte) error {
	c.mu.Lock()
	c.writes = append(c.writes, payload)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) sentPayloads() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	errs  []error
	dials int
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		return nil, err
	}
	if len(d.conns) == 0 {
		return nil, errors.New("no more conns scripted")
	}
	conn := d.conns[0]
	d.conns = d.conns[1:]
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type recordingStore struct {
	sets    chan string
	appends chan string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		sets:    make(chan string, 64),
		appends: make(chan string, 64),
	}
}

func (s *recordingStore) Set(exchange, symbol string, price float64, ts int64) {
	s.sets <- exchange + ":" + symbol
}

func (s *recordingStore) AppendWindow(symbol string, ts int64, price float64) {
	s.appends <- symbol
}

func waitFor(t *testing.T, ch chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestSupervisorFeedsStore(t *testing.T) {
	conn := newFakeConn()
	conn.frames <- []byte(`{"e":"trade","s":"BTCUSDT","p":"24448.16"}`)
	conn.frames <- []byte(`{"e":"depthUpdate","s":"BTCUSDT"}`) // ignored

	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	store := newRecordingStore()

	sup := NewSupervisor(binance.New(""), "BTC/USDT", dialer, store, false)
	sup.SetRetryDelay(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(ctx)
	}()

	waitFor(t, store.sets, "binance:BTCUSDT")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop on cancellation")
	}
	if !conn.isClosed() {
		t.Fatal("connection left open after termination")
	}
}

func TestSupervisorSendsHandshakeFirst(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	store := newRecordingStore()

	sup := NewSupervisor(mexc.New(""), "BTC/USDT", dialer, store, false)
	sup.SetRetryDelay(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for len(conn.sentPayloads()) == 0 {
		select {
		case <-deadline:
			t.Fatal("handshake never sent")
		case <-time.After(5 * time.Millisecond):
		}
	}

	payloads := conn.sentPayloads()
	if want := `"method":"SUBSCRIPTION"`; !strings.Contains(string(payloads[0]), want) {
		t.Fatalf("unexpected handshake %s", payloads[0])
	}

	cancel()
	<-done
}

func TestSupervisorReconnectsAfterReadError(t *testing.T) {
	first := newFakeConn()
	close(first.frames) // immediate read error

	second := newFakeConn()
	second.frames <- []byte(`{"e":"trade","s":"ETHUSDT","p":"1850.5"}`)

	dialer := &fakeDialer{conns: []*fakeConn{first, second}}
	store := newRecordingStore()

	sup := NewSupervisor(binance.New(""), "ETH/USDT", dialer, store, true)
	sup.SetRetryDelay(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(ctx)
	}()

	waitFor(t, store.sets, "binance:ETHUSDT")
	waitFor(t, store.appends, "ETHUSDT")

	if dialer.dialCount() < 2 {
		t.Fatalf("expected a reconnect, got %d dials", dialer.dialCount())
	}
	if !first.isClosed() {
		t.Fatal("failed connection left open")
	}

	cancel()
	<-done
}

func TestSupervisorRetriesFailedDial(t *testing.T) {
	conn := newFakeConn()
	conn.frames <- []byte(`{"e":"trade","s":"BTCUSDT","p":"100"}`)

	dialer := &fakeDialer{
		errs:  []error{errors.New("connection refused"), errors.New("connection refused")},
		conns: []*fakeConn{conn},
	}
	store := newRecordingStore()

	sup := NewSupervisor(binance.New(""), "BTC/USDT", dialer, store, false)
	sup.SetRetryDelay(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(ctx)
	}()

	waitFor(t, store.sets, "binance:BTCUSDT")
	if dialer.dialCount() != 3 {
		t.Fatalf("expected 3 dials, got %d", dialer.dialCount())
	}

	cancel()
	<-done
}

func TestSupervisorStopsWhileBlockedOnRead(t *testing.T) {
	conn := newFakeConn() // never delivers a frame
	dialer := &fakeDialer{conns: []*fakeConn{conn}}

	sup := NewSupervisor(binance.New(""), "BTC/USDT", dialer, newRecordingStore(), false)
	sup.SetRetryDelay(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not observe cancellation at the read suspension point")
	}
	if !conn.isClosed() {
		t.Fatal("connection left open after termination")
	}
}
