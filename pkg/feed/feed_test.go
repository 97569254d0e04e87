package feed_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/tably/go/pkg/buffer"
	"github.com/haivivi/tably/go/pkg/dialog"
	"github.com/haivivi/tably/go/pkg/feed"
	"github.com/haivivi/tably/go/pkg/jsontime"
	"github.com/haivivi/tably/go/pkg/order"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialWS(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func waitClients(t *testing.T, srv *feed.Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for srv.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", srv.Clients(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPublishDelivers(t *testing.T) {
	srv := feed.NewServer(&feed.Options{Logger: testLogger()})
	defer srv.Close()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts, feed.DefaultPath)
	defer conn.Close()
	waitClients(t, srv, 1)

	srv.Publish(dialog.Event{
		Type:     dialog.EventResponse,
		Time:     jsontime.NowEpochMilli(),
		State:    dialog.StateResponding,
		Response: "Added 1 Coffee to your order. That's $2.99.",
	})
	srv.Publish(dialog.Event{
		Type:  dialog.EventOrder,
		Time:  jsontime.NowEpochMilli(),
		State: dialog.StateResponding,
		Lines: []order.Line{{ItemID: "coffee", Name: "Coffee", Quantity: 1, UnitPrice: 299}},
		Total: 299,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read first event: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", kind)
	}
	for _, want := range []string{`"type":"response"`, `"state":"responding"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("wire payload %s missing %s", raw, want)
		}
	}
	var first dialog.Event
	if err := json.Unmarshal(raw, &first); err != nil {
		t.Fatalf("unmarshal first event: %v", err)
	}
	if first.Response != "Added 1 Coffee to your order. That's $2.99." {
		t.Errorf("response = %q", first.Response)
	}

	var second dialog.Event
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second event: %v", err)
	}
	if second.Type != dialog.EventOrder {
		t.Fatalf("second type = %q, want order", second.Type)
	}
	if len(second.Lines) != 1 || second.Lines[0].ItemID != "coffee" {
		t.Errorf("lines = %+v", second.Lines)
	}
	if second.Total != 299 {
		t.Errorf("total = %d, want 299", second.Total)
	}
}

func TestPublishReachesAllClients(t *testing.T) {
	srv := feed.NewServer(&feed.Options{Logger: testLogger()})
	defer srv.Close()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	a := dialWS(t, ts, feed.DefaultPath)
	defer a.Close()
	b := dialWS(t, ts, feed.DefaultPath)
	defer b.Close()
	waitClients(t, srv, 2)

	srv.Publish(dialog.Event{Type: dialog.EventWake, Keyword: "hey_tably"})

	for name, conn := range map[string]*websocket.Conn{"a": a, "b": b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev dialog.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("client %s read: %v", name, err)
		}
		if ev.Type != dialog.EventWake || ev.Keyword != "hey_tably" {
			t.Errorf("client %s event = %+v", name, ev)
		}
	}
}

func TestCustomPath(t *testing.T) {
	srv := feed.NewServer(&feed.Options{Path: "/feed", Logger: testLogger()})
	defer srv.Close()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + feed.DefaultPath)
	if err != nil {
		t.Fatalf("get default path: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("default path status = %d, want 404", resp.StatusCode)
	}

	conn := dialWS(t, ts, "/feed")
	defer conn.Close()
	waitClients(t, srv, 1)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	srv := feed.NewServer(&feed.Options{Logger: testLogger()})
	defer srv.Close()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts, feed.DefaultPath)
	waitClients(t, srv, 1)
	conn.Close()
	waitClients(t, srv, 0)
}

func TestCloseDrainsThenDisconnects(t *testing.T) {
	srv := feed.NewServer(&feed.Options{Logger: testLogger()})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts, feed.DefaultPath)
	defer conn.Close()
	waitClients(t, srv, 1)

	srv.Publish(dialog.Event{Type: dialog.EventResponse, Response: "Goodbye!"})
	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev dialog.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read queued event after close: %v", err)
	}
	if ev.Response != "Goodbye!" {
		t.Errorf("response = %q, want Goodbye!", ev.Response)
	}

	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("read after close = %v, want normal closure", err)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestForwardPumpsSubscription(t *testing.T) {
	srv := feed.NewServer(&feed.Options{Logger: testLogger()})
	defer srv.Close()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts, feed.DefaultPath)
	defer conn.Close()
	waitClients(t, srv, 1)

	sub := buffer.NewRing[dialog.Event](8)
	sub.Push(dialog.Event{Type: dialog.EventWake, Keyword: "hey_tably"})
	sub.Push(dialog.Event{Type: dialog.EventResponse, Response: "Hi! What can I get you?"})
	sub.CloseWrite()

	if err := srv.Forward(context.Background(), sub); err != nil {
		t.Fatalf("forward: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second dialog.Event
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if first.Type != dialog.EventWake || second.Type != dialog.EventResponse {
		t.Errorf("event types = %q, %q", first.Type, second.Type)
	}
}

func TestForwardCanceledContext(t *testing.T) {
	srv := feed.NewServer(&feed.Options{Logger: testLogger()})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sub := buffer.NewRing[dialog.Event](1)
	if err := srv.Forward(ctx, sub); !errors.Is(err, context.Canceled) {
		t.Fatalf("forward = %v, want context.Canceled", err)
	}
}
