package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"photorig/config"
	"photorig/session"
	"photorig/transport"
)

type fakeConn struct {
	mu      sync.Mutex
	reply   string
	pending [][]byte
}

func (c *fakeConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return copy(p, line), nil
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reply != "" {
		c.pending = append(c.pending, []byte(c.reply+"\n"))
	}
	return len(p), nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) inject(record string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, []byte(record+"\n"))
}

type fakeTransport struct {
	conn  *fakeConn
	ports []string
}

func (t *fakeTransport) Open(id string) (transport.Conn, error) {
	if t.conn == nil {
		return nil, fmt.Errorf("%w: %s", transport.ErrUnavailable, id)
	}
	return t.conn, nil
}

func (t *fakeTransport) Enumerate() ([]string, error) {
	return t.ports, nil
}

func testServer(t *testing.T, conn *fakeConn) (*httptest.Server, *session.Controller) {
	t.Helper()
	cfg := config.Default()
	cfg.ConnectWaitMS = -1
	cfg.CommandTimeoutMS = 500

	sess := session.New(&fakeTransport{conn: conn, ports: []string{"/dev/ttyUSB0"}}, cfg)
	srv := httptest.NewServer(NewServer(sess).Handler())
	t.Cleanup(func() {
		srv.Close()
		sess.Disconnect()
	})
	return srv, sess
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestPortsEndpoint(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/ports")
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	ports := body["ports"].([]any)
	if len(ports) != 1 || ports[0] != "/dev/ttyUSB0" {
		t.Errorf("ports = %v", ports)
	}
}

func TestStatusEndpoint_Disconnected(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if body["state"] != "disconnected" {
		t.Errorf("state = %v", body["state"])
	}
}

func TestCommandEndpoint_NotConnected(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/command", `{"kind":"ping"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCommandEndpoint_UnknownKind(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/command", `{"kind":"reboot"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestConnectAndLighting(t *testing.T) {
	conn := &fakeConn{reply: `{"success":true,"message":"OK"}`}
	srv, _ := testServer(t, conn)

	resp := postJSON(t, srv.URL+"/api/connect", `{"port":"/dev/ttyUSB0"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("connect status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/lighting", `{"channel":"led_1","intensity":128}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lighting status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Errorf("body = %v", body)
	}

	resp = postJSON(t, srv.URL+"/api/lighting", `{"channel":"led_9","intensity":128}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid channel status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestConnect_MissingPort(t *testing.T) {
	srv, _ := testServer(t, nil)
	resp := postJSON(t, srv.URL+"/api/connect", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestConnect_UnavailablePort(t *testing.T) {
	srv, _ := testServer(t, nil)
	resp := postJSON(t, srv.URL+"/api/connect", `{"port":"COM5"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestApplyPreset_Unknown(t *testing.T) {
	conn := &fakeConn{reply: `{"success":true,"message":"OK"}`}
	srv, sess := testServer(t, conn)
	if err := sess.Connect("/dev/ttyUSB0"); err != nil {
		t.Fatal(err)
	}

	resp := postJSON(t, srv.URL+"/api/presets/disco", ``)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPresetsEndpoint(t *testing.T) {
	srv, _ := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/presets")
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	presets := body["presets"].(map[string]any)
	if _, ok := presets["uniform"]; !ok {
		t.Errorf("presets = %v, want built-in uniform", presets)
	}
}

func TestStatusStream_PushesUnsolicitedRecords(t *testing.T) {
	conn := &fakeConn{}
	srv, sess := testServer(t, conn)
	if err := sess.Connect("/dev/ttyUSB0"); err != nil {
		t.Fatal(err)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer ws.Close()

	conn.inject(`{"success":true,"message":"Heartbeat","data":{"uptime":5000}}`)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pushed map[string]any
	if err := ws.ReadJSON(&pushed); err != nil {
		t.Fatalf("read ws: %v", err)
	}
	if pushed["message"] != "Heartbeat" {
		t.Errorf("pushed = %v", pushed)
	}
}
