package mqtt

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type recordSink struct {
	gridCalls   []bool
	manualCalls []string
	err         error
}

func (r *recordSink) SetGridStatus(available bool, reason string) error {
	r.gridCalls = append(r.gridCalls, available)
	return r.err
}

func (r *recordSink) ManualPowerControl(roomID, action string, value *float64) error {
	r.manualCalls = append(r.manualCalls, roomID+":"+action)
	return r.err
}

type mockClient struct {
	opts       *paho.ClientOptions
	subscribed []struct {
		topic string
		qos   byte
	}
	published []struct {
		topic   string
		payload []byte
	}
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	b, _ := payload.([]byte)
	m.published = append(m.published, struct {
		topic   string
		payload []byte
	}{topic, b})
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, _ paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, struct {
		topic string
		qos   byte
	}{topic, qos})
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct{ p []byte }

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return "" }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}

func withMockClient(t *testing.T) *mockClient {
	t.Helper()
	mc := &mockClient{}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
	return mc
}

func lastResult(t *testing.T, mc *mockClient) commandResult {
	t.Helper()
	if len(mc.published) == 0 {
		t.Fatalf("no result published")
	}
	var res commandResult
	if err := json.Unmarshal(mc.published[len(mc.published)-1].payload, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return res
}

func TestTriggerSubscribesBothTopics(t *testing.T) {
	mc := withMockClient(t)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", QoS: map[string]byte{"grid": 1, "control": 2}}
	_, err := NewTriggerSource(cfg, &recordSink{})
	if err != nil {
		t.Fatalf("trigger source: %v", err)
	}
	if len(mc.subscribed) != 2 {
		t.Fatalf("subscriptions: got %d want 2", len(mc.subscribed))
	}
	if mc.subscribed[0].topic != "campus/grid/status" || mc.subscribed[0].qos != 1 {
		t.Fatalf("grid subscription: %+v", mc.subscribed[0])
	}
	if mc.subscribed[1].topic != "campus/rooms/power" || mc.subscribed[1].qos != 2 {
		t.Fatalf("control subscription: %+v", mc.subscribed[1])
	}
}

func TestGridStatusForwarded(t *testing.T) {
	mc := withMockClient(t)
	sink := &recordSink{}
	ts, err := NewTriggerSource(Config{Broker: "tcp://localhost:1883", ClientID: "id"}, sink)
	if err != nil {
		t.Fatalf("trigger source: %v", err)
	}
	ts.onGridStatus(nil, mockMessage{[]byte(`{"request_id":"r1","available":false,"reason":"storm"}`)})
	if len(sink.gridCalls) != 1 || sink.gridCalls[0] {
		t.Fatalf("grid change not forwarded: %v", sink.gridCalls)
	}
	res := lastResult(t, mc)
	if !res.Accepted || res.RequestID != "r1" {
		t.Fatalf("result: %+v", res)
	}
}

func TestGridStatusMissingAvailableRejected(t *testing.T) {
	mc := withMockClient(t)
	sink := &recordSink{}
	ts, err := NewTriggerSource(Config{Broker: "tcp://localhost:1883", ClientID: "id"}, sink)
	if err != nil {
		t.Fatalf("trigger source: %v", err)
	}
	ts.onGridStatus(nil, mockMessage{[]byte(`{"request_id":"r2","reason":"oops"}`)})
	if len(sink.gridCalls) != 0 {
		t.Fatalf("invalid payload reached the sink")
	}
	res := lastResult(t, mc)
	if res.Accepted || res.Error == "" {
		t.Fatalf("result: %+v", res)
	}
}

func TestPowerControlRejectionPropagated(t *testing.T) {
	mc := withMockClient(t)
	sink := &recordSink{err: fmt.Errorf("unknown room")}
	ts, err := NewTriggerSource(Config{Broker: "tcp://localhost:1883", ClientID: "id"}, sink)
	if err != nil {
		t.Fatalf("trigger source: %v", err)
	}
	ts.onPowerControl(nil, mockMessage{[]byte(`{"request_id":"r3","room_id":"ghost","action":"increase"}`)})
	if len(sink.manualCalls) != 1 || sink.manualCalls[0] != "ghost:increase" {
		t.Fatalf("command not forwarded: %v", sink.manualCalls)
	}
	res := lastResult(t, mc)
	if res.Accepted || res.Error != "unknown room" {
		t.Fatalf("result: %+v", res)
	}
	if mc.published[len(mc.published)-1].topic != "campus/commands/result" {
		t.Fatalf("result topic: %s", mc.published[len(mc.published)-1].topic)
	}
}

func TestMalformedPayloadRejected(t *testing.T) {
	mc := withMockClient(t)
	sink := &recordSink{}
	ts, err := NewTriggerSource(Config{Broker: "tcp://localhost:1883", ClientID: "id"}, sink)
	if err != nil {
		t.Fatalf("trigger source: %v", err)
	}
	ts.onPowerControl(nil, mockMessage{[]byte(`{not json`)})
	if len(sink.manualCalls) != 0 {
		t.Fatalf("malformed payload reached the sink")
	}
	if res := lastResult(t, mc); res.Accepted {
		t.Fatalf("malformed payload accepted")
	}
}
