package router

import (
	"testing"

	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
	"github.com/tydom2mqtt/tydom2mqtt/internal/protocol"
	"github.com/tydom2mqtt/tydom2mqtt/internal/registry"
)

type fakeBroker struct {
	published map[string][]byte
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string][]byte)}
}

func (f *fakeBroker) Publish(topic string, payload []byte, retain bool) error {
	f.published[topic] = payload
	return nil
}

func (f *fakeBroker) Subscribe(topic string, handler mqtt.MessageHandler) error {
	return nil
}

func response(body string) *protocol.Payload {
	return &protocol.Payload{Type: protocol.PayloadResponse, Body: []byte(body)}
}

func TestRouteConfigThenDeviceData(t *testing.T) {
	reg := registry.New()
	broker := newFakeBroker()
	r := New(reg, broker, 1, 2)

	// Config snapshot registers the shutter; the id_catalog marker sits
	// deep in the body like in real snapshots.
	r.Route(response(`{
		"endpoints": [
			{"id_endpoint": 20, "id_device": 10, "name": "Volet salon", "last_usage": "shutter"}
		],
		"id_catalog": {}
	}`))

	if reg.Len() != 1 {
		t.Fatalf("registry size = %d, want 1", reg.Len())
	}

	r.Route(response(`[{"id": 10, "endpoints": [{"id": 20, "error": 0, "data": [
		{"name": "position", "value": 42, "validity": "upToDate"}
	]}]}]`))

	position, ok := broker.published["cover/tydom/20_10/current_position"]
	if !ok {
		t.Fatalf("no position published, topics: %v", topics(broker))
	}
	if string(position) != "42" {
		t.Errorf("position = %q, want 42", position)
	}
	if _, ok := broker.published["homeassistant/cover/tydom/20_10/config"]; !ok {
		t.Error("no discovery config published")
	}
}

func TestRouteDeviceDataBeforeConfig(t *testing.T) {
	r := New(registry.New(), newFakeBroker(), 1, 2)

	// Must not panic or error: data racing ahead of the snapshot is
	// expected after a reconnect.
	r.Route(response(`[{"id": 10, "endpoints": [{"id": 20, "error": 0, "data": [
		{"name": "position", "value": 42, "validity": "upToDate"}
	]}]}]`))
}

func TestRouteContainsBadMessages(t *testing.T) {
	reg := registry.New()
	broker := newFakeBroker()
	r := New(reg, broker, 1, 2)

	// A bad config snapshot, garbage, an HTML page and an unknown frame
	// must all be swallowed without affecting the next message.
	r.Route(response(`{"id_catalog": broken`))
	r.Route(response(`pong`))
	r.Route(response(`<!doctype html><html>503</html>`))
	r.Route(&protocol.Payload{Type: protocol.PayloadUnknown, Raw: []byte{0xde, 0xad}})
	r.Route(&protocol.Payload{Type: protocol.PayloadRefreshAck})

	r.Route(response(`{
		"endpoints": [
			{"id_endpoint": 20, "id_device": 10, "name": "Volet salon", "last_usage": "shutter"}
		],
		"id_catalog": {}
	}`))
	if reg.Len() != 1 {
		t.Errorf("registry size = %d after recovery, want 1", reg.Len())
	}
}

func topics(f *fakeBroker) []string {
	var out []string
	for topic := range f.published {
		out = append(out, topic)
	}
	return out
}
