package devices

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tydom2mqtt/tydom2mqtt/internal/extractor"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
)

type publishedMessage struct {
	payload []byte
	retain  bool
}

type fakeBroker struct {
	published map[string]publishedMessage
	handlers  map[string]mqtt.MessageHandler
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		published: make(map[string]publishedMessage),
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (f *fakeBroker) Publish(topic string, payload []byte, retain bool) error {
	f.published[topic] = publishedMessage{payload: payload, retain: retain}
	return nil
}

func (f *fakeBroker) Subscribe(topic string, handler mqtt.MessageHandler) error {
	f.handlers[topic] = handler
	return nil
}

// deliver simulates a broker message on a concrete topic matching one of
// the wildcard subscriptions.
func (f *fakeBroker) deliver(t *testing.T, topic string, payload string) {
	t.Helper()
	for pattern, handler := range f.handlers {
		if topicMatches(pattern, topic) {
			handler(topic, []byte(payload))
			return
		}
	}
	t.Fatalf("no subscription matches %q", topic)
}

func topicMatches(pattern, topic string) bool {
	pp := strings.Split(pattern, "/")
	tp := strings.Split(topic, "/")
	if len(pp) != len(tp) {
		return false
	}
	for i := range pp {
		if pp[i] != "+" && pp[i] != tp[i] {
			return false
		}
	}
	return true
}

type fakeHub struct {
	putCalls   []string
	alarmCalls []string
}

func (f *fakeHub) PutDeviceData(deviceID, endpointID int, name, value string) error {
	f.putCalls = append(f.putCalls,
		strings.Join([]string{itoa(deviceID), itoa(endpointID), name, value}, "/"))
	return nil
}

func (f *fakeHub) PutAlarmCommand(deviceID, endpointID int, value string, zones ...int) error {
	call := strings.Join([]string{itoa(deviceID), itoa(endpointID), value}, "/")
	for _, zone := range zones {
		call += "/zone" + itoa(zone)
	}
	f.alarmCalls = append(f.alarmCalls, call)
	return nil
}

func itoa(n int) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func coverBag() *extractor.AttributeBag {
	return &extractor.AttributeBag{
		Identity:   "20_10",
		DeviceID:   10,
		EndpointID: 20,
		Name:       "Volet salon",
		Kind:       extractor.KindCover,
		Attributes: map[string]any{"position": float64(42)},
	}
}

func TestCoverPublish(t *testing.T) {
	broker := newFakeBroker()
	if err := NewCover(broker).Publish(coverBag()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	cfg, ok := broker.published["homeassistant/cover/tydom/20_10/config"]
	if !ok {
		t.Fatal("no discovery config published")
	}
	var decoded map[string]any
	if err := json.Unmarshal(cfg.payload, &decoded); err != nil {
		t.Fatalf("config is not JSON: %v", err)
	}
	if decoded["payload_open"] != "UP" || decoded["payload_close"] != "DOWN" || decoded["payload_stop"] != "STOP" {
		t.Errorf("cover payloads = %v", decoded)
	}
	device, _ := decoded["device"].(map[string]any)
	if device["manufacturer"] != "Delta Dore" {
		t.Errorf("manufacturer = %v", device["manufacturer"])
	}

	position, ok := broker.published["cover/tydom/20_10/current_position"]
	if !ok {
		t.Fatal("no position published")
	}
	if string(position.payload) != "42" || !position.retain {
		t.Errorf("position = %q retain=%v, want retained 42", position.payload, position.retain)
	}

	// Attribute fan-out produces a standalone sensor for the position.
	if _, ok := broker.published["sensor/tydom/20_10/position"]; !ok {
		t.Error("attribute sensor not published")
	}
}

func TestCoverCommands(t *testing.T) {
	broker := newFakeBroker()
	hub := &fakeHub{}
	if err := NewCover(broker).SubscribeCommands(broker, hub); err != nil {
		t.Fatalf("SubscribeCommands() error = %v", err)
	}

	broker.deliver(t, "cover/tydom/20_10/set_positionCmd", "UP")
	broker.deliver(t, "cover/tydom/20_10/set_position", "50")

	want := []string{"10/20/positionCmd/UP", "10/20/position/50"}
	if len(hub.putCalls) != 2 || hub.putCalls[0] != want[0] || hub.putCalls[1] != want[1] {
		t.Errorf("hub calls = %v, want %v", hub.putCalls, want)
	}
}

func TestLightCommandsTranslateOnOff(t *testing.T) {
	broker := newFakeBroker()
	hub := &fakeHub{}
	if err := NewLight(broker).SubscribeCommands(broker, hub); err != nil {
		t.Fatalf("SubscribeCommands() error = %v", err)
	}

	broker.deliver(t, "light/tydom/21_11/set_levelCmd", "ON")
	broker.deliver(t, "light/tydom/21_11/set_level", "30")
	broker.deliver(t, "light/tydom/21_11/set_levelCmd", "OFF")

	want := []string{"11/21/level/100", "11/21/level/30", "11/21/level/0"}
	if len(hub.putCalls) != 3 {
		t.Fatalf("hub calls = %v", hub.putCalls)
	}
	for i := range want {
		if hub.putCalls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, hub.putCalls[i], want[i])
		}
	}
}

func TestAlarmPublish(t *testing.T) {
	broker := newFakeBroker()
	snapshot := &extractor.AlarmSnapshot{
		Bag: &extractor.AttributeBag{
			Identity:   "30_30",
			Name:       "Tyxal Alarm",
			Kind:       extractor.KindAlarm,
			Attributes: map[string]any{"alarmMode": "ZONE"},
		},
		State:          extractor.AlarmArmedHome,
		OutTemperature: 21.5,
	}
	if err := NewAlarm(broker, 1, 2).Publish(snapshot); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	state, ok := broker.published["alarm_control_panel/tydom/30_30/state"]
	if !ok {
		t.Fatal("no state published")
	}
	if string(state.payload) != "armed_home" || !state.retain {
		t.Errorf("state = %q retain=%v", state.payload, state.retain)
	}

	temp, ok := broker.published["sensor/tydom/30_30/outTemperature"]
	if !ok {
		t.Fatal("no outside temperature published")
	}
	if string(temp.payload) != "21.5" {
		t.Errorf("temperature = %q", temp.payload)
	}
}

func TestAlarmCommands(t *testing.T) {
	broker := newFakeBroker()
	hub := &fakeHub{}
	if err := NewAlarm(broker, 1, 2).SubscribeCommands(broker, hub); err != nil {
		t.Fatalf("SubscribeCommands() error = %v", err)
	}

	broker.deliver(t, "alarm_control_panel/tydom/30_30/set_alarm_state", "ARM_AWAY")
	broker.deliver(t, "alarm_control_panel/tydom/30_30/set_alarm_state", "ARM_HOME")
	broker.deliver(t, "alarm_control_panel/tydom/30_30/set_alarm_state", "ARM_NIGHT")
	broker.deliver(t, "alarm_control_panel/tydom/30_30/set_alarm_state", "DISARM")
	broker.deliver(t, "alarm_control_panel/tydom/30_30/set_alarm_state", "SELF_DESTRUCT")

	want := []string{"30/30/ON", "30/30/ON/zone1", "30/30/ON/zone2", "30/30/OFF"}
	if len(hub.alarmCalls) != len(want) {
		t.Fatalf("alarm calls = %v, want %v", hub.alarmCalls, want)
	}
	for i := range want {
		if hub.alarmCalls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, hub.alarmCalls[i], want[i])
		}
	}
}

func TestConsoReadingPublish(t *testing.T) {
	broker := newFakeBroker()
	reading := &extractor.ConsoReading{
		Identity:    "40_40",
		Name:        "Compteur",
		FieldName:   "energyTotIndexWatt",
		Value:       float64(123456),
		DeviceClass: "energy",
		Unit:        "Wh",
	}
	if err := NewSensor(broker).PublishConso(reading); err != nil {
		t.Fatalf("PublishConso() error = %v", err)
	}

	cfg, ok := broker.published["homeassistant/sensor/tydom/40_40_energyTotIndexWatt/config"]
	if !ok {
		t.Fatal("no discovery config published")
	}
	var decoded map[string]any
	if err := json.Unmarshal(cfg.payload, &decoded); err != nil {
		t.Fatalf("config is not JSON: %v", err)
	}
	if decoded["device_class"] != "energy" || decoded["unit_of_measurement"] != "Wh" {
		t.Errorf("config = %v", decoded)
	}

	state, ok := broker.published["sensor/tydom/40_40/energyTotIndexWatt"]
	if !ok {
		t.Fatal("no state published")
	}
	if string(state.payload) != "123456" {
		t.Errorf("state = %q", state.payload)
	}
}

func TestSplitIdentity(t *testing.T) {
	tests := []struct {
		identity     string
		wantEndpoint int
		wantDevice   int
		wantErr      bool
	}{
		{"20_10", 20, 10, false},
		{"0_0", 0, 0, false},
		{"garbage", 0, 0, true},
		{"a_b", 0, 0, true},
	}
	for _, tt := range tests {
		endpointID, deviceID, err := splitIdentity(tt.identity)
		if tt.wantErr {
			if err == nil {
				t.Errorf("splitIdentity(%q) expected error", tt.identity)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitIdentity(%q) error = %v", tt.identity, err)
			continue
		}
		if endpointID != tt.wantEndpoint || deviceID != tt.wantDevice {
			t.Errorf("splitIdentity(%q) = %d, %d", tt.identity, endpointID, deviceID)
		}
	}
}
