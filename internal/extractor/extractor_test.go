package extractor

import (
	"errors"
	"testing"

	"github.com/tydom2mqtt/tydom2mqtt/internal/registry"
)

func catalogedRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	snapshot := `{"endpoints": [
		{"id_endpoint": 20, "id_device": 10, "name": "Volet salon", "last_usage": "shutter"},
		{"id_endpoint": 21, "id_device": 11, "name": "Lampe entree", "last_usage": "light"},
		{"id_endpoint": 22, "id_device": 12, "name": "Porte garage", "last_usage": "belmDoor"},
		{"id_endpoint": 30, "id_device": 30, "name": "Centrale", "last_usage": "alarm"},
		{"id_endpoint": 40, "id_device": 40, "name": "Compteur", "last_usage": "conso"}
	]}`
	if err := r.ApplyConfigSnapshot([]byte(snapshot)); err != nil {
		t.Fatalf("ApplyConfigSnapshot() error = %v", err)
	}
	return r
}

func TestExtractCover(t *testing.T) {
	body := `[{"id": 10, "endpoints": [{"id": 20, "error": 0, "data": [
		{"name": "position", "value": 42, "validity": "upToDate"},
		{"name": "thermicDefect", "value": false, "validity": "upToDate"},
		{"name": "position", "value": 17, "validity": "expired"},
		{"name": "config", "value": "whatever", "validity": "upToDate"}
	]}]}]`

	result, err := Extract([]byte(body), catalogedRegistry(t))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Covers) != 1 {
		t.Fatalf("covers = %d, want 1", len(result.Covers))
	}

	cover := result.Covers[0]
	if cover.Identity != "20_10" {
		t.Errorf("identity = %q, want 20_10", cover.Identity)
	}
	if cover.Name != "Volet salon" {
		t.Errorf("name = %q, want Volet salon", cover.Name)
	}
	if cover.Kind != KindCover {
		t.Errorf("kind = %q, want %q", cover.Kind, KindCover)
	}
	// Stale reading must not shadow the fresh one; off-list field dropped.
	if got := cover.Attributes["position"]; got != float64(42) {
		t.Errorf("position = %v, want 42", got)
	}
	if _, ok := cover.Attributes["config"]; ok {
		t.Error("off-list attribute leaked through")
	}
	if len(cover.Attributes) != 2 {
		t.Errorf("attributes = %v, want position and thermicDefect only", cover.Attributes)
	}
}

func TestExtractSkipsErroredAndEmptyEndpoints(t *testing.T) {
	body := `[{"id": 11, "endpoints": [
		{"id": 21, "error": 1, "data": [{"name": "level", "value": 100, "validity": "upToDate"}]},
		{"id": 21, "error": 0, "data": []}
	]}]`

	result, err := Extract([]byte(body), catalogedRegistry(t))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !result.Empty() {
		t.Errorf("errored endpoints must produce nothing, got %+v", result)
	}
}

func TestExtractUncatalogedEndpoint(t *testing.T) {
	body := `[{"id": 99, "endpoints": [{"id": 98, "error": 0, "data": [
		{"name": "position", "value": 10, "validity": "upToDate"}
	]}]}]`

	result, err := Extract([]byte(body), catalogedRegistry(t))
	if err != nil {
		t.Fatalf("data ahead of the config snapshot must not fail, got %v", err)
	}
	if !result.Empty() {
		t.Errorf("uncataloged endpoint produced output: %+v", result)
	}
}

func TestExtractConsoReadings(t *testing.T) {
	body := `[{"id": 40, "endpoints": [{"id": 40, "error": 0, "data": [
		{"name": "energyInstantTotElec", "value": 3.2, "validity": "upToDate"},
		{"name": "energyTotIndexWatt", "value": 123456, "validity": "upToDate"},
		{"name": "energyInstantTotElecP", "value": 740, "validity": "expired"}
	]}]}]`

	result, err := Extract([]byte(body), catalogedRegistry(t))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Conso) != 2 {
		t.Fatalf("conso readings = %d, want 2", len(result.Conso))
	}

	byField := map[string]*ConsoReading{}
	for _, reading := range result.Conso {
		byField[reading.FieldName] = reading
	}
	current := byField["energyInstantTotElec"]
	if current == nil || current.DeviceClass != "current" || current.Unit != "A" {
		t.Errorf("current reading = %+v, want class current unit A", current)
	}
	index := byField["energyTotIndexWatt"]
	if index == nil || index.DeviceClass != "energy" || index.Unit != "Wh" {
		t.Errorf("index reading = %+v, want class energy unit Wh", index)
	}
}

func TestDeriveAlarm(t *testing.T) {
	tests := []struct {
		name            string
		attrs           map[string]any
		wantState       AlarmState
		wantSOS         bool
		wantMaintenance bool
		wantNil         bool
	}{
		{
			name:      "active alarm state triggers",
			attrs:     map[string]any{"alarmState": "ON", "alarmMode": "ON"},
			wantState: AlarmTriggered,
		},
		{
			name:      "quiet alarm state triggers",
			attrs:     map[string]any{"alarmState": "QUIET"},
			wantState: AlarmTriggered,
		},
		{
			name:      "delayed alarm state is pending",
			attrs:     map[string]any{"alarmState": "DELAYED"},
			wantState: AlarmPending,
		},
		{
			name:      "sos forces triggered over disarmed mode",
			attrs:     map[string]any{"alarmSOS": "true", "alarmMode": "OFF"},
			wantState: AlarmTriggered,
			wantSOS:   true,
		},
		{
			name:      "mode on arms away",
			attrs:     map[string]any{"alarmState": "OFF", "alarmMode": "ON"},
			wantState: AlarmArmedAway,
		},
		{
			name:      "mode zone arms home",
			attrs:     map[string]any{"alarmMode": "ZONE"},
			wantState: AlarmArmedHome,
		},
		{
			name:      "mode off disarms",
			attrs:     map[string]any{"alarmMode": "OFF"},
			wantState: AlarmDisarmed,
		},
		{
			name:            "maintenance disarms with flag",
			attrs:           map[string]any{"alarmMode": "MAINTENANCE"},
			wantState:       AlarmDisarmed,
			wantMaintenance: true,
		},
		{
			name:    "no rule produces no snapshot",
			attrs:   map[string]any{"gsmLevel": 4},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := &AttributeBag{Kind: KindAlarm, Attributes: tt.attrs}
			snapshot := deriveAlarm(bag)
			if tt.wantNil {
				if snapshot != nil {
					t.Fatalf("snapshot = %+v, want nil", snapshot)
				}
				return
			}
			if snapshot == nil {
				t.Fatal("snapshot = nil")
			}
			if snapshot.State != tt.wantState {
				t.Errorf("state = %q, want %q", snapshot.State, tt.wantState)
			}
			if snapshot.SOS != tt.wantSOS {
				t.Errorf("sos = %v, want %v", snapshot.SOS, tt.wantSOS)
			}
			if snapshot.Maintenance != tt.wantMaintenance {
				t.Errorf("maintenance = %v, want %v", snapshot.Maintenance, tt.wantMaintenance)
			}
		})
	}
}

func TestExtractAlarmWithTemperature(t *testing.T) {
	body := `[{"id": 30, "endpoints": [{"id": 30, "error": 0, "data": [
		{"name": "alarmMode", "value": "ZONE", "validity": "upToDate"},
		{"name": "alarmState", "value": "OFF", "validity": "upToDate"},
		{"name": "outTemperature", "value": 21.5, "validity": "upToDate"}
	]}]}]`

	result, err := Extract([]byte(body), catalogedRegistry(t))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Alarm == nil {
		t.Fatal("no alarm snapshot")
	}
	if result.Alarm.State != AlarmArmedHome {
		t.Errorf("state = %q, want %q", result.Alarm.State, AlarmArmedHome)
	}
	if result.Alarm.OutTemperature != 21.5 {
		t.Errorf("outTemperature = %v, want 21.5", result.Alarm.OutTemperature)
	}
	if result.Alarm.Bag.Name != "Tyxal Alarm" {
		t.Errorf("alarm name = %q, want Tyxal Alarm", result.Alarm.Bag.Name)
	}
}

func TestExtractInvalidPayload(t *testing.T) {
	_, err := Extract([]byte("not json"), catalogedRegistry(t))
	if err == nil {
		t.Fatal("expected error on invalid payload")
	}
	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		t.Errorf("error type = %T, want *ExtractionError", err)
	}
}
