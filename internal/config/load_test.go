package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSettingsDefaults(t *testing.T) {
	s := NewSettings()

	if s.Tydom.Host != RemoteHost {
		t.Errorf("default host = %q, want %q", s.Tydom.Host, RemoteHost)
	}
	if !s.Remote() {
		t.Error("default settings should be in remote mode")
	}
	if s.MQTT.Port != 1883 {
		t.Errorf("default mqtt port = %d, want 1883", s.MQTT.Port)
	}
	if s.Tydom.AlarmHomeZone != 1 || s.Tydom.AlarmNightZone != 2 {
		t.Errorf("default alarm zones = %d/%d, want 1/2",
			s.Tydom.AlarmHomeZone, s.Tydom.AlarmNightZone)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{
			name: "complete settings",
			mutate: func(s *Settings) {
				s.Tydom.MAC = "001A25123456"
				s.Tydom.Password = "secret"
			},
			wantErr: false,
		},
		{
			name: "missing mac",
			mutate: func(s *Settings) {
				s.Tydom.Password = "secret"
			},
			wantErr: true,
		},
		{
			name: "missing password",
			mutate: func(s *Settings) {
				s.Tydom.MAC = "001A25123456"
			},
			wantErr: true,
		},
		{
			name: "empty host",
			mutate: func(s *Settings) {
				s.Tydom.MAC = "001A25123456"
				s.Tydom.Password = "secret"
				s.Tydom.Host = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
log_level: debug
tydom:
  mac: "001A25AABBCC"
  password: "hubsecret"
  host: "192.168.1.50"
mqtt:
  host: broker.local
  port: 8883
  ssl: true
`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	s := NewSettings()
	if err := s.applyFile(path); err != nil {
		t.Fatalf("applyFile() error = %v", err)
	}

	if s.Tydom.Host != "192.168.1.50" {
		t.Errorf("host = %q, want 192.168.1.50", s.Tydom.Host)
	}
	if s.Remote() {
		t.Error("LAN host should not be remote mode")
	}
	if got := s.BrokerURL(); got != "ssl://broker.local:8883" {
		t.Errorf("BrokerURL() = %q, want ssl://broker.local:8883", got)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(OptTydomMAC, "001A25DDEEFF")
	t.Setenv(OptTydomIP, "10.0.0.9")
	t.Setenv(OptMQTTPort, "1884")
	t.Setenv(OptMQTTSSL, "true")
	t.Setenv(OptAlarmHomeZone, "3")

	s := NewSettings()
	s.applyEnv()

	if s.Tydom.MAC != "001A25DDEEFF" {
		t.Errorf("mac = %q", s.Tydom.MAC)
	}
	if s.Tydom.Host != "10.0.0.9" {
		t.Errorf("host = %q", s.Tydom.Host)
	}
	if s.MQTT.Port != 1884 {
		t.Errorf("port = %d", s.MQTT.Port)
	}
	if !s.MQTT.SSL {
		t.Error("ssl should be true")
	}
	if s.Tydom.AlarmHomeZone != 3 {
		t.Errorf("home zone = %d", s.Tydom.AlarmHomeZone)
	}
}

func TestApplyHassioOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.json")
	// The supervisor is loosely typed: the PIN arrives as a number here.
	content := []byte(`{
		"TYDOM_MAC": "001A25001122",
		"TYDOM_IP": "192.168.1.77",
		"TYDOM_ALARM_PIN": 123456,
		"MQTT_PORT": "1885",
		"MQTT_SSL": "true"
	}`)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write options file: %v", err)
	}

	s := NewSettings()
	if err := s.applyHassioOptions(path); err != nil {
		t.Fatalf("applyHassioOptions() error = %v", err)
	}

	if s.Tydom.MAC != "001A25001122" {
		t.Errorf("mac = %q", s.Tydom.MAC)
	}
	if s.Tydom.AlarmPIN != "123456" {
		t.Errorf("alarm pin = %q, want 123456", s.Tydom.AlarmPIN)
	}
	if s.MQTT.Port != 1885 {
		t.Errorf("port = %d, want 1885", s.MQTT.Port)
	}
	if !s.MQTT.SSL {
		t.Error("ssl should be true")
	}
}

func TestApplyHassioOptionsMissingFile(t *testing.T) {
	s := NewSettings()
	if err := s.applyHassioOptions(filepath.Join(t.TempDir(), "nope.json")); err != nil {
		t.Errorf("missing options file should not be an error, got %v", err)
	}
}
