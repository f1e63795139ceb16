package config

import "fmt"

// Option names shared by the environment and the Home Assistant add-on
// options file.
const (
	OptLogLevel       = "LOG_LEVEL"
	OptMQTTHost       = "MQTT_HOST"
	OptMQTTPassword   = "MQTT_PASSWORD"
	OptMQTTPort       = "MQTT_PORT"
	OptMQTTSSL        = "MQTT_SSL"
	OptMQTTUser       = "MQTT_USER"
	OptAlarmHomeZone  = "TYDOM_ALARM_HOME_ZONE"
	OptAlarmNightZone = "TYDOM_ALARM_NIGHT_ZONE"
	OptAlarmPIN       = "TYDOM_ALARM_PIN"
	OptTydomIP        = "TYDOM_IP"
	OptTydomMAC       = "TYDOM_MAC"
	OptTydomPassword  = "TYDOM_PASSWORD"
)

// RemoteHost is the vendor's cloud relay. Any other host is treated as a
// hub reached directly on the LAN.
const RemoteHost = "mediation.tydom.com"

// Settings is the full bridge configuration.
type Settings struct {
	LogLevel string        `yaml:"log_level"`
	Tydom    TydomSettings `yaml:"tydom"`
	MQTT     MQTTSettings  `yaml:"mqtt"`
}

// TydomSettings configures the hub connection.
type TydomSettings struct {
	MAC            string `yaml:"mac"`
	Password       string `yaml:"password"`
	Host           string `yaml:"host"`
	AlarmPIN       string `yaml:"alarm_pin"`
	AlarmHomeZone  int    `yaml:"alarm_home_zone"`
	AlarmNightZone int    `yaml:"alarm_night_zone"`
}

// MQTTSettings configures the broker connection.
type MQTTSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSL      bool   `yaml:"ssl"`
}

// NewSettings returns settings populated with defaults.
func NewSettings() *Settings {
	return &Settings{
		LogLevel: "info",
		Tydom: TydomSettings{
			Host:           RemoteHost,
			AlarmHomeZone:  1,
			AlarmNightZone: 2,
		},
		MQTT: MQTTSettings{
			Host: "localhost",
			Port: 1883,
		},
	}
}

// Remote reports whether the configured host is the vendor's cloud relay.
func (s *Settings) Remote() bool {
	return s.Tydom.Host == RemoteHost
}

// BrokerURL returns the paho broker URL for the configured MQTT settings.
func (s *Settings) BrokerURL() string {
	return s.MQTT.BrokerURL()
}

// BrokerURL returns the paho broker URL for these settings.
func (m MQTTSettings) BrokerURL() string {
	scheme := "tcp"
	if m.SSL {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, m.Host, m.Port)
}

// Validate checks that the required hub credentials are present.
func (s *Settings) Validate() error {
	if s.Tydom.MAC == "" {
		return fmt.Errorf("tydom MAC address must be defined (%s)", OptTydomMAC)
	}
	if s.Tydom.Password == "" {
		return fmt.Errorf("tydom password must be defined (%s)", OptTydomPassword)
	}
	if s.Tydom.Host == "" {
		return fmt.Errorf("tydom host must not be empty (%s)", OptTydomIP)
	}
	return nil
}
