package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
)

// HassioOptionsPath is where the Home Assistant supervisor writes the
// add-on options file. Its presence switches the final override layer on.
const HassioOptionsPath = "/data/options.json"

// Load builds the settings from defaults, an optional YAML file, the
// environment, and the Home Assistant options file, then validates them.
// filePath may be empty.
func Load(filePath string) (*Settings, error) {
	settings := NewSettings()

	if filePath != "" {
		if err := settings.applyFile(filePath); err != nil {
			return nil, err
		}
	}

	settings.applyEnv()

	if err := settings.applyHassioOptions(HassioOptionsPath); err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logging.Info("Configuration loaded",
		zap.String("tydom_host", settings.Tydom.Host),
		zap.String("tydom_mac", settings.Tydom.MAC),
		zap.String("tydom_password", logging.Redact(settings.Tydom.Password)),
		zap.String("alarm_pin", logging.Redact(settings.Tydom.AlarmPIN)),
		zap.Bool("remote_mode", settings.Remote()),
		zap.String("mqtt_broker", settings.BrokerURL()),
		zap.String("mqtt_user", settings.MQTT.User),
		zap.String("mqtt_password", logging.Redact(settings.MQTT.Password)),
		zap.String("log_level", settings.LogLevel),
	)

	return settings, nil
}

func (s *Settings) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (s *Settings) applyEnv() {
	setString(&s.LogLevel, OptLogLevel)
	setString(&s.Tydom.MAC, OptTydomMAC)
	setString(&s.Tydom.Password, OptTydomPassword)
	setString(&s.Tydom.Host, OptTydomIP)
	setString(&s.Tydom.AlarmPIN, OptAlarmPIN)
	setInt(&s.Tydom.AlarmHomeZone, OptAlarmHomeZone)
	setInt(&s.Tydom.AlarmNightZone, OptAlarmNightZone)
	setString(&s.MQTT.Host, OptMQTTHost)
	setInt(&s.MQTT.Port, OptMQTTPort)
	setString(&s.MQTT.User, OptMQTTUser)
	setString(&s.MQTT.Password, OptMQTTPassword)
	setBool(&s.MQTT.SSL, OptMQTTSSL)
}

// applyHassioOptions overrides settings from the add-on options file.
// A missing file just means we are not running under the supervisor.
func (s *Settings) applyHassioOptions(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Debug("Hassio environment not detected")
			return nil
		}
		return fmt.Errorf("failed to read hassio options: %w", err)
	}

	logging.Info("Hassio environment detected, loading add-on options",
		zap.String("path", path))

	var options map[string]json.RawMessage
	if err := json.Unmarshal(data, &options); err != nil {
		return fmt.Errorf("failed to parse hassio options: %w", err)
	}

	overrideString(options, OptLogLevel, &s.LogLevel)
	overrideString(options, OptTydomMAC, &s.Tydom.MAC)
	overrideString(options, OptTydomIP, &s.Tydom.Host)
	overrideString(options, OptTydomPassword, &s.Tydom.Password)
	overrideString(options, OptAlarmPIN, &s.Tydom.AlarmPIN)
	overrideInt(options, OptAlarmHomeZone, &s.Tydom.AlarmHomeZone)
	overrideInt(options, OptAlarmNightZone, &s.Tydom.AlarmNightZone)
	overrideString(options, OptMQTTHost, &s.MQTT.Host)
	overrideString(options, OptMQTTUser, &s.MQTT.User)
	overrideString(options, OptMQTTPassword, &s.MQTT.Password)
	overrideInt(options, OptMQTTPort, &s.MQTT.Port)
	overrideBool(options, OptMQTTSSL, &s.MQTT.SSL)

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// The add-on options file is loosely typed: numbers may arrive as strings
// and the PIN may arrive as a number, so every override tolerates both.

func overrideString(options map[string]json.RawMessage, key string, dst *string) {
	raw, ok := options[key]
	if !ok {
		return
	}
	var v string
	if err := json.Unmarshal(raw, &v); err == nil {
		if v != "" {
			*dst = v
		}
		return
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		*dst = n.String()
	}
}

func overrideInt(options map[string]json.RawMessage, key string, dst *int) {
	raw, ok := options[key]
	if !ok {
		return
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		*dst = n
		return
	}
	var v string
	if err := json.Unmarshal(raw, &v); err == nil && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func overrideBool(options map[string]json.RawMessage, key string, dst *bool) {
	raw, ok := options[key]
	if !ok {
		return
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		*dst = b
		return
	}
	var v string
	if err := json.Unmarshal(raw, &v); err == nil && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}
