// internal/config/validate_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// helper building the minimal valid config
func valid() *Config {
	return &Config{
		Proxy: ProxyConfig{
			Upstream:   SerialConfig{Device: "/dev/ttyUSB0"},
			Downstream: SerialConfig{Device: "/dev/ttyUSB1"},
		},
	}
}

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingDevices(t *testing.T) {
	cfg := valid()
	cfg.Proxy.Upstream.Device = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing upstream device")
	}

	cfg = valid()
	cfg.Proxy.Downstream.Device = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing downstream device")
	}
}

func TestValidate_SameDevice(t *testing.T) {
	cfg := valid()
	cfg.Proxy.Downstream.Device = cfg.Proxy.Upstream.Device
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for identical serial devices")
	}
}

func TestValidate_MeterIDRange(t *testing.T) {
	cfg := valid()
	cfg.Proxy.MeterID = 248
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for meter_id > 247")
	}

	// 0 is the unset marker; Normalize resolves it to the default.
	cfg = valid()
	cfg.Proxy.MeterID = 0
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error for meter_id 0: %v", err)
	}
	Normalize(cfg)
	if cfg.Proxy.MeterID != DefaultMeterID {
		t.Fatalf("meter_id=%d after Normalize, want %d", cfg.Proxy.MeterID, DefaultMeterID)
	}
}

func TestValidate_WordOrder(t *testing.T) {
	cfg := valid()
	cfg.Proxy.WordOrder = "abdc"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for bad word order")
	}

	cfg = valid()
	cfg.Proxy.WordOrder = "cdab"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CorrectionSign(t *testing.T) {
	for _, sign := range []string{"", "add", "subtract"} {
		cfg := valid()
		cfg.Correction.Sign = sign
		if err := Validate(cfg); err != nil {
			t.Fatalf("sign %q: unexpected error: %v", sign, err)
		}
	}

	cfg := valid()
	cfg.Correction.Sign = "invert"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for bad sign")
	}
}

func TestValidate_NegativeThreshold(t *testing.T) {
	cfg := valid()
	cfg.Correction.ThresholdW = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative threshold")
	}
}

func TestValidate_AuxSource(t *testing.T) {
	cfg := valid()
	cfg.Aux.Source = "serial"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown aux source")
	}

	cfg = valid()
	cfg.Aux.Source = "http"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for http source without url")
	}
	cfg.Aux.HTTP.URL = "ftp://host/api"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for non-http url")
	}
	cfg.Aux.HTTP.URL = "http://evcc.local/api/state"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg = valid()
	cfg.Aux.Source = "mqtt"
	cfg.Aux.MQTT.Topic = "wallbox/power"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for mqtt source without broker")
	}
	cfg.MQTT.Broker = "tcp://broker:1883"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg = valid()
	cfg.Aux.Source = "modbus"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for modbus source without endpoint")
	}
	cfg.Aux.Modbus.Endpoint = "192.168.1.50:502"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RootTopicTrailingSlash(t *testing.T) {
	cfg := valid()
	cfg.MQTT.Broker = "tcp://broker:1883"
	cfg.MQTT.RootTopic = "dtsu666/"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for trailing slash in root topic")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := valid()
	Normalize(cfg)

	if cfg.Proxy.Upstream.Baud != DefaultBaud || cfg.Proxy.Downstream.Baud != DefaultBaud {
		t.Fatalf("baud defaults: %+v", cfg.Proxy)
	}
	if cfg.Proxy.MeterID != DefaultMeterID {
		t.Fatalf("meter_id=%d, want %d", cfg.Proxy.MeterID, DefaultMeterID)
	}
	if cfg.Proxy.WordOrder != DefaultWordOrder {
		t.Fatalf("word_order=%q", cfg.Proxy.WordOrder)
	}
	if cfg.Correction.Sign != "add" {
		t.Fatalf("sign=%q, want add", cfg.Correction.Sign)
	}
	if cfg.Correction.AuxMaxAgeMs != DefaultAuxMaxAgeMs {
		t.Fatalf("aux_max_age_ms=%d", cfg.Correction.AuxMaxAgeMs)
	}
	if cfg.Aux.Source != "none" {
		t.Fatalf("aux.source=%q, want none", cfg.Aux.Source)
	}
	if cfg.Aux.Modbus.Scale != 1 {
		t.Fatalf("scale=%v, want 1", cfg.Aux.Modbus.Scale)
	}
	if cfg.Health.CheckIntervalMs != DefaultHealthCheckIntervalMs ||
		cfg.Health.TaskTimeoutMs != DefaultHealthTaskTimeoutMs {
		t.Fatalf("health defaults: %+v", cfg.Health)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log.level=%q", cfg.Log.Level)
	}
}

func TestNormalize_MQTTOnlyWhenEnabled(t *testing.T) {
	cfg := valid()
	Normalize(cfg)
	if cfg.MQTT.ClientID != "" {
		t.Fatal("mqtt defaults applied with no broker")
	}

	cfg = valid()
	cfg.MQTT.Broker = "tcp://broker:1883"
	Normalize(cfg)
	if cfg.MQTT.ClientID != DefaultMQTTClientID || cfg.MQTT.RootTopic != "dtsu666" {
		t.Fatalf("mqtt defaults: %+v", cfg.MQTT)
	}
}

func TestLoad(t *testing.T) {
	body := `
proxy:
  upstream:
    device: /dev/ttyUSB0
    baud: 9600
  downstream:
    device: /dev/ttyUSB1
  meter_id: 11
correction:
  threshold_w: 100
  sign: add
aux:
  source: http
  http:
    url: http://evcc.local/api/state
    field: result.loadpoints.0.chargePower
mqtt:
  broker: tcp://broker:1883
  root_topic: dtsu666
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Proxy.Upstream.Device != "/dev/ttyUSB0" || cfg.Proxy.MeterID != 11 {
		t.Fatalf("proxy: %+v", cfg.Proxy)
	}
	if cfg.Correction.ThresholdW != 100 {
		t.Fatalf("correction: %+v", cfg.Correction)
	}
	if cfg.Aux.HTTP.Field != "result.loadpoints.0.chargePower" {
		t.Fatalf("aux: %+v", cfg.Aux)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("proxxy: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "proxxy") {
		t.Fatalf("expected unknown-field error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
