// internal/config/config.go
package config

type Config struct {
	Proxy      ProxyConfig      `yaml:"proxy"`
	Correction CorrectionConfig `yaml:"correction"`
	Aux        AuxConfig        `yaml:"aux"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	HTTP       HTTPConfig       `yaml:"http"`
	Health     HealthConfig     `yaml:"health"`
	Log        LogConfig        `yaml:"log"`
}

// ---- PROXY ----

type ProxyConfig struct {
	Upstream   SerialConfig `yaml:"upstream"`
	Downstream SerialConfig `yaml:"downstream"`

	MeterID   uint8  `yaml:"meter_id"` // 0 selects DefaultMeterID
	WordOrder string `yaml:"word_order"`

	UpstreamTimeoutMs   int `yaml:"upstream_timeout_ms"`
	DownstreamTimeoutMs int `yaml:"downstream_timeout_ms"`
}

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// ---- CORRECTION ----

type CorrectionConfig struct {
	ThresholdW  float32 `yaml:"threshold_w"`
	Sign        string  `yaml:"sign"` // add | subtract
	AuxMaxAgeMs int     `yaml:"aux_max_age_ms"`
}

// ---- AUX POWER SOURCE ----

type AuxConfig struct {
	Source string `yaml:"source"` // none | http | mqtt | modbus

	HTTP   AuxHTTPConfig   `yaml:"http"`
	MQTT   AuxMQTTConfig   `yaml:"mqtt"`
	Modbus AuxModbusConfig `yaml:"modbus"`
}

type AuxHTTPConfig struct {
	URL        string `yaml:"url"`
	Field      string `yaml:"field"` // dotted JSON path
	IntervalMs int    `yaml:"interval_ms"`
}

type AuxMQTTConfig struct {
	Topic string `yaml:"topic"`
	Field string `yaml:"field"` // empty => bare numeric payload
}

type AuxModbusConfig struct {
	Endpoint   string  `yaml:"endpoint"`
	UnitID     uint8   `yaml:"unit_id"`
	Register   uint16  `yaml:"register"`
	WordOrder  string  `yaml:"word_order"`
	Scale      float32 `yaml:"scale"`
	IntervalMs int     `yaml:"interval_ms"`
	TimeoutMs  int     `yaml:"timeout_ms"`
}

// ---- TELEMETRY ----

type MQTTConfig struct {
	Broker     string `yaml:"broker"` // empty => MQTT disabled
	ClientID   string `yaml:"client_id"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	RootTopic  string `yaml:"root_topic"`
	IntervalMs int    `yaml:"interval_ms"`
	Retain     bool   `yaml:"retain"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty => HTTP disabled
}

// ---- HEALTH ----

type HealthConfig struct {
	CheckIntervalMs int    `yaml:"check_interval_ms"`
	TaskTimeoutMs   int    `yaml:"task_timeout_ms"`
	MemWarnBytes    uint64 `yaml:"mem_warn_bytes"`
	GraceMs         int    `yaml:"grace_ms"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}
