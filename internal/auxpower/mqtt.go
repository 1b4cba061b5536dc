// internal/auxpower/mqtt.go
package auxpower

import (
	"encoding/json"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// SubscribeMQTT feeds val from a broker topic. The payload is either a
// bare number of watts or, when field is set, a JSON document with the
// watts at that dotted path.
func SubscribeMQTT(client mqtt.Client, topic, field string, val *Value, log zerolog.Logger) error {
	slog := log.With().Str("task", "aux-mqtt").Str("topic", topic).Logger()

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		watts, err := parsePayload(msg.Payload(), field)
		if err != nil {
			val.Fail()
			slog.Warn().Err(err).Msg("bad aux power payload")
			return
		}
		val.Set(float32(watts))
	}

	tok := client.Subscribe(topic, 0, handler)
	tok.Wait()
	return tok.Error()
}

func parsePayload(payload []byte, field string) (float64, error) {
	if field == "" {
		return strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return 0, err
	}
	return extractNumber(doc, field)
}
