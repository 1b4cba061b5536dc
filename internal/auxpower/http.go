// internal/auxpower/http.go
package auxpower

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HTTPPoller polls an EVCC-style JSON API for the charge power of the
// load that is invisible to the meter.
type HTTPPoller struct {
	url      string
	field    string
	interval time.Duration
	client   *http.Client
	val      *Value
	log      zerolog.Logger
}

// NewHTTPPoller builds a poller writing into val. field is a dotted
// path into the JSON document; numeric segments index arrays
// (e.g. "result.loadpoints.0.chargePower").
func NewHTTPPoller(url, field string, interval time.Duration, val *Value, log zerolog.Logger) *HTTPPoller {
	return &HTTPPoller{
		url:      url,
		field:    field,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		val:      val,
		log:      log.With().Str("task", "aux-http").Logger(),
	}
}

// Run polls until ctx is cancelled. Poll failures mark the value failed
// but never propagate; the proxy path just sees the value go stale.
func (p *HTTPPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.pollOnce(ctx); err != nil {
			p.val.Fail()
			p.log.Warn().Err(err).Msg("aux power poll failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *HTTPPoller) pollOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auxpower: http status %d", resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("auxpower: decode body: %w", err)
	}

	watts, err := extractNumber(doc, p.field)
	if err != nil {
		return err
	}
	p.val.Set(float32(watts))
	return nil
}

// extractNumber walks a decoded JSON document along a dotted path and
// returns the number at the end.
func extractNumber(doc any, path string) (float64, error) {
	cur := doc
	if path != "" {
		for _, seg := range strings.Split(path, ".") {
			switch node := cur.(type) {
			case map[string]any:
				v, ok := node[seg]
				if !ok {
					return 0, fmt.Errorf("auxpower: field %q not found", seg)
				}
				cur = v
			case []any:
				i, err := strconv.Atoi(seg)
				if err != nil || i < 0 || i >= len(node) {
					return 0, fmt.Errorf("auxpower: bad array index %q", seg)
				}
				cur = node[i]
			default:
				return 0, fmt.Errorf("auxpower: cannot descend into %T at %q", cur, seg)
			}
		}
	}
	n, ok := cur.(float64)
	if !ok {
		return 0, fmt.Errorf("auxpower: value at %q is %T, not a number", path, cur)
	}
	return n, nil
}
