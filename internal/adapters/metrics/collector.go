// Package metrics counts shipping events and renders them in the Prometheus
// text exposition format.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

const namespace = "logship"

// Collector implements ports.EventEmitter by accumulating counters.
type Collector struct {
	mu sync.Mutex

	recordsReceived   float64
	payloadsDelivered float64
	recordsDelivered  float64
	bytesDelivered    float64
	retries           float64
	payloadsDropped   map[string]float64
	recordsDropped    map[string]float64
	lastDelivery      time.Time
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		payloadsDropped: make(map[string]float64),
		recordsDropped:  make(map[string]float64),
	}
}

func (c *Collector) OnReceived(records int) {
	c.mu.Lock()
	c.recordsReceived += float64(records)
	c.mu.Unlock()
}

func (c *Collector) OnDelivered(_ string, records, bytes, _ int, _ time.Duration) {
	c.mu.Lock()
	c.payloadsDelivered++
	c.recordsDelivered += float64(records)
	c.bytesDelivered += float64(bytes)
	c.lastDelivery = time.Now()
	c.mu.Unlock()
}

func (c *Collector) OnRetry(string, int, time.Duration, error) {
	c.mu.Lock()
	c.retries++
	c.mu.Unlock()
}

func (c *Collector) OnDropped(_ string, records int, reason string, _ error) {
	c.mu.Lock()
	c.payloadsDropped[reason]++
	c.recordsDropped[reason] += float64(records)
	c.mu.Unlock()
}

// Gather snapshots the counters as metric families sorted by name. Labelled
// families without any observation are omitted.
func (c *Collector) Gather() []*dto.MetricFamily {
	c.mu.Lock()
	defer c.mu.Unlock()

	families := []*dto.MetricFamily{
		counter("records_received_total", "Records handed to the shipping engine.", c.recordsReceived),
		counter("payloads_delivered_total", "Payloads accepted by the intake.", c.payloadsDelivered),
		counter("records_delivered_total", "Records contained in delivered payloads.", c.recordsDelivered),
		counter("bytes_delivered_total", "Uncompressed bytes contained in delivered payloads.", c.bytesDelivered),
		counter("retries_total", "Send attempts retried after a retryable failure.", c.retries),
		labelledCounter("payloads_dropped_total", "Payloads abandoned, by reason.", "reason", c.payloadsDropped),
		labelledCounter("records_dropped_total", "Records contained in abandoned payloads, by reason.", "reason", c.recordsDropped),
	}
	if !c.lastDelivery.IsZero() {
		families = append(families, &dto.MetricFamily{
			Name: proto.String(namespace + "_last_delivery_timestamp_seconds"),
			Help: proto.String("Unix time of the last successful delivery."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Gauge: &dto.Gauge{Value: proto.Float64(float64(c.lastDelivery.UnixNano()) / 1e9)},
			}},
		})
	}

	nonEmpty := families[:0]
	for _, mf := range families {
		if len(mf.Metric) > 0 {
			nonEmpty = append(nonEmpty, mf)
		}
	}
	families = nonEmpty

	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families
}

// WriteText writes every family in the text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	for _, mf := range c.Gather() {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Handler serves the counters for scraping.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
		if err := c.WriteText(w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func counter(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(namespace + "_" + name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(value)}}},
	}
}

func labelledCounter(name, help, label string, values map[string]float64) *dto.MetricFamily {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mf := &dto.MetricFamily{
		Name: proto.String(namespace + "_" + name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, k := range keys {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: proto.String(label), Value: proto.String(k)}},
			Counter: &dto.Counter{Value: proto.Float64(values[k])},
		})
	}
	return mf
}
