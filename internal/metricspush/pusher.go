// Package metricspush ships the process Prometheus registry to a collector
// on an interval, for report workers that run where /metrics is not scraped.
package metricspush

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"github.com/smallbiznis/backoffice/internal/config"
)

const (
	ExporterPushgateway = "pushgateway"
	ExporterRemoteWrite = "remote_write"

	pushTimeout = 5 * time.Second
)

var ErrEndpointRequired = errors.New("metrics_push_endpoint_required")

// Pusher sends one snapshot of gatherer to the collector.
type Pusher interface {
	Push(ctx context.Context, gatherer prometheus.Gatherer) error
}

// NewPusher returns nil when pushing is disabled.
func NewPusher(cfg config.Config) (Pusher, error) {
	pc := cfg.MetricsPush
	if pc.Exporter == "" {
		return nil, nil
	}
	if pc.Endpoint == "" {
		return nil, ErrEndpointRequired
	}

	switch pc.Exporter {
	case ExporterRemoteWrite:
		if _, err := url.ParseRequestURI(pc.Endpoint); err != nil {
			return nil, fmt.Errorf("metrics push endpoint: %w", err)
		}
		return &RemoteWritePusher{
			endpoint:   pc.Endpoint,
			authToken:  pc.AuthToken,
			httpClient: &http.Client{Timeout: pushTimeout},
		}, nil
	case ExporterPushgateway:
		return &PushgatewayPusher{
			endpoint: pc.Endpoint,
			job:      cfg.AppName,
			grouping: map[string]string{"environment": strings.TrimSpace(cfg.Environment)},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported metrics push exporter %q", pc.Exporter)
	}
}

// RemoteWritePusher posts counters and gauges to a Prometheus remote_write
// endpoint. Histograms are left to the scrape path.
type RemoteWritePusher struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
}

func (p *RemoteWritePusher) Push(ctx context.Context, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	series := toTimeSeries(families, time.Now().UnixMilli())
	if len(series) == 0 {
		return nil
	}

	// prompb messages carry their own gogo codec.
	write := prompb.WriteRequest{Timeseries: series}
	payload, err := write.Marshal()
	if err != nil {
		return fmt.Errorf("encode write request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(snappy.Encode(nil, payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "snappy")
	req.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("remote write returned %s", resp.Status)
	}
	return nil
}

// PushgatewayPusher replaces the job's group on a Pushgateway.
type PushgatewayPusher struct {
	endpoint string
	job      string
	grouping map[string]string
}

func (p *PushgatewayPusher) Push(ctx context.Context, gatherer prometheus.Gatherer) error {
	job := strings.TrimSpace(p.job)
	if job == "" {
		job = "backoffice"
	}
	pusher := push.New(p.endpoint, job).Gatherer(gatherer)
	for key, value := range p.grouping {
		if key != "" && value != "" {
			pusher = pusher.Grouping(key, value)
		}
	}
	return pusher.PushContext(ctx)
}

func toTimeSeries(families []*dto.MetricFamily, timestampMs int64) []prompb.TimeSeries {
	var series []prompb.TimeSeries
	for _, family := range families {
		for _, m := range family.GetMetric() {
			value, ok := sampleValue(family.GetType(), m)
			if !ok {
				continue
			}
			labels := []prompb.Label{{Name: "__name__", Value: family.GetName()}}
			for _, pair := range m.GetLabel() {
				labels = append(labels, prompb.Label{Name: pair.GetName(), Value: pair.GetValue()})
			}
			sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })

			series = append(series, prompb.TimeSeries{
				Labels:  labels,
				Samples: []prompb.Sample{{Value: value, Timestamp: timestampMs}},
			})
		}
	}
	return series
}

func sampleValue(kind dto.MetricType, m *dto.Metric) (float64, bool) {
	switch {
	case m == nil:
		return 0, false
	case kind == dto.MetricType_COUNTER && m.GetCounter() != nil:
		return m.GetCounter().GetValue(), true
	case kind == dto.MetricType_GAUGE && m.GetGauge() != nil:
		return m.GetGauge().GetValue(), true
	default:
		return 0, false
	}
}
