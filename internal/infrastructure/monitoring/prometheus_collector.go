package monitoring

import (
	"newspulse/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	activityEventsTotal   *prometheus.CounterVec
	notificationsSent     prometheus.Counter
	notificationsDropped  prometheus.Counter
	roomBroadcastsTotal   *prometheus.CounterVec
	idleConnectionsClosed prometheus.Counter

	// Gauges
	connectedClients  prometheus.Gauge
	streamsActive     prometheus.Gauge
	trendEntriesTotal prometheus.Gauge
	regionsTracked    prometheus.Gauge

	// Stream metrics
	streamViewerCount *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		activityEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "newspulse_activity_events_total",
			Help: "Total number of ingested activity events",
		}, []string{"type"}),

		notificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "newspulse_notifications_sent_total",
			Help: "Total number of notifications delivered to live sessions",
		}),

		notificationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "newspulse_notifications_dropped_total",
			Help: "Total number of notifications with no live session to deliver to",
		}),

		roomBroadcastsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "newspulse_room_broadcasts_total",
			Help: "Total number of room bus broadcasts by event name",
		}, []string{"event"}),

		idleConnectionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "newspulse_idle_connections_closed_total",
			Help: "Total number of connections closed by the liveness sweep",
		}),

		connectedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "newspulse_connected_clients",
			Help: "Current number of raw socket connections",
		}),

		streamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "newspulse_streams_active",
			Help: "Current number of active live streams",
		}),

		trendEntriesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "newspulse_trend_entries",
			Help: "Current number of tracked trend entries",
		}),

		regionsTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "newspulse_regions_tracked",
			Help: "Current number of regions in the activity index",
		}),

		streamViewerCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "newspulse_stream_viewer_count",
			Help: "Number of viewers per live stream",
		}, []string{"stream_id"}),
	}
}

func (p *PrometheusCollector) RecordActivity(typ domain.ActivityType) {
	p.activityEventsTotal.WithLabelValues(string(typ)).Inc()
}

func (p *PrometheusCollector) RecordNotification(delivered bool) {
	if delivered {
		p.notificationsSent.Inc()
	} else {
		p.notificationsDropped.Inc()
	}
}

func (p *PrometheusCollector) RecordRoomBroadcast(event string) {
	p.roomBroadcastsTotal.WithLabelValues(event).Inc()
}

func (p *PrometheusCollector) RecordIdleClosed(count int) {
	p.idleConnectionsClosed.Add(float64(count))
}

func (p *PrometheusCollector) SetConnectedClients(count int) {
	p.connectedClients.Set(float64(count))
}

func (p *PrometheusCollector) SetActiveStreams(count int) {
	p.streamsActive.Set(float64(count))
}

func (p *PrometheusCollector) SetTrendEntries(count int) {
	p.trendEntriesTotal.Set(float64(count))
}

func (p *PrometheusCollector) SetRegionsTracked(count int) {
	p.regionsTracked.Set(float64(count))
}

func (p *PrometheusCollector) SetStreamViewers(streamID string, count int) {
	p.streamViewerCount.WithLabelValues(streamID).Set(float64(count))
}

func (p *PrometheusCollector) RemoveStream(streamID string) {
	p.streamViewerCount.DeleteLabelValues(streamID)
}
