package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	XPAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isa_xp_awarded_total",
			Help: "Total XP credited, by action",
		},
		[]string{"action"},
	)

	AwardsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isa_xp_awards_skipped_total",
			Help: "Award attempts ignored because the (user, content, action) was already credited",
		},
		[]string{"action"},
	)

	TierChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isa_tier_changes_total",
			Help: "Tier-ups, by tier reached",
		},
		[]string{"tier"},
	)

	EngagementToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isa_engagement_toggles_total",
			Help: "Engagement toggles, by kind and resulting state",
		},
		[]string{"kind", "state"},
	)

	AccessDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "isa_access_denied_total",
			Help: "Requests rejected by the tier policy",
		},
		[]string{"action"},
	)

	NotificationEmitFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "isa_notification_emit_failures_total",
			Help: "Notifications that could not be stored or published",
		},
	)

	NotificationsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "isa_notifications_expired_total",
			Help: "Expired notifications removed by the cleanup job",
		},
	)
)
