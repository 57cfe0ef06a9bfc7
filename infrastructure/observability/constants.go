package observability

// Metric name prefixes
const (
	MetricPrefix = "bumpbot"
)

// Metric names
const (
	// Bump metrics
	BumpsDetectedTotal     = MetricPrefix + ".bumps.detected_total"
	BumpsUnattributedTotal = MetricPrefix + ".bumps.unattributed_total"

	// Registration and reward metrics
	RegistrationsTotal     = MetricPrefix + ".registrations.total"
	RewardsDispatchedTotal = MetricPrefix + ".rewards.dispatched_total"
	ConsoleCommandsTotal   = MetricPrefix + ".rewards.console_commands_total"

	// Role offer metrics
	RoleOffersResolvedTotal = MetricPrefix + ".role_offers.resolved_total"
	RoleOffersPending       = MetricPrefix + ".role_offers.pending"
	RoleOfferOpenDuration   = MetricPrefix + ".role_offers.open_duration"

	// Identity store metrics
	StoreCallsTotal   = MetricPrefix + ".store.calls_total"
	StoreCallDuration = MetricPrefix + ".store.call_duration"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelSource    = "source"
	LabelReason    = "reason"
	LabelOutcome   = "outcome"
	LabelUpdated   = "updated"
	LabelAnnounced = "announced"
	LabelEventType = "event_type"
	LabelOperation = "operation"
	LabelErrorType = "error_type"
)

// Error types for store calls
const (
	ErrorTypeNone    = "none"
	ErrorTypeClient  = "client"
	ErrorTypeServer  = "server"
	ErrorTypeNetwork = "network"
)
