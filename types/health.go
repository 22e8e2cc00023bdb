package types

// HealthStatus is the state of the gateway or one of its dependencies.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "UP"
	HealthStatusDown     HealthStatus = "DOWN"
	HealthStatusDegraded HealthStatus = "DEGRADED"
)

// Component keys in HealthCheck.Components.
const (
	HealthComponentStore = "store"
	HealthComponentRedis = "redis"
)

// HealthComponent reports one dependency. Driver names the feedback store
// backend (supabase, postgres, memory) on the store component.
type HealthComponent struct {
	Status  HealthStatus `json:"status"`
	Driver  string       `json:"driver,omitempty"`
	Details string       `json:"details,omitempty"`
}

// HealthCheck is the body of /health and /health/readiness. A DOWN store makes
// the gateway DOWN; a DOWN Redis only stops the live feed and is DEGRADED.
type HealthCheck struct {
	Status     HealthStatus               `json:"status"`
	Components map[string]HealthComponent `json:"components"`
	Version    string                     `json:"version"`
	Timestamp  string                     `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
}
