package services

import (
	"context"
	"time"

	"github.com/folio-site/folio-backend/internal/store"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// HealthService reports the state of the store and, when configured, Redis.
type HealthService struct {
	store       store.Pinger
	redisClient *redis.Client
	version     string
	storeDriver string
	startTime   time.Time
	log         *zap.SugaredLogger
}

// NewHealthService creates a HealthService. redisClient may be nil.
func NewHealthService(pinger store.Pinger, redisClient *redis.Client, version string) *HealthService {
	return &HealthService{
		store:       pinger,
		redisClient: redisClient,
		version:     version,
		startTime:   time.Now(),
		log:         logger.GetLogger().Named("health"),
	}
}

// WithStoreDriver records the store backend name reported on the store
// component.
func (h *HealthService) WithStoreDriver(driver string) *HealthService {
	h.storeDriver = driver
	return h
}

// CheckHealth runs every component check. A failing store makes the service
// DOWN; a failing Redis only degrades the live feed.
func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	components := make(map[string]types.HealthComponent)
	overallStatus := types.HealthStatusUp

	storeStatus := h.checkStore(ctx)
	storeStatus.Driver = h.storeDriver
	components[types.HealthComponentStore] = storeStatus
	if storeStatus.Status == types.HealthStatusDown {
		overallStatus = types.HealthStatusDown
	}

	if h.redisClient != nil {
		redisStatus := h.checkRedis(ctx)
		components[types.HealthComponentRedis] = redisStatus
		if redisStatus.Status != types.HealthStatusUp && overallStatus == types.HealthStatusUp {
			overallStatus = types.HealthStatusDegraded
		}
	}

	return types.HealthCheck{
		Status:     overallStatus,
		Components: components,
		Version:    h.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
	}
}

func (h *HealthService) checkStore(ctx context.Context) types.HealthComponent {
	if h.store == nil {
		return types.HealthComponent{Status: types.HealthStatusUp, Details: "No health probe for this store"}
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Errorw("Store health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Store connection failed",
		}
	}
	return types.HealthComponent{Status: types.HealthStatusUp}
}

func (h *HealthService) checkRedis(ctx context.Context) types.HealthComponent {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Redis connection failed",
		}
	}
	return types.HealthComponent{Status: types.HealthStatusUp}
}
