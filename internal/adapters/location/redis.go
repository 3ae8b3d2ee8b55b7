package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/metrics"
)

const keyPrefix = "owner:location:"

// Redis читает последнее местоположение владельца из хэша owner:location:<id>
// с полями lat и lon.
type Redis struct {
	client *redis.Client
}

var _ domain.LocationProvider = (*Redis)(nil)

// NewRedis создаёт провайдер местоположений.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// LastKnownLocation возвращает точку или ok=false, если данных нет.
func (r *Redis) LastKnownLocation(ctx context.Context, ownerID string) (domain.Location, bool, error) {
	start := time.Now()
	vals, err := r.client.HMGet(ctx, keyPrefix+ownerID, "lat", "lon").Result()
	metrics.ObserveNetworkRequest("redis", "hmget", keyPrefix, start, err)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Location{}, false, nil
		}
		return domain.Location{}, false, fmt.Errorf("load location: %w", err)
	}
	return parseLocation(vals)
}

func parseLocation(vals []interface{}) (domain.Location, bool, error) {
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return domain.Location{}, false, nil
	}
	latRaw, ok1 := vals[0].(string)
	lonRaw, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return domain.Location{}, false, nil
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return domain.Location{}, false, fmt.Errorf("parse lat: %w", err)
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return domain.Location{}, false, fmt.Errorf("parse lon: %w", err)
	}
	return domain.Location{Lat: lat, Lon: lon}, true, nil
}
