package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"studentengagement/api/internal/models"
)

// VenueCache keeps venue lookups in redis. Venues never change after
// creation so entries are only evicted by TTL. A nil cache is a permanent miss.
type VenueCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewVenueCache(client *redis.Client, ttl time.Duration) *VenueCache {
	if client == nil {
		return nil
	}
	return &VenueCache{client: client, ttl: ttl}
}

func venueKey(id int64) string {
	return "venue:" + strconv.FormatInt(id, 10)
}

func (c *VenueCache) Get(ctx context.Context, id int64) (models.VenueDetail, bool, error) {
	if c == nil {
		return models.VenueDetail{}, false, nil
	}

	raw, err := c.client.Get(ctx, venueKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.VenueDetail{}, false, nil
		}
		return models.VenueDetail{}, false, fmt.Errorf("get %s: %w", venueKey(id), err)
	}

	var detail models.VenueDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return models.VenueDetail{}, false, fmt.Errorf("decode %s: %w", venueKey(id), err)
	}
	return detail, true, nil
}

func (c *VenueCache) Set(ctx context.Context, detail models.VenueDetail) error {
	if c == nil {
		return nil
	}

	raw, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, venueKey(detail.ID), raw, c.ttl).Err()
}
