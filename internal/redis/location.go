package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"servio/internal/domain"
	"servio/internal/geo"
)

const (
	providerGeoKey       = "providers:geo"
	providerOnlineKey    = "providers:online"
	providerSamplePrefix = "providers:sample:"
)

// storedSample is the JSON shape of the latest-sample record.
type storedSample struct {
	ID             string    `json:"id"`
	ProviderID     string    `json:"provider_id"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty"`
	HeadingDegrees float64   `json:"heading_degrees,omitempty"`
	SpeedKmh       float64   `json:"speed_kmh,omitempty"`
	Online         bool      `json:"online"`
	BatteryPercent int       `json:"battery_percent,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
}

// LocationStore keeps the latest known sample per provider plus a geo index
// of online providers. A new ping replaces the latest-sample record; it never
// rewrites older samples (history lives in PostgreSQL).
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// Record stores the sample as the provider's latest known position. Online
// samples enter the geo index and online set; offline samples leave both.
// Per-provider writes are last-write-wins on the single latest record, so
// unrelated providers never contend.
func (s *LocationStore) Record(ctx context.Context, sample *domain.LocationSample) error {
	data, err := json.Marshal(toStored(sample))
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, providerSamplePrefix+sample.ProviderID, data, 0)
	if sample.Online {
		pipe.GeoAdd(ctx, providerGeoKey, &redis.GeoLocation{
			Name:      sample.ProviderID,
			Longitude: sample.Position.Lon,
			Latitude:  sample.Position.Lat,
		})
		pipe.SAdd(ctx, providerOnlineKey, sample.ProviderID)
	} else {
		pipe.ZRem(ctx, providerGeoKey, sample.ProviderID)
		pipe.SRem(ctx, providerOnlineKey, sample.ProviderID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Latest returns the provider's most recent sample, or found=false when the
// provider has never pinged.
func (s *LocationStore) Latest(ctx context.Context, providerID string) (*domain.LocationSample, bool, error) {
	data, err := s.client.Get(ctx, providerSamplePrefix+providerID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	var stored storedSample
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, false, err
	}
	return fromStored(&stored), true, nil
}

// OnlineWithin returns the latest sample of every online provider within
// radiusKm of center, excluding samples older than maxAge. Ordering is
// unspecified; callers re-sort.
func (s *LocationStore) OnlineWithin(ctx context.Context, center geo.Position, radiusKm float64, maxAge time.Duration) ([]*domain.LocationSample, error) {
	results, err := s.client.GeoRadius(ctx, providerGeoKey, center.Lon, center.Lat, &redis.GeoRadiusQuery{
		Radius: radiusKm,
		Unit:   "km",
		Sort:   "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, nil
	}

	// Batch-fetch the latest samples for the index hits.
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(results))
	for i, r := range results {
		cmds[i] = pipe.Get(ctx, providerSamplePrefix+r.Name)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	now := time.Now()
	samples := make([]*domain.LocationSample, 0, len(results))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue // index entry without a sample record; skip
		}
		var stored storedSample
		if err := json.Unmarshal(data, &stored); err != nil {
			continue
		}
		sample := fromStored(&stored)
		if !sample.Online || sample.Stale(now, maxAge) {
			continue
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

// SetOffline removes the provider from the geo index and online set and flips
// the latest sample's online flag. Idempotent: repeating it is a no-op.
func (s *LocationStore) SetOffline(ctx context.Context, providerID string) error {
	sample, found, err := s.Latest(ctx, providerID)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, providerGeoKey, providerID)
	pipe.SRem(ctx, providerOnlineKey, providerID)
	if found && sample.Online {
		sample.Online = false
		data, err := json.Marshal(toStored(sample))
		if err != nil {
			return err
		}
		pipe.Set(ctx, providerSamplePrefix+providerID, data, 0)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// IsOnline reports whether the provider is in the online set.
func (s *LocationStore) IsOnline(ctx context.Context, providerID string) (bool, error) {
	return s.client.SIsMember(ctx, providerOnlineKey, providerID).Result()
}

func toStored(s *domain.LocationSample) *storedSample {
	return &storedSample{
		ID:             s.ID,
		ProviderID:     s.ProviderID,
		Lat:            s.Position.Lat,
		Lon:            s.Position.Lon,
		AccuracyMeters: s.AccuracyMeters,
		HeadingDegrees: s.HeadingDegrees,
		SpeedKmh:       s.SpeedKmh,
		Online:         s.Online,
		BatteryPercent: s.BatteryPercent,
		CapturedAt:     s.CapturedAt,
	}
}

func fromStored(s *storedSample) *domain.LocationSample {
	return &domain.LocationSample{
		ID:             s.ID,
		ProviderID:     s.ProviderID,
		Position:       geo.Position{Lat: s.Lat, Lon: s.Lon},
		AccuracyMeters: s.AccuracyMeters,
		HeadingDegrees: s.HeadingDegrees,
		SpeedKmh:       s.SpeedKmh,
		Online:         s.Online,
		BatteryPercent: s.BatteryPercent,
		CapturedAt:     s.CapturedAt,
	}
}
