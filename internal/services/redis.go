package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// SetMemberBalance caches a member's account credit balance
func SetMemberBalance(ctx context.Context, userID uint, balance float64) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("member:balance:%d", userID)
	return RedisClient.Set(ctx, key, fmt.Sprintf("%f", balance), time.Hour).Err()
}

// GetMemberBalance retrieves a cached member balance. The second return value
// is false on a cache miss.
func GetMemberBalance(ctx context.Context, userID uint) (float64, bool) {
	if RedisClient == nil {
		return 0, false
	}
	key := fmt.Sprintf("member:balance:%d", userID)
	result, err := RedisClient.Get(ctx, key).Float64()
	if err != nil {
		return 0, false
	}
	return result, true
}

// InvalidateMemberBalance drops the cached balance after a payment touches it
func InvalidateMemberBalance(ctx context.Context, userID uint) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("member:balance:%d", userID)
	return RedisClient.Del(ctx, key).Err()
}

// SetDashboardStats caches the dashboard counters for an organization
func SetDashboardStats(ctx context.Context, organizationID uint, stats map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("dashboard:stats:%d", organizationID)
	return RedisClient.Set(ctx, key, data, time.Minute).Err()
}

// GetDashboardStats retrieves cached dashboard counters
func GetDashboardStats(ctx context.Context, organizationID uint) (map[string]interface{}, error) {
	if RedisClient == nil {
		return nil, redis.Nil
	}
	key := fmt.Sprintf("dashboard:stats:%d", organizationID)
	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var stats map[string]interface{}
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}

	return stats, nil
}

// InvalidateDashboardStats drops the cached counters after bookings or
// invoices change
func InvalidateDashboardStats(ctx context.Context, organizationID uint) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("dashboard:stats:%d", organizationID)
	return RedisClient.Del(ctx, key).Err()
}

// PublishBookingUpdate publishes a booking status change to Redis pub/sub
func PublishBookingUpdate(ctx context.Context, bookingID uint, status string, data map[string]interface{}) error {
	if RedisClient == nil {
		return nil
	}
	updateData := map[string]interface{}{
		"bookingId": bookingID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "booking:updates", jsonData).Err()
}
