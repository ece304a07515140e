package rdx

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"tailcart/models"

	"github.com/redis/go-redis/v9"
)

// Conn is the shared redis client; nil when redis is not configured. The
// product cache then degrades to a miss and the checkout replay guard
// falls back to a process-local map.
var Conn *redis.Client

const productsKey = "catalog:products"

var (
	localIdemMu sync.Mutex
	localIdem   = make(map[string]time.Time)
)

func idemKey(owner, key string) string {
	return "checkout:idem:" + owner + ":" + key
}

// Init connects using REDIS_URL (redis://host:port/db) or REDIS_ADDR.
// Redis is optional; callers treat a failed init as cache-off.
func Init() error {
	var opts *redis.Options
	if u := os.Getenv("REDIS_URL"); u != "" {
		parsed, err := redis.ParseURL(u)
		if err != nil {
			return err
		}
		opts = parsed
	} else {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}
	Conn = client
	return nil
}

// CacheProducts stores the product list with a TTL so a burst of session
// engines does not hammer the upstream catalog endpoint.
func CacheProducts(ctx context.Context, products []models.Product, ttl time.Duration) {
	if Conn == nil {
		return
	}
	data, err := json.Marshal(products)
	if err != nil {
		log.Println("rdx: marshal products error:", err)
		return
	}
	if err := Conn.Set(ctx, productsKey, data, ttl).Err(); err != nil {
		log.Println("rdx: cache products error:", err)
	}
}

// CachedProducts returns the cached product list, if any.
func CachedProducts(ctx context.Context) ([]models.Product, bool) {
	if Conn == nil {
		return nil, false
	}
	data, err := Conn.Get(ctx, productsKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Println("rdx: read products cache error:", err)
		}
		return nil, false
	}
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		log.Println("rdx: unmarshal products cache error:", err)
		return nil, false
	}
	return products, true
}

// InvalidateProducts drops the cached product list.
func InvalidateProducts(ctx context.Context) {
	if Conn == nil {
		return
	}
	Conn.Del(ctx, productsKey)
}

// MarkCheckoutAttempt records a checkout idempotency key. It reports
// false when the key was already used, meaning the submit is a replay.
func MarkCheckoutAttempt(ctx context.Context, owner, key string, ttl time.Duration) (bool, error) {
	k := idemKey(owner, key)
	if Conn == nil {
		localIdemMu.Lock()
		defer localIdemMu.Unlock()
		if exp, ok := localIdem[k]; ok && time.Now().Before(exp) {
			return false, nil
		}
		localIdem[k] = time.Now().Add(ttl)
		return true, nil
	}
	return Conn.SetNX(ctx, k, 1, ttl).Result()
}

// ClearCheckoutAttempt releases a key whose checkout never left the
// process, so the corrected retry may reuse it.
func ClearCheckoutAttempt(ctx context.Context, owner, key string) {
	k := idemKey(owner, key)
	if Conn == nil {
		localIdemMu.Lock()
		delete(localIdem, k)
		localIdemMu.Unlock()
		return
	}
	if err := Conn.Del(ctx, k).Err(); err != nil {
		log.Println("rdx: clear checkout key error:", err)
	}
}
