package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/logger"
)

const (
	defaultBase   = 10
	maxKeyLength  = 250
	genKeyPrefix  = "gen:"
	itemKeyPrefix = "ov:"
)

type config interface {
	Hosts() []string
	Expiration() int32
}

// client is the subset of *memcache.Client the cache uses.
type client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Add(item *memcache.Item) error
	Increment(key string, delta uint64) (uint64, error)
}

// MemcacheClient keeps overview read results per user. Every entry key embeds the
// user's generation counter, so bumping the counter makes all older entries
// unreachable without enumerating them.
type MemcacheClient struct {
	client     client
	expiration int32
}

func NewMemcache(config config) (*MemcacheClient, error) {
	logger.Info("memcached hosts", zap.Strings("hosts", config.Hosts()))
	mc := memcache.New(config.Hosts()...)
	return &MemcacheClient{client: mc, expiration: config.Expiration()}, mc.Ping()
}

func newMemcacheClient(c client, expiration int32) *MemcacheClient {
	return &MemcacheClient{client: c, expiration: expiration}
}

func sanitize(userID string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, userID)
}

func genKey(userID string) string {
	return genKeyPrefix + sanitize(userID)
}

func itemKey(userID string, gen uint64, option string) string {
	return itemKeyPrefix + sanitize(userID) + ":" + strconv.FormatUint(gen, defaultBase) + ":" + option
}

func (mc *MemcacheClient) generation(userID string) (uint64, error) {
	item, err := mc.client.Get(genKey(userID))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(item.Value)), defaultBase, 64)
}

// Get decodes a cached value into dst. Any failure is reported as a miss. The
// returned generation is what a following Set for the same read must be given.
func (mc *MemcacheClient) Get(_ context.Context, userID, option string, dst interface{}) (uint64, bool) {
	gen, err := mc.generation(userID)
	if err != nil {
		logger.Warn("cannot read cache generation", zap.String("userID", userID), zap.Error(err))
		return 0, false
	}
	key := itemKey(userID, gen, option)
	if len(key) > maxKeyLength {
		return gen, false
	}

	item, err := mc.client.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			logger.Warn("cannot get from cache", zap.String("key", key), zap.Error(err))
		}
		return gen, false
	}
	if err = json.Unmarshal(item.Value, dst); err != nil {
		logger.Warn("cannot decode cached value", zap.String("key", key), zap.Error(err))
		return gen, false
	}
	return gen, true
}

// Set stores value under the generation observed by the Get that preceded the
// storage read. If the user was invalidated in between, the value lands on a key
// nobody reads anymore. Failures are logged only.
func (mc *MemcacheClient) Set(_ context.Context, userID, option string, gen uint64, value interface{}) {
	key := itemKey(userID, gen, option)
	if len(key) > maxKeyLength {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cannot encode value for cache", zap.String("key", key), zap.Error(err))
		return
	}
	err = mc.client.Set(&memcache.Item{Key: key, Value: raw, Expiration: mc.expiration})
	if err != nil {
		logger.Warn("cannot put to cache", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateUser drops every cached overview entry of the user.
func (mc *MemcacheClient) InvalidateUser(_ context.Context, userID string) error {
	logger.Info("invalidate cache", zap.String("userID", userID))

	key := genKey(userID)
	_, err := mc.client.Increment(key, 1)
	if !errors.Is(err, memcache.ErrCacheMiss) {
		return errors.Wrap(err, "invalidate cache")
	}

	err = mc.client.Add(&memcache.Item{Key: key, Value: []byte("1")})
	if errors.Is(err, memcache.ErrNotStored) {
		// someone created the counter concurrently
		_, err = mc.client.Increment(key, 1)
	}
	return errors.Wrap(err, "invalidate cache")
}

// TransactionsChanged lets the cache act as the ledger change notifier when no
// event bus is configured.
func (mc *MemcacheClient) TransactionsChanged(ctx context.Context, change ledger.Change) error {
	return mc.InvalidateUser(ctx, change.UserID)
}
