package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types"
)

// CacheService wraps storage with Redis read-through caching. Methods it does
// not override go straight to the embedded storage.
type CacheService struct {
	storage.Storage
	redis  *redis.Client
	logger *zap.Logger
}

var _ storage.Storage = (*CacheService)(nil)

func NewCacheService(store storage.Storage, redisClient *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		Storage: store,
		redis:   redisClient,
		logger:  logger,
	}
}

// Cache key patterns
const (
	StoriesKey = "stories:account:%s" // stories:account:accountID
	AlbumsKey  = "albums:account:%s"  // albums:account:accountID
	MemberKey  = "member:%s:%s"       // member:accountID:userID
)

// Cache durations
const (
	StoriesCacheDuration = 45 * time.Second
	AlbumsCacheDuration  = 2 * time.Minute
	MemberCacheDuration  = 5 * time.Minute
)

// readThrough returns the value cached at key, or calls load on a miss. Redis errors only
// cost a cache miss.
func readThrough[T any](ctx context.Context, c *CacheService, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var v T
		if err := json.Unmarshal([]byte(cached), &v); err == nil {
			return v, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err == nil {
		if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}

func (c *CacheService) invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// ListStories returns the cached stories feed of an account.
func (c *CacheService) ListStories(ctx context.Context, accountID string) ([]types.Story, error) {
	return readThrough(ctx, c, fmt.Sprintf(StoriesKey, accountID), StoriesCacheDuration, func() ([]types.Story, error) {
		return c.Storage.ListStories(ctx, accountID)
	})
}

func (c *CacheService) ListActiveAlbums(ctx context.Context, accountID string) ([]types.Album, error) {
	return readThrough(ctx, c, fmt.Sprintf(AlbumsKey, accountID), AlbumsCacheDuration, func() ([]types.Album, error) {
		return c.Storage.ListActiveAlbums(ctx, accountID)
	})
}

// GetMember caches role and permission flags; they are read on every request.
func (c *CacheService) GetMember(ctx context.Context, accountID, userID string) (types.Member, error) {
	return readThrough(ctx, c, fmt.Sprintf(MemberKey, accountID, userID), MemberCacheDuration, func() (types.Member, error) {
		return c.Storage.GetMember(ctx, accountID, userID)
	})
}

func (c *CacheService) CreateStory(ctx context.Context, story types.Story) (string, error) {
	id, err := c.Storage.CreateStory(ctx, story)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, fmt.Sprintf(StoriesKey, story.AccountID))
	return id, nil
}

func (c *CacheService) CreateAlbum(ctx context.Context, accountID, title, createdBy string) (string, error) {
	id, err := c.Storage.CreateAlbum(ctx, accountID, title, createdBy)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, fmt.Sprintf(AlbumsKey, accountID))
	return id, nil
}

// CreatePhoto changes the album's photos_count, so the album list goes too.
func (c *CacheService) CreatePhoto(ctx context.Context, photo types.Photo) (string, error) {
	id, err := c.Storage.CreatePhoto(ctx, photo)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, fmt.Sprintf(AlbumsKey, photo.AccountID))
	return id, nil
}

func (c *CacheService) RenameAlbum(ctx context.Context, albumID, title string) error {
	album, err := c.Storage.GetAlbum(ctx, albumID)
	if err != nil {
		return err
	}
	if err := c.Storage.RenameAlbum(ctx, albumID, title); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf(AlbumsKey, album.AccountID))
	return nil
}

func (c *CacheService) AddMember(ctx context.Context, accountID, userID string, role types.Role, perms types.Permissions) error {
	if err := c.Storage.AddMember(ctx, accountID, userID, role, perms); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf(MemberKey, accountID, userID))
	return nil
}

func (c *CacheService) UpdateMember(ctx context.Context, accountID, userID string, role types.Role, perms types.Permissions) error {
	if err := c.Storage.UpdateMember(ctx, accountID, userID, role, perms); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf(MemberKey, accountID, userID))
	return nil
}

// SoftDelete looks up the owning account first so the right lists can be
// dropped after the row is marked deleted.
func (c *CacheService) SoftDelete(ctx context.Context, table, rowID string) (bool, error) {
	var keys []string
	switch table {
	case storage.TableStories:
		if s, err := c.Storage.GetStory(ctx, rowID); err == nil {
			keys = append(keys, fmt.Sprintf(StoriesKey, s.AccountID))
		}
	case storage.TablePhotos:
		if p, err := c.Storage.GetPhoto(ctx, rowID); err == nil {
			keys = append(keys, fmt.Sprintf(AlbumsKey, p.AccountID))
		}
	case storage.TableAlbums:
		if a, err := c.Storage.GetAlbum(ctx, rowID); err == nil {
			keys = append(keys, fmt.Sprintf(AlbumsKey, a.AccountID))
		}
	}

	deleted, err := c.Storage.SoftDelete(ctx, table, rowID)
	if err != nil {
		return false, err
	}
	if deleted {
		c.invalidate(ctx, keys...)
	}
	return deleted, nil
}
