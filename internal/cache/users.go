package cache

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
	"github.com/magabrotheeeer/toolbox/internal/models"
)

// UserRepository — хранилище пользователей, которое оборачивает Users.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error)
	UpdateSubscription(ctx context.Context, email string, patch models.SubscriptionPatch) (*models.User, error)
	UpdateSubscriptionByCustomerID(ctx context.Context, customerID string, patch models.SubscriptionPatch) (*models.User, error)
}

// generationStripes — число замков, по которым разложены ключи кэша.
const generationStripes = 64

// generation считает сбросы ключей одного замка.
type generation struct {
	mu  sync.Mutex
	gen uint64
}

// Users кэширует поиск пользователя по email и сбрасывает запись при изменении подписки.
// Ошибки Redis не ломают запрос: они логируются, и чтение идёт в хранилище.
//
// Чтение, во время которого запись была сброшена, не кладёт результат в кэш.
// Это действует в пределах процесса; между несколькими экземплярами устаревшая
// запись живёт не дольше ttl.
type Users struct {
	next  UserRepository
	cache *Cache
	ttl   time.Duration
	log   *slog.Logger
	gens  [generationStripes]generation
}

// NewUsers оборачивает repo кэшем c.
func NewUsers(log *slog.Logger, repo UserRepository, c *Cache, ttl time.Duration) *Users {
	return &Users{next: repo, cache: c, ttl: ttl, log: log}
}

func userKey(email string) string {
	return "user:" + models.NormalizeEmail(email)
}

func (u *Users) stripe(key string) *generation {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &u.gens[h.Sum32()%generationStripes]
}

func (u *Users) generationOf(key string) uint64 {
	g := u.stripe(key)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// CreateUser создаёт пользователя в хранилище.
func (u *Users) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	gen := u.generationOf(userKey(user.Email))
	created, err := u.next.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	u.store(ctx, created, gen)
	return created, nil
}

// GetUserByEmail сначала смотрит в кэш.
func (u *Users) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "cache.Users.GetUserByEmail"

	key := userKey(email)
	gen := u.generationOf(key)

	var cached models.User
	found, err := u.cache.Get(ctx, key, &cached)
	if err != nil {
		u.log.Warn("user cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := u.next.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	u.store(ctx, user, gen)
	return user, nil
}

// GetUserByCustomerID не кэшируется: вызывается только из вебхука биллинга.
func (u *Users) GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	return u.next.GetUserByCustomerID(ctx, customerID)
}

// UpdateSubscription обновляет хранилище и сбрасывает запись кэша.
func (u *Users) UpdateSubscription(ctx context.Context, email string, patch models.SubscriptionPatch) (*models.User, error) {
	user, err := u.next.UpdateSubscription(ctx, email, patch)
	u.invalidate(ctx, email)
	return user, err
}

// UpdateSubscriptionByCustomerID обновляет хранилище и сбрасывает запись кэша.
func (u *Users) UpdateSubscriptionByCustomerID(ctx context.Context, customerID string, patch models.SubscriptionPatch) (*models.User, error) {
	user, err := u.next.UpdateSubscriptionByCustomerID(ctx, customerID, patch)
	if err != nil {
		return nil, err
	}
	u.invalidate(ctx, user.Email)
	return user, nil
}

// store пишет user в кэш, если с момента gen ключ не сбрасывали.
func (u *Users) store(ctx context.Context, user *models.User, gen uint64) {
	key := userKey(user.Email)
	g := u.stripe(key)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		u.log.Debug("skip user cache write after invalidation", slog.String("op", "cache.Users.store"))
		return
	}
	if err := u.cache.Set(ctx, key, user, u.ttl); err != nil {
		u.log.Warn("user cache write failed", slog.String("op", "cache.Users.store"), sl.Err(err))
	}
}

func (u *Users) invalidate(ctx context.Context, email string) {
	key := userKey(email)
	g := u.stripe(key)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	if err := u.cache.Invalidate(ctx, key); err != nil {
		u.log.Warn("user cache invalidate failed", slog.String("op", "cache.Users.invalidate"), sl.Err(err))
	}
}
