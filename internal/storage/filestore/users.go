// Package filestore хранит пользователей в одном JSON-файле.
//
// Предназначен для локальной разработки без PostgreSQL. Весь документ
// читается и перезаписывается целиком на каждую операцию; запись идёт
// через временный файл и rename, чтобы не оставить обрезанный JSON.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/models"
	"github.com/magabrotheeeer/toolbox/internal/storage"
)

type document struct {
	Users []models.User `json:"users"`
}

// Storage — файловое хранилище пользователей.
type Storage struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// New создаёт хранилище и файл с пустым списком, если его ещё нет.
func New(path string) (*Storage, error) {
	const op = "storage.filestore.New"

	s := &Storage{path: path, now: time.Now}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.write(&document{Users: []models.User{}}); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// CreateUser добавляет пользователя. Занятый email даёт storage.ErrUserExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.filestore.CreateUser"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.Email = models.NormalizeEmail(user.Email)
	if doc.find(func(u *models.User) bool { return u.Email == user.Email }) >= 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}

	now := s.now().UTC()
	user.UID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.TrialEndsAt = user.TrialEndsAt.UTC()
	doc.Users = append(doc.Users, user)

	if err := s.write(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.filestore.GetUserByEmail"
	email = models.NormalizeEmail(email)
	u, err := s.get(ctx, func(u *models.User) bool { return u.Email == email })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByCustomerID возвращает пользователя по идентификатору клиента в биллинге.
func (s *Storage) GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	const op = "storage.filestore.GetUserByCustomerID"
	u, err := s.get(ctx, func(u *models.User) bool {
		return customerID != "" && u.BillingCustomerID == customerID
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateSubscription меняет состояние подписки пользователя с указанным email.
func (s *Storage) UpdateSubscription(ctx context.Context, email string, patch models.SubscriptionPatch) (*models.User, error) {
	const op = "storage.filestore.UpdateSubscription"
	email = models.NormalizeEmail(email)
	u, err := s.update(ctx, patch, func(u *models.User) bool { return u.Email == email })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateSubscriptionByCustomerID меняет состояние подписки по идентификатору клиента в биллинге.
func (s *Storage) UpdateSubscriptionByCustomerID(ctx context.Context, customerID string, patch models.SubscriptionPatch) (*models.User, error) {
	const op = "storage.filestore.UpdateSubscriptionByCustomerID"
	u, err := s.update(ctx, patch, func(u *models.User) bool {
		return customerID != "" && u.BillingCustomerID == customerID
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindTrialsEndingBetween возвращает пользователей без активной подписки,
// чей пробный период заканчивается в интервале [from, to), по возрастанию даты.
func (s *Storage) FindTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	const op = "storage.filestore.FindTrialsEndingBetween"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var users []*models.User
	for i := range doc.Users {
		u := doc.Users[i]
		if u.SubscriptionStatus == access.SubscriptionActive {
			continue
		}
		if u.TrialEndsAt.Before(from) || !u.TrialEndsAt.Before(to) {
			continue
		}
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].TrialEndsAt.Before(users[j].TrialEndsAt) })
	return users, nil
}

func (s *Storage) get(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	i := doc.find(match)
	if i < 0 {
		return nil, storage.ErrUserNotFound
	}
	u := doc.Users[i]
	return &u, nil
}

func (s *Storage) update(ctx context.Context, patch models.SubscriptionPatch, match func(*models.User) bool) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	i := doc.find(match)
	if i < 0 {
		return nil, storage.ErrUserNotFound
	}
	patch.Apply(&doc.Users[i], s.now().UTC())
	if err := s.write(doc); err != nil {
		return nil, err
	}
	u := doc.Users[i]
	return &u, nil
}

func (d *document) find(match func(*models.User) bool) int {
	for i := range d.Users {
		if match(&d.Users[i]) {
			return i
		}
	}
	return -1
}

func (s *Storage) read() (*document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Storage) write(doc *document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".users-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
