// Package postgres реализует хранилище пользователей на PostgreSQL
// через database/sql и драйвер pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/toolbox/internal/models"
	"github.com/magabrotheeeer/toolbox/internal/storage"
)

const uniqueViolation = "23505"

const userColumns = `uid, email, password_hash, created_at, updated_at, trial_ends_at,
		subscription_status, billing_customer_id, billing_subscription_id`

// Storage инкапсулирует соединение с PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New открывает пул соединений и проверяет доступность базы.
func New(ctx context.Context, connectionString string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("pgx", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{DB: db}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CreateUser сохраняет нового пользователя. Занятый email даёт storage.ErrUserExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.postgres.CreateUser"

	query := `INSERT INTO users (email, password_hash, trial_ends_at, subscription_status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query,
		models.NormalizeEmail(user.Email), user.PasswordHash, user.TrialEndsAt.UTC(), string(user.SubscriptionStatus))

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.GetUserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// GetUserByCustomerID возвращает пользователя по идентификатору клиента в биллинге.
func (s *Storage) GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	const op = "storage.postgres.GetUserByCustomerID"

	query := `SELECT ` + userColumns + ` FROM users WHERE billing_customer_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, customerID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return u, nil
}

// UpdateSubscription меняет состояние подписки пользователя с указанным email.
func (s *Storage) UpdateSubscription(ctx context.Context, email string, patch models.SubscriptionPatch) (*models.User, error) {
	const op = "storage.postgres.UpdateSubscription"

	u, err := s.updateSubscription(ctx, "email", models.NormalizeEmail(email), patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateSubscriptionByCustomerID меняет состояние подписки по идентификатору клиента в биллинге.
func (s *Storage) UpdateSubscriptionByCustomerID(ctx context.Context, customerID string, patch models.SubscriptionPatch) (*models.User, error) {
	const op = "storage.postgres.UpdateSubscriptionByCustomerID"

	u, err := s.updateSubscription(ctx, "billing_customer_id", customerID, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindTrialsEndingBetween возвращает пользователей без активной подписки,
// чей пробный период заканчивается в интервале [from, to).
func (s *Storage) FindTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	const op = "storage.postgres.FindTrialsEndingBetween"

	query := `SELECT ` + userColumns + ` FROM users
			  WHERE subscription_status = 'inactive'
			    AND trial_ends_at >= $1 AND trial_ends_at < $2
			  ORDER BY trial_ends_at`
	rows, err := s.DB.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// updateSubscription обновляет строку по колонке key. Пустые поля патча не перезаписывают значения.
func (s *Storage) updateSubscription(ctx context.Context, key, value string, patch models.SubscriptionPatch) (*models.User, error) {
	query := `UPDATE users
			  SET subscription_status     = COALESCE(NULLIF($1, ''), subscription_status),
			      billing_customer_id     = COALESCE(NULLIF($2, ''), billing_customer_id),
			      billing_subscription_id = COALESCE(NULLIF($3, ''), billing_subscription_id),
			      updated_at              = now()
			  WHERE ` + key + ` = $4
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		string(patch.Status), patch.BillingCustomerID, patch.BillingSubscriptionID, value))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u                        models.User
		customerID, subscription sql.NullString
	)
	if err := row.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
		&u.TrialEndsAt, &u.SubscriptionStatus, &customerID, &subscription); err != nil {
		return nil, err
	}
	u.BillingCustomerID = customerID.String
	u.BillingSubscriptionID = subscription.String
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	u.TrialEndsAt = u.TrialEndsAt.UTC()
	return &u, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrUserNotFound
	}
	return err
}
