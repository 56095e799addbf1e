// postgres.go — PostgreSQL-движок реестра кандидатов.
// Чистый SQL через pgx, без ORM. Уникальность email и CPF обеспечивают
// UNIQUE-констрейнты таблицы candidatos; нарушение транслируется
// в ErrDuplicateEmail/ErrDuplicateCPF по имени констрейнта.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arturkryukov/talentos/intake-module/internal/domain/model"
)

// PostgresStore — PostgreSQL-реализация CandidateRepository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт репозиторий кандидатов поверх пула подключений.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create вставляет кандидата. ID и data_cadastro назначает база;
// нарушение уникальности — окончательный арбитр конфликтов,
// пред-проверки Exists* лишь улучшают сообщение об ошибке.
func (s *PostgresStore) Create(ctx context.Context, c *model.Candidate) error {
	query := `
		INSERT INTO candidatos (nome, email, cpf, telefone, vaga_desejada, arquivo_curriculo)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, data_cadastro`

	err := s.pool.QueryRow(ctx, query,
		c.Name, c.Email, c.CPF, c.Phone, c.DesiredRole, c.ResumeFilename,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("ошибка вставки кандидата: %w", err)
	}
	return nil
}

// List возвращает всех кандидатов, новые первыми.
func (s *PostgresStore) List(ctx context.Context) ([]*model.Candidate, error) {
	query := `
		SELECT id, nome, email, cpf, telefone, vaga_desejada, arquivo_curriculo, data_cadastro
		FROM candidatos
		ORDER BY data_cadastro DESC, id DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка кандидатов: %w", err)
	}
	defer rows.Close()

	var result []*model.Candidate
	for rows.Next() {
		c := &model.Candidate{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.CPF, &c.Phone,
			&c.DesiredRole, &c.ResumeFilename, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки кандидата: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обхода списка кандидатов: %w", err)
	}
	return result, nil
}

// GetByID возвращает кандидата по идентификатору.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*model.Candidate, error) {
	query := `
		SELECT id, nome, email, cpf, telefone, vaga_desejada, arquivo_curriculo, data_cadastro
		FROM candidatos
		WHERE id = $1`

	c := &model.Candidate{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.CPF, &c.Phone,
		&c.DesiredRole, &c.ResumeFilename, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения кандидата: %w", err)
	}
	return c, nil
}

// Delete удаляет запись кандидата.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM candidatos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления кандидата: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByEmail — пред-проверка уникальности email.
func (s *PostgresStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM candidatos WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки email: %w", err)
	}
	return exists, nil
}

// ExistsByCPF — пред-проверка уникальности CPF.
func (s *PostgresStore) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM candidatos WHERE cpf = $1)`, cpf,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки CPF: %w", err)
	}
	return exists, nil
}

// Ping проверяет подключение к PostgreSQL.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close закрывает пул подключений.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// duplicateError транслирует нарушение уникальности PostgreSQL
// в доменную ошибку по имени констрейнта. Не-уникальные ошибки — nil.
func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrDuplicateEmail
	case strings.Contains(pgErr.ConstraintName, "cpf"):
		return ErrDuplicateCPF
	default:
		return ErrDuplicateEmail
	}
}

// Проверка соответствия интерфейсу на этапе компиляции.
var _ CandidateRepository = (*PostgresStore)(nil)
