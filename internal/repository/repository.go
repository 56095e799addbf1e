// Пакет repository — слой доступа к данным реестра кандидатов.
// Два взаимозаменяемых движка: PostgreSQL (pgx, чистый SQL без ORM)
// и локальное файловое хранилище для работы без базы данных.
package repository

import (
	"context"
	"errors"

	"github.com/arturkryukov/talentos/intake-module/internal/domain/model"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("кандидат не найден")
	// ErrDuplicateEmail — кандидат с таким email уже зарегистрирован.
	ErrDuplicateEmail = errors.New("email уже зарегистрирован")
	// ErrDuplicateCPF — кандидат с таким CPF уже зарегистрирован.
	ErrDuplicateCPF = errors.New("CPF уже зарегистрирован")
)

// CandidateRepository — интерфейс CRUD для реестра кандидатов.
//
// Create обязан сам обеспечивать уникальность email и CPF:
// пред-проверки ExistsBy* — UX-оптимизация, а не механизм корректности.
// При гонке двух одновременных вставок ровно одна завершается успехом,
// вторая получает ErrDuplicateEmail или ErrDuplicateCPF.
type CandidateRepository interface {
	// Create вставляет нового кандидата; назначает ID и CreatedAt.
	Create(ctx context.Context, c *model.Candidate) error
	// List возвращает всех кандидатов, новые первыми (created_at DESC).
	List(ctx context.Context) ([]*model.Candidate, error)
	// GetByID возвращает кандидата по идентификатору.
	GetByID(ctx context.Context, id int64) (*model.Candidate, error)
	// Delete удаляет запись кандидата. ErrNotFound если записи нет.
	Delete(ctx context.Context, id int64) error
	// ExistsByEmail — пред-проверка уникальности email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// ExistsByCPF — пред-проверка уникальности CPF.
	ExistsByCPF(ctx context.Context, cpf string) (bool, error)
	// Ping проверяет доступность хранилища (для readiness probe).
	Ping(ctx context.Context) error
	// Close освобождает ресурсы хранилища.
	Close()
}
