package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/arturkryukov/talentos/intake-module/internal/database"
)

// setupTestDB запускает PostgreSQL контейнер и применяет схему.
// Возвращает pgxpool.Pool, очистка через t.Cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("talentos_test"),
		postgres.WithUsername("talentos"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	connURL, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Не удалось получить строку подключения: %v", err)
	}

	pool, err := database.Connect(ctx, connURL, testLogger())
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := database.ApplySchema(ctx, pool, testLogger()); err != nil {
		t.Fatalf("Ошибка применения схемы: %v", err)
	}

	return pool
}

func TestPostgresStore_CRUD(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgresStore(pool)

	c := testCandidate(1)

	// Create
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if c.ID == 0 {
		t.Error("ID не установлен после вставки")
	}
	if c.CreatedAt.IsZero() {
		t.Error("CreatedAt не установлен после вставки")
	}

	// GetByID
	got, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID() ошибка: %v", err)
	}
	if got.Email != c.Email {
		t.Errorf("Email = %q, хотели %q", got.Email, c.Email)
	}
	if got.DesiredRole != c.DesiredRole {
		t.Errorf("DesiredRole = %q, хотели %q", got.DesiredRole, c.DesiredRole)
	}

	// Exists
	if ok, _ := repo.ExistsByEmail(ctx, c.Email); !ok {
		t.Error("ExistsByEmail: ожидалось true")
	}
	if ok, _ := repo.ExistsByCPF(ctx, c.CPF); !ok {
		t.Error("ExistsByCPF: ожидалось true")
	}

	// List
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() вернул %d записей, хотели 1", len(list))
	}

	// Delete
	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if _, err := repo.GetByID(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID после удаления: ожидалась ErrNotFound, получено %v", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete: ожидалась ErrNotFound, получено %v", err)
	}
}

func TestPostgresStore_UniqueViolations(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgresStore(pool)

	if err := repo.Create(ctx, testCandidate(1)); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Дубликат email отображается в ErrDuplicateEmail по имени констрейнта
	dupEmail := testCandidate(2)
	dupEmail.Email = "candidato1@example.com"
	if err := repo.Create(ctx, dupEmail); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("ожидалась ErrDuplicateEmail, получено %v", err)
	}

	// Дубликат CPF — в ErrDuplicateCPF
	dupCPF := testCandidate(3)
	dupCPF.CPF = fmt.Sprintf("%011d", 1)
	if err := repo.Create(ctx, dupCPF); !errors.Is(err, ErrDuplicateCPF) {
		t.Errorf("ожидалась ErrDuplicateCPF, получено %v", err)
	}
}

func TestPostgresStore_ListOrdering(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgresStore(pool)

	for i := 1; i <= 3; i++ {
		if err := repo.Create(ctx, testCandidate(i)); err != nil {
			t.Fatalf("Create() ошибка: %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() вернул %d записей, хотели 3", len(list))
	}

	// Новые первыми: при равных created_at решает id
	for i := 0; i < len(list)-1; i++ {
		if list[i].CreatedAt.Before(list[i+1].CreatedAt) {
			t.Errorf("нарушен порядок сортировки по created_at")
		}
		if list[i].CreatedAt.Equal(list[i+1].CreatedAt) && list[i].ID < list[i+1].ID {
			t.Errorf("нарушен порядок сортировки по id при равных created_at")
		}
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPostgresStore(pool)

	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping() ошибка: %v", err)
	}
}
