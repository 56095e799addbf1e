// local.go — локальное файловое хранилище кандидатов.
// Используется при пустом IM_DATABASE_URL вместо PostgreSQL:
// потокобезопасный in-memory реестр, персистируемый в JSON-файл
// по паттерну temp → fsync → atomic rename.
//
// Уникальность email и CPF обеспечивается под write-lock,
// поэтому гонка двух одновременных Create исключена.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/arturkryukov/talentos/intake-module/internal/domain/model"
)

// LocalStore — файловый движок реестра кандидатов.
type LocalStore struct {
	mu         sync.RWMutex
	path       string
	nextID     int64
	candidates map[int64]*model.Candidate
	logger     *slog.Logger
}

// localState — сериализуемое состояние хранилища.
type localState struct {
	NextID     int64             `json:"next_id"`
	Candidates []*localCandidate `json:"candidates"`
}

// localCandidate — формат записи кандидата в файле хранилища.
type localCandidate struct {
	ID             int64     `json:"id"`
	Name           string    `json:"nome"`
	Email          string    `json:"email"`
	CPF            string    `json:"cpf"`
	Phone          string    `json:"telefone"`
	DesiredRole    string    `json:"vaga_desejada"`
	ResumeFilename string    `json:"arquivo_curriculo"`
	CreatedAt      time.Time `json:"data_cadastro"`
}

// NewLocalStore открывает локальное хранилище по указанному пути.
// Отсутствующий файл означает пустое хранилище; существующий
// загружается целиком в память.
func NewLocalStore(path string, logger *slog.Logger) (*LocalStore, error) {
	s := &LocalStore{
		path:       path,
		nextID:     1,
		candidates: make(map[int64]*model.Candidate),
		logger:     logger.With(slog.String("component", "local_store")),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	s.logger.Info("Локальное хранилище открыто",
		slog.String("path", path),
		slog.Int("candidates", len(s.candidates)),
	)
	return s, nil
}

// load читает состояние из файла хранилища, если он существует.
func (s *LocalStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("ошибка чтения файла хранилища %s: %w", s.path, err)
	}

	var state localState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("ошибка разбора файла хранилища %s: %w", s.path, err)
	}

	s.nextID = state.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}
	for _, lc := range state.Candidates {
		s.candidates[lc.ID] = &model.Candidate{
			ID:             lc.ID,
			Name:           lc.Name,
			Email:          lc.Email,
			CPF:            lc.CPF,
			Phone:          lc.Phone,
			DesiredRole:    lc.DesiredRole,
			ResumeFilename: lc.ResumeFilename,
			CreatedAt:      lc.CreatedAt,
		}
	}
	return nil
}

// persist записывает текущее состояние на диск атомарно:
// temp файл → fsync → rename. Вызывается под write-lock.
func (s *LocalStore) persist() error {
	state := localState{
		NextID:     s.nextID,
		Candidates: make([]*localCandidate, 0, len(s.candidates)),
	}
	for _, c := range s.candidates {
		state.Candidates = append(state.Candidates, &localCandidate{
			ID:             c.ID,
			Name:           c.Name,
			Email:          c.Email,
			CPF:            c.CPF,
			Phone:          c.Phone,
			DesiredRole:    c.DesiredRole,
			ResumeFilename: c.ResumeFilename,
			CreatedAt:      c.CreatedAt,
		})
	}
	sort.Slice(state.Candidates, func(i, j int) bool {
		return state.Candidates[i].ID < state.Candidates[j].ID
	})

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации состояния: %w", err)
	}

	tmpPath := s.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи состояния: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}
	return nil
}

// Create вставляет кандидата. Уникальность email и CPF проверяется
// под write-lock — это и есть механизм корректности для локального движка.
func (s *LocalStore) Create(_ context.Context, c *model.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.candidates {
		if existing.Email == c.Email {
			return ErrDuplicateEmail
		}
		if existing.CPF == c.CPF {
			return ErrDuplicateCPF
		}
	}

	c.ID = s.nextID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	s.nextID++
	copied := *c
	s.candidates[c.ID] = &copied

	if err := s.persist(); err != nil {
		// Откат изменений в памяти, чтобы состояние соответствовало диску
		delete(s.candidates, c.ID)
		s.nextID--
		return err
	}
	return nil
}

// List возвращает всех кандидатов, новые первыми.
func (s *LocalStore) List(_ context.Context) ([]*model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		copied := *c
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// GetByID возвращает кандидата по идентификатору.
func (s *LocalStore) GetByID(_ context.Context, id int64) (*model.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// Delete удаляет запись кандидата и персистирует состояние.
func (s *LocalStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.candidates, id)

	if err := s.persist(); err != nil {
		s.candidates[id] = c
		return err
	}
	return nil
}

// ExistsByEmail — пред-проверка уникальности email.
func (s *LocalStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.candidates {
		if c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// ExistsByCPF — пред-проверка уникальности CPF.
func (s *LocalStore) ExistsByCPF(_ context.Context, cpf string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.candidates {
		if c.CPF == cpf {
			return true, nil
		}
	}
	return false, nil
}

// Ping проверяет доступность директории файла хранилища на запись.
func (s *LocalStore) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	testFile := filepath.Join(dir, ".intake_health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("директория хранилища недоступна для записи: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

// Close — для локального хранилища освобождать нечего.
func (s *LocalStore) Close() {}

// Проверка соответствия интерфейсу на этапе компиляции.
var _ CandidateRepository = (*LocalStore)(nil)
