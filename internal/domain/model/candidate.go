// Пакет model — доменные структуры Intake Module.
package model

import "time"

// Candidate — запись кандидата в реестре талантов.
// email и cpf уникальны на уровне схемы хранения; пред-проверки
// в сервисном слое — только UX-оптимизация.
type Candidate struct {
	// ID — суррогатный идентификатор, назначается при вставке
	ID int64
	// Name — полное имя кандидата
	Name string
	// Email — уникальный e-mail
	Email string
	// CPF — национальный идентификатор, уникальный; в очищенном
	// виде (только цифры) используется как префикс имени файла резюме
	CPF string
	// Phone — контактный телефон
	Phone string
	// DesiredRole — желаемая вакансия
	DesiredRole string
	// ResumeFilename — имя файла резюме относительно директории загрузок.
	// Директория разрешается отдельно при чтении и удалении.
	ResumeFilename string
	// CreatedAt — момент регистрации (UTC), неизменяемый
	CreatedAt time.Time
}

// CandidateResponse — явное, статически объявленное представление
// кандидата для API-ответов. Ключи совпадают с колонками таблицы;
// data_cadastro сериализуется как ISO-8601.
type CandidateResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"nome"`
	Email          string `json:"email"`
	CPF            string `json:"cpf"`
	Phone          string `json:"telefone"`
	DesiredRole    string `json:"vaga_desejada"`
	ResumeFilename string `json:"arquivo_curriculo"`
	CreatedAt      string `json:"data_cadastro"`
}

// ToResponse преобразует Candidate в API-представление.
// Никакой рефлексии над метаданными схемы — маппинг объявлен явно.
func (c *Candidate) ToResponse() CandidateResponse {
	return CandidateResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		CPF:            c.CPF,
		Phone:          c.Phone,
		DesiredRole:    c.DesiredRole,
		ResumeFilename: c.ResumeFilename,
		CreatedAt:      c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
