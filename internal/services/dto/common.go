package dto

import (
	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/repositories"
)

// Actor - кто выполняет операцию (из JWT)
type Actor struct {
	UserID string
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == models.UserRoleAdmin }

func (a Actor) IsPilot() bool { return a.Role == models.UserRolePilot }

func (a Actor) IsPropertyManager() bool { return a.Role == models.UserRolePropertyManager }

// PageQuery - ?page=&limit=
type PageQuery struct {
	Page  int `form:"page" json:"page" validate:"omitempty,min=1"`
	Limit int `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
}

func (q PageQuery) Pagination() repositories.Pagination {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = 20
	}
	return repositories.Pagination{Page: page, PageSize: limit}
}

// Pagination - блок пагинации в списках
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func NewPagination(p repositories.Pagination, total int64) Pagination {
	limit := p.Limit()
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// MessageResponse - ответ без тела ресурса
type MessageResponse struct {
	Message string `json:"message"`
}
