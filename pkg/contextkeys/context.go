package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

const (
	// DBContextKey - ключ, по которому хранится *gorm.DB в gin.Context
	DBContextKey = contextKey("db")

	// UserIDKey и RoleKey кладет AuthMiddleware после проверки токена
	UserIDKey = "userID"
	RoleKey   = "role"
	EmailKey  = "email"
)
