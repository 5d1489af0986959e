package models

// User — владелец датчиков. Поле ID назначается хранилищем при создании.
type User struct {
	ID        int64  `json:"id"`
	Firstname string `json:"firstname" validate:"omitempty,min=3,max=60"`
	Lastname  string `json:"lastname" validate:"omitempty,min=3,max=50"`
	Email     string `json:"email" validate:"omitempty,email"`
	Address   string `json:"address"`
	ImageURL  string `json:"imageUrl"`
}

// Device — сенсорное устройство. MAC-адрес уникален на уровне хранилища.
type Device struct {
	ID           int64  `json:"id"`
	Model        string `json:"model" validate:"omitempty,min=3,max=60"`
	Serialnumber string `json:"serialnumber"`
	Mac          string `json:"mac" validate:"omitempty,min=12,max=17"`
	IP           string `json:"ip" validate:"omitempty,min=7,max=39"`
	ImageURL     string `json:"imageUrl"`
}

// DbUser — учётная запись для входа. Пароль хранится открытым текстом,
// проверка при входе выполняется одним запросом к БД.
type DbUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username" validate:"omitempty,min=3,max=32"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// Violation — нарушение правила валидации: имя поля и код
// ("empty", "size", "duplicate").
type Violation struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}
