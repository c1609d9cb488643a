package models

import "time"

// Роли пользователей
const (
	RoleUser      = "user"
	RoleLibrarian = "librarian"
)

// User - читатель или библиотекарь
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Не отдаем хэш пароля в JSON
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	Role         string    `json:"role"` // "user" или "librarian"
	CreatedAt    time.Time `json:"created_at"`
}

// Book - книга в каталоге
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Year        int    `json:"year"`
	ISBN        string `json:"isbn"`
	Quantity    int    `json:"quantity"`  // всего экземпляров
	Available   int    `json:"available"` // экземпляров на полке
}

// Borrowing - выдача книги читателю. Активна, пока ReturnedAt не установлен.
type Borrowing struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	BookID     string     `json:"book_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Event - мероприятие в библиотеке
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	Attendees   []string  `json:"attendees"`
}

// Reservation - бронь на недоступную книгу. Без собственного id:
// отмена возможна только по паре (book_id, user_id).
type Reservation struct {
	BookID     string    `json:"book_id"`
	UserID     string    `json:"user_id"`
	ReservedAt time.Time `json:"reserved_at"`
}

// BookPatch - частичное обновление книги. Поля-указатели, чтобы отличать
// "поле не передано" от "поле явно обнулено".
type BookPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Author      *string `json:"author"`
	Year        *int    `json:"year"`
	ISBN        *string `json:"isbn"`
	Quantity    *int    `json:"quantity"`
}

// EventPatch - частичное обновление мероприятия
type EventPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Time        *string    `json:"time"`
	Location    *string    `json:"location"`
}

// BookFilter - параметры поиска по каталогу. Условия комбинируются через И.
type BookFilter struct {
	Title     string // подстрока, без учета регистра
	Author    string // подстрока, без учета регистра
	Year      *int   // точное совпадение
	Available *bool  // true: available > 0
}
