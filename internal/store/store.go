package store

import (
	"errors"

	"biblio/internal/models"
)

// Ошибки хранилища. Обработчики сопоставляют их со статусами через errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrBookNotAvailable   = errors.New("book not available")
	ErrNoActiveBorrowing  = errors.New("no active borrowing found for this book")
	ErrBookStillAvailable = errors.New("book is currently available or does not exist")
	ErrAlreadyReserved    = errors.New("already reserved")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrNotRegistered      = errors.New("not registered for this event")
)

// Store - репозиторий над всеми коллекциями библиотеки. Переходы состояния
// (выдача, возврат, бронь, запись на мероприятие) выполняются атомарно внутри
// реализации, чтобы проверка и изменение не разъезжались под нагрузкой.
type Store interface {
	// Пользователи
	CreateUser(u *models.User) error
	GetUser(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	ListUsers(role string) ([]models.User, error)

	// Книги
	CreateBook(b *models.Book) error
	GetBook(id string) (*models.Book, error)
	ListBooks(f models.BookFilter) ([]models.Book, error)
	UpdateBook(id string, patch models.BookPatch) (*models.Book, error)
	DeleteBook(id string) error

	// Выдачи
	Borrow(bookID, userID string) (*models.Borrowing, error)
	Return(bookID, userID string) (*models.Borrowing, error)
	ListBorrowings(userID string) ([]models.Borrowing, error)

	// Мероприятия
	CreateEvent(e *models.Event) error
	GetEvent(id string) (*models.Event, error)
	ListEvents() ([]models.Event, error)
	UpdateEvent(id string, patch models.EventPatch) (*models.Event, error)
	DeleteEvent(id string) error
	AddAttendee(eventID, userID string) (*models.Event, error)
	RemoveAttendee(eventID, userID string) error

	// Брони
	Reserve(bookID, userID string) (*models.Reservation, error)
	CancelReservations(bookID, userID string) error
}
