package store

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"biblio/internal/models"
)

// BorrowPeriod - срок выдачи книги
const BorrowPeriod = 14 * 24 * time.Hour

// Memory - хранилище в памяти процесса. Все обращения сериализуются одним
// мьютексом, поэтому последовательности "проверить и изменить" (выдача,
// бронь) атомарны. Коллекции - обычные срезы: объемы маленькие, линейный
// поиск дешевле любых индексов.
type Memory struct {
	mu           sync.Mutex
	users        []models.User
	books        []models.Book
	borrowings   []models.Borrowing
	events       []models.Event
	reservations []models.Reservation
}

// NewMemory создает пустое хранилище в памяти
func NewMemory() *Memory {
	return &Memory{}
}

// ------------------ Пользователи ------------------

func (m *Memory) CreateUser(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if m.users[i].Username == u.Username {
			return ErrUsernameTaken
		}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users = append(m.users, *u)
	return nil
}

func (m *Memory) GetUser(id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUserByUsername(username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.users {
		if m.users[i].Username == username {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListUsers(role string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]models.User, 0, len(m.users))
	for i := range m.users {
		if role == "" || m.users[i].Role == role {
			users = append(users, m.users[i])
		}
	}
	return users, nil
}

// ------------------ Книги ------------------

func (m *Memory) CreateBook(b *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	m.books = append(m.books, *b)
	return nil
}

func (m *Memory) GetBook(id string) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.findBook(id)
	if b == nil {
		return nil, ErrNotFound
	}
	out := *b
	return &out, nil
}

func (m *Memory) ListBooks(f models.BookFilter) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	books := make([]models.Book, 0, len(m.books))
	for i := range m.books {
		if matchBook(&m.books[i], f) {
			books = append(books, m.books[i])
		}
	}
	return books, nil
}

func matchBook(b *models.Book, f models.BookFilter) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.Author != "" && !strings.Contains(strings.ToLower(b.Author), strings.ToLower(f.Author)) {
		return false
	}
	if f.Year != nil && b.Year != *f.Year {
		return false
	}
	if f.Available != nil && (b.Available > 0) != *f.Available {
		return false
	}
	return true
}

func (m *Memory) UpdateBook(id string, patch models.BookPatch) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.findBook(id)
	if b == nil {
		return nil, ErrNotFound
	}

	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	if patch.Author != nil {
		b.Author = *patch.Author
	}
	if patch.Year != nil {
		b.Year = *patch.Year
	}
	if patch.ISBN != nil {
		b.ISBN = *patch.ISBN
	}
	if patch.Quantity != nil {
		// Available при этом не пересчитывается, учет ведет только выдача/возврат
		b.Quantity = *patch.Quantity
	}

	out := *b
	return &out, nil
}

// DeleteBook удаляет книгу из каталога. Идемпотентна: отсутствие книги не
// считается ошибкой. Выдачи и брони на удаленную книгу остаются как есть.
func (m *Memory) DeleteBook(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.books {
		if m.books[i].ID == id {
			m.books = append(m.books[:i], m.books[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) findBook(id string) *models.Book {
	for i := range m.books {
		if m.books[i].ID == id {
			return &m.books[i]
		}
	}
	return nil
}

// ------------------ Выдачи ------------------

// Borrow выдает экземпляр книги: проверка наличия и списание экземпляра
// происходят под одним мьютексом, два читателя не заберут последний экземпляр.
func (m *Memory) Borrow(bookID, userID string) (*models.Borrowing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.findBook(bookID)
	if b == nil || b.Available <= 0 {
		return nil, ErrBookNotAvailable
	}
	b.Available--

	now := time.Now().UTC()
	borrowing := models.Borrowing{
		ID:         uuid.NewString(),
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: now,
		DueDate:    now.Add(BorrowPeriod),
	}
	m.borrowings = append(m.borrowings, borrowing)

	out := borrowing
	return &out, nil
}

// Return закрывает активную выдачу читателя по книге. Экземпляр возвращается
// на полку, только если книга еще существует в каталоге.
func (m *Memory) Return(bookID, userID string) (*models.Borrowing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.borrowings {
		br := &m.borrowings[i]
		if br.BookID != bookID || br.UserID != userID || br.ReturnedAt != nil {
			continue
		}

		now := time.Now().UTC()
		br.ReturnedAt = &now
		if b := m.findBook(bookID); b != nil {
			b.Available++
		}

		out := *br
		return &out, nil
	}
	return nil, ErrNoActiveBorrowing
}

func (m *Memory) ListBorrowings(userID string) ([]models.Borrowing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	borrowings := make([]models.Borrowing, 0)
	for i := range m.borrowings {
		if m.borrowings[i].UserID == userID {
			borrowings = append(borrowings, m.borrowings[i])
		}
	}
	return borrowings, nil
}

// ------------------ Мероприятия ------------------

func (m *Memory) CreateEvent(e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *Memory) GetEvent(id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.findEvent(id)
	if e == nil {
		return nil, ErrNotFound
	}
	out := copyEvent(e)
	return &out, nil
}

func (m *Memory) ListEvents() ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]models.Event, 0, len(m.events))
	for i := range m.events {
		events = append(events, copyEvent(&m.events[i]))
	}
	return events, nil
}

func (m *Memory) UpdateEvent(id string, patch models.EventPatch) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.findEvent(id)
	if e == nil {
		return nil, ErrNotFound
	}

	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.Time != nil {
		e.Time = *patch.Time
	}
	if patch.Location != nil {
		e.Location = *patch.Location
	}

	out := copyEvent(e)
	return &out, nil
}

func (m *Memory) DeleteEvent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.events {
		if m.events[i].ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) AddAttendee(eventID, userID string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.findEvent(eventID)
	if e == nil {
		return nil, ErrNotFound
	}
	for _, id := range e.Attendees {
		if id == userID {
			return nil, ErrAlreadyRegistered
		}
	}
	e.Attendees = append(e.Attendees, userID)

	out := copyEvent(e)
	return &out, nil
}

func (m *Memory) RemoveAttendee(eventID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.findEvent(eventID)
	if e == nil {
		return ErrNotFound
	}
	for i, id := range e.Attendees {
		if id == userID {
			e.Attendees = append(e.Attendees[:i], e.Attendees[i+1:]...)
			return nil
		}
	}
	return ErrNotRegistered
}

func (m *Memory) findEvent(id string) *models.Event {
	for i := range m.events {
		if m.events[i].ID == id {
			return &m.events[i]
		}
	}
	return nil
}

// copyEvent копирует мероприятие вместе со списком участников, чтобы
// вызывающий код не держал ссылку на срез под мьютексом
func copyEvent(e *models.Event) models.Event {
	out := *e
	out.Attendees = append([]string{}, e.Attendees...)
	return out
}

// ------------------ Брони ------------------

// Reserve оформляет бронь. Бронировать можно только книгу, которая есть в
// каталоге и у которой нет свободных экземпляров.
func (m *Memory) Reserve(bookID, userID string) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.findBook(bookID)
	if b == nil || b.Available > 0 {
		return nil, ErrBookStillAvailable
	}
	for i := range m.reservations {
		if m.reservations[i].BookID == bookID && m.reservations[i].UserID == userID {
			return nil, ErrAlreadyReserved
		}
	}

	r := models.Reservation{
		BookID:     bookID,
		UserID:     userID,
		ReservedAt: time.Now().UTC(),
	}
	m.reservations = append(m.reservations, r)

	out := r
	return &out, nil
}

// CancelReservations снимает все брони пары (книга, читатель). Идемпотентна.
func (m *Memory) CancelReservations(bookID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.reservations[:0]
	for _, r := range m.reservations {
		if r.BookID == bookID && r.UserID == userID {
			continue
		}
		kept = append(kept, r)
	}
	m.reservations = kept
	return nil
}
