package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"biblio/internal/models"
)

// uniqueViolation - код ошибки PostgreSQL для нарушения уникальности
const uniqueViolation = "23505"

// Postgres - хранилище поверх PostgreSQL. Переходы состояния выполняются в
// транзакциях с условными UPDATE, поэтому проверка и изменение атомарны и
// без блокировок на стороне приложения.
type Postgres struct {
	db *sql.DB
}

// NewPostgres оборачивает открытое соединение с БД
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// ------------------ Пользователи ------------------

func (p *Postgres) CreateUser(u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := p.db.Exec(`
		INSERT INTO users (id, username, password_hash, email, full_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Username, u.PasswordHash, u.Email, u.FullName, u.Role, u.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("не удалось создать пользователя: %w", err)
	}
	return nil
}

func (p *Postgres) GetUser(id string) (*models.User, error) {
	return p.getUser("id", id)
}

func (p *Postgres) GetUserByUsername(username string) (*models.User, error) {
	return p.getUser("username", username)
}

func (p *Postgres) getUser(column, value string) (*models.User, error) {
	var u models.User
	err := p.db.QueryRow(`
		SELECT id, username, password_hash, email, full_name, role, created_at
		FROM users
		WHERE `+column+` = $1
	`, value).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FullName, &u.Role, &u.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось получить пользователя: %w", err)
	}
	return &u, nil
}

func (p *Postgres) ListUsers(role string) ([]models.User, error) {
	query := `
		SELECT id, username, password_hash, email, full_name, role, created_at
		FROM users
	`
	var args []interface{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at`

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить пользователей: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ------------------ Книги ------------------

func (p *Postgres) CreateBook(b *models.Book) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	_, err := p.db.Exec(`
		INSERT INTO books (id, title, description, author, year, isbn, quantity, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.Title, b.Description, b.Author, b.Year, b.ISBN, b.Quantity, b.Available)

	if err != nil {
		return fmt.Errorf("не удалось создать книгу: %w", err)
	}
	return nil
}

func (p *Postgres) GetBook(id string) (*models.Book, error) {
	var b models.Book
	err := p.db.QueryRow(`
		SELECT id, title, description, author, year, isbn, quantity, available
		FROM books
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Title, &b.Description, &b.Author, &b.Year, &b.ISBN, &b.Quantity, &b.Available)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось получить книгу: %w", err)
	}
	return &b, nil
}

func (p *Postgres) ListBooks(f models.BookFilter) ([]models.Book, error) {
	// Собираем условия динамически, фильтры комбинируются через AND
	var conds []string
	var args []interface{}

	if f.Title != "" {
		args = append(args, "%"+strings.ToLower(f.Title)+"%")
		conds = append(conds, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)))
	}
	if f.Author != "" {
		args = append(args, "%"+strings.ToLower(f.Author)+"%")
		conds = append(conds, fmt.Sprintf("LOWER(author) LIKE $%d", len(args)))
	}
	if f.Year != nil {
		args = append(args, *f.Year)
		conds = append(conds, fmt.Sprintf("year = $%d", len(args)))
	}
	if f.Available != nil {
		args = append(args, *f.Available)
		conds = append(conds, fmt.Sprintf("(available > 0) = $%d", len(args)))
	}

	query := `
		SELECT id, title, description, author, year, isbn, quantity, available
		FROM books
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY title"

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить книги: %w", err)
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.Author, &b.Year, &b.ISBN, &b.Quantity, &b.Available); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (p *Postgres) UpdateBook(id string, patch models.BookPatch) (*models.Book, error) {
	var b models.Book
	err := p.db.QueryRow(`
		UPDATE books
		SET title       = COALESCE($2, title),
		    description = COALESCE($3, description),
		    author      = COALESCE($4, author),
		    year        = COALESCE($5, year),
		    isbn        = COALESCE($6, isbn),
		    quantity    = COALESCE($7, quantity)
		WHERE id = $1
		RETURNING id, title, description, author, year, isbn, quantity, available
	`, id, patch.Title, patch.Description, patch.Author, patch.Year, patch.ISBN, patch.Quantity).
		Scan(&b.ID, &b.Title, &b.Description, &b.Author, &b.Year, &b.ISBN, &b.Quantity, &b.Available)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось обновить книгу: %w", err)
	}
	return &b, nil
}

// DeleteBook удаляет книгу. Идемпотентна, связанные выдачи и брони не трогает.
func (p *Postgres) DeleteBook(id string) error {
	if _, err := p.db.Exec(`DELETE FROM books WHERE id = $1`, id); err != nil {
		return fmt.Errorf("не удалось удалить книгу: %w", err)
	}
	return nil
}

// ------------------ Выдачи ------------------

// Borrow выдает экземпляр. Условный UPDATE списывает экземпляр атомарно:
// при параллельных запросах последний экземпляр достанется только одному.
func (p *Postgres) Borrow(bookID, userID string) (*models.Borrowing, error) {
	tx, err := p.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть транзакцию: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE books
		SET available = available - 1
		WHERE id = $1 AND available > 0
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("не удалось списать экземпляр: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrBookNotAvailable
	}

	now := time.Now().UTC()
	borrowing := models.Borrowing{
		ID:         uuid.NewString(),
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: now,
		DueDate:    now.Add(BorrowPeriod),
	}

	_, err = tx.Exec(`
		INSERT INTO borrowings (id, user_id, book_id, borrowed_at, due_date)
		VALUES ($1, $2, $3, $4, $5)
	`, borrowing.ID, borrowing.UserID, borrowing.BookID, borrowing.BorrowedAt, borrowing.DueDate)
	if err != nil {
		return nil, fmt.Errorf("не удалось записать выдачу: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}
	return &borrowing, nil
}

// Return закрывает активную выдачу читателя по книге. Экземпляр возвращается
// на полку, только если книга еще есть в каталоге.
func (p *Postgres) Return(bookID, userID string) (*models.Borrowing, error) {
	tx, err := p.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть транзакцию: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var borrowing models.Borrowing
	err = tx.QueryRow(`
		UPDATE borrowings
		SET returned_at = $3
		WHERE id = (
			SELECT id FROM borrowings
			WHERE book_id = $1 AND user_id = $2 AND returned_at IS NULL
			LIMIT 1
		)
		RETURNING id, user_id, book_id, borrowed_at, due_date, returned_at
	`, bookID, userID, now).Scan(
		&borrowing.ID, &borrowing.UserID, &borrowing.BookID,
		&borrowing.BorrowedAt, &borrowing.DueDate, &borrowing.ReturnedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNoActiveBorrowing
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось закрыть выдачу: %w", err)
	}

	// Книга могла быть удалена за время выдачи, тогда экземпляр некуда возвращать
	_, err = tx.Exec(`UPDATE books SET available = available + 1 WHERE id = $1`, bookID)
	if err != nil {
		return nil, fmt.Errorf("не удалось вернуть экземпляр: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}
	return &borrowing, nil
}

func (p *Postgres) ListBorrowings(userID string) ([]models.Borrowing, error) {
	rows, err := p.db.Query(`
		SELECT id, user_id, book_id, borrowed_at, due_date, returned_at
		FROM borrowings
		WHERE user_id = $1
		ORDER BY borrowed_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить историю выдач: %w", err)
	}
	defer rows.Close()

	borrowings := make([]models.Borrowing, 0)
	for rows.Next() {
		var b models.Borrowing
		if err := rows.Scan(&b.ID, &b.UserID, &b.BookID, &b.BorrowedAt, &b.DueDate, &b.ReturnedAt); err != nil {
			return nil, err
		}
		borrowings = append(borrowings, b)
	}
	return borrowings, rows.Err()
}

// ------------------ Мероприятия ------------------

func (p *Postgres) CreateEvent(e *models.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}

	_, err := p.db.Exec(`
		INSERT INTO events (id, title, description, date, time, location, attendees)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Title, e.Description, e.Date, e.Time, e.Location, pq.Array(e.Attendees))

	if err != nil {
		return fmt.Errorf("не удалось создать мероприятие: %w", err)
	}
	return nil
}

func (p *Postgres) GetEvent(id string) (*models.Event, error) {
	var e models.Event
	err := p.db.QueryRow(`
		SELECT id, title, description, date, time, location, attendees
		FROM events
		WHERE id = $1
	`, id).Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location, pq.Array(&e.Attendees))

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось получить мероприятие: %w", err)
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return &e, nil
}

func (p *Postgres) ListEvents() ([]models.Event, error) {
	rows, err := p.db.Query(`
		SELECT id, title, description, date, time, location, attendees
		FROM events
		ORDER BY date
	`)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить мероприятия: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location, pq.Array(&e.Attendees)); err != nil {
			return nil, err
		}
		if e.Attendees == nil {
			e.Attendees = []string{}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (p *Postgres) UpdateEvent(id string, patch models.EventPatch) (*models.Event, error) {
	var e models.Event
	err := p.db.QueryRow(`
		UPDATE events
		SET title       = COALESCE($2, title),
		    description = COALESCE($3, description),
		    date        = COALESCE($4, date),
		    time        = COALESCE($5, time),
		    location    = COALESCE($6, location)
		WHERE id = $1
		RETURNING id, title, description, date, time, location, attendees
	`, id, patch.Title, patch.Description, patch.Date, patch.Time, patch.Location).
		Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location, pq.Array(&e.Attendees))

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось обновить мероприятие: %w", err)
	}
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	return &e, nil
}

func (p *Postgres) DeleteEvent(id string) error {
	if _, err := p.db.Exec(`DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("не удалось удалить мероприятие: %w", err)
	}
	return nil
}

func (p *Postgres) AddAttendee(eventID, userID string) (*models.Event, error) {
	var e models.Event
	err := p.db.QueryRow(`
		UPDATE events
		SET attendees = array_append(attendees, $2)
		WHERE id = $1 AND NOT ($2 = ANY(attendees))
		RETURNING id, title, description, date, time, location, attendees
	`, eventID, userID).
		Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location, pq.Array(&e.Attendees))

	if err == sql.ErrNoRows {
		// Либо мероприятия нет, либо читатель уже записан - различаем отдельным запросом
		if _, getErr := p.GetEvent(eventID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось записать на мероприятие: %w", err)
	}
	return &e, nil
}

func (p *Postgres) RemoveAttendee(eventID, userID string) error {
	res, err := p.db.Exec(`
		UPDATE events
		SET attendees = array_remove(attendees, $2)
		WHERE id = $1 AND $2 = ANY(attendees)
	`, eventID, userID)
	if err != nil {
		return fmt.Errorf("не удалось отменить запись: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		if _, getErr := p.GetEvent(eventID); getErr != nil {
			return getErr
		}
		return ErrNotRegistered
	}
	return nil
}

// ------------------ Брони ------------------

func (p *Postgres) Reserve(bookID, userID string) (*models.Reservation, error) {
	tx, err := p.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть транзакцию: %w", err)
	}
	defer tx.Rollback()

	var available int
	err = tx.QueryRow(`SELECT available FROM books WHERE id = $1`, bookID).Scan(&available)
	if err == sql.ErrNoRows || (err == nil && available > 0) {
		return nil, ErrBookStillAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось проверить книгу: %w", err)
	}

	var exists bool
	err = tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM reservations WHERE book_id = $1 AND user_id = $2)
	`, bookID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("не удалось проверить бронь: %w", err)
	}
	if exists {
		return nil, ErrAlreadyReserved
	}

	r := models.Reservation{
		BookID:     bookID,
		UserID:     userID,
		ReservedAt: time.Now().UTC(),
	}
	_, err = tx.Exec(`
		INSERT INTO reservations (book_id, user_id, reserved_at)
		VALUES ($1, $2, $3)
	`, r.BookID, r.UserID, r.ReservedAt)
	if err != nil {
		return nil, fmt.Errorf("не удалось записать бронь: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}
	return &r, nil
}

// CancelReservations снимает все брони пары (книга, читатель). Идемпотентна.
func (p *Postgres) CancelReservations(bookID, userID string) error {
	_, err := p.db.Exec(`
		DELETE FROM reservations WHERE book_id = $1 AND user_id = $2
	`, bookID, userID)
	if err != nil {
		return fmt.Errorf("не удалось снять бронь: %w", err)
	}
	return nil
}
