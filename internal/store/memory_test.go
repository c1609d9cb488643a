package store_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio/internal/models"
	"biblio/internal/store"
)

func newUser(username, role string) *models.User {
	return &models.User{
		Username:     username,
		PasswordHash: "hash",
		Email:        username + "@example.com",
		Role:         role,
	}
}

func newBook(title string, quantity int) *models.Book {
	return &models.Book{
		Title:     title,
		Author:    "Автор",
		Year:      2000,
		ISBN:      "000-0000000000",
		Quantity:  quantity,
		Available: quantity,
	}
}

func Test_CreateUser_DuplicateUsername(t *testing.T) {
	m := store.NewMemory()

	require.NoError(t, m.CreateUser(newUser("ivan", models.RoleUser)))

	err := m.CreateUser(newUser("ivan", models.RoleLibrarian))
	assert.ErrorIs(t, err, store.ErrUsernameTaken)

	// В хранилище остался ровно один такой пользователь
	users, err := m.ListUsers("")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func Test_CreateUser_AssignsIDAndCreatedAt(t *testing.T) {
	m := store.NewMemory()

	u := newUser("ivan", models.RoleUser)
	require.NoError(t, m.CreateUser(u))

	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := m.GetUser(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ivan", got.Username)
}

func Test_ListUsers_FilterByRole(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.CreateUser(newUser("ivan", models.RoleUser)))
	require.NoError(t, m.CreateUser(newUser("maria", models.RoleLibrarian)))

	librarians, err := m.ListUsers(models.RoleLibrarian)
	require.NoError(t, err)
	require.Len(t, librarians, 1)
	assert.Equal(t, "maria", librarians[0].Username)

	all, err := m.ListUsers("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func Test_BorrowAndReturn_RestoresAvailability(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Мастер и Маргарита", 2)
	require.NoError(t, m.CreateBook(b))
	u := newUser("ivan", models.RoleUser)
	require.NoError(t, m.CreateUser(u))

	borrowing, err := m.Borrow(b.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, borrowing.UserID)
	assert.Nil(t, borrowing.ReturnedAt)
	assert.Equal(t, borrowing.BorrowedAt.Add(store.BorrowPeriod), borrowing.DueDate)

	got, err := m.GetBook(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Available)

	returned, err := m.Return(b.ID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedAt)
	// Срок возврата не меняется при возврате
	assert.Equal(t, borrowing.DueDate, returned.DueDate)

	got, err = m.GetBook(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Available)
}

func Test_Borrow_Unavailable(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Игрок", 1)
	b.Available = 0
	require.NoError(t, m.CreateBook(b))

	_, err := m.Borrow(b.ID, "user-1")
	assert.ErrorIs(t, err, store.ErrBookNotAvailable)

	// Хранилище не изменилось
	got, err := m.GetBook(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Available)

	borrowings, err := m.ListBorrowings("user-1")
	require.NoError(t, err)
	assert.Empty(t, borrowings)
}

func Test_Borrow_MissingBook(t *testing.T) {
	m := store.NewMemory()

	_, err := m.Borrow("no-such-book", "user-1")
	assert.ErrorIs(t, err, store.ErrBookNotAvailable)
}

func Test_Borrow_LastCopyConcurrent(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Идиот", 1)
	require.NoError(t, m.CreateBook(b))

	const readers = 20
	var wg sync.WaitGroup
	errs := make([]error, readers)

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Borrow(b.ID, "user")
		}(i)
	}
	wg.Wait()

	// Последний экземпляр достается ровно одному
	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, store.ErrBookNotAvailable)
		}
	}
	assert.Equal(t, 1, succeeded)

	got, err := m.GetBook(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Available)
}

func Test_Return_NoActiveBorrowing(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Обломов", 1)
	require.NoError(t, m.CreateBook(b))

	_, err := m.Return(b.ID, "user-1")
	assert.ErrorIs(t, err, store.ErrNoActiveBorrowing)
}

func Test_Return_Twice(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Обломов", 1)
	require.NoError(t, m.CreateBook(b))

	_, err := m.Borrow(b.ID, "user-1")
	require.NoError(t, err)

	_, err = m.Return(b.ID, "user-1")
	require.NoError(t, err)

	_, err = m.Return(b.ID, "user-1")
	assert.ErrorIs(t, err, store.ErrNoActiveBorrowing)
}

func Test_Return_AfterBookDeleted(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Нос", 1)
	require.NoError(t, m.CreateBook(b))

	_, err := m.Borrow(b.ID, "user-1")
	require.NoError(t, err)

	require.NoError(t, m.DeleteBook(b.ID))

	// Возврат закрывает выдачу, хотя книги в каталоге уже нет
	returned, err := m.Return(b.ID, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, returned.ReturnedAt)
}

func Test_UpdateBook_PatchSemantics(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Чайка", 3)
	require.NoError(t, m.CreateBook(b))

	newTitle := "Чайка (изд. 2)"
	updated, err := m.UpdateBook(b.ID, models.BookPatch{Title: &newTitle})
	require.NoError(t, err)

	// Не переданные поля остаются как были
	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, "Автор", updated.Author)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, 3, updated.Available)

	// Явный ноль отличим от отсутствия поля
	zero := 0
	updated, err = m.UpdateBook(b.ID, models.BookPatch{Quantity: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Quantity)
	assert.Equal(t, newTitle, updated.Title)

	_, err = m.UpdateBook("no-such-book", models.BookPatch{Title: &newTitle})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_DeleteBook_Idempotent(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Ревизор", 1)
	require.NoError(t, m.CreateBook(b))

	require.NoError(t, m.DeleteBook(b.ID))
	require.NoError(t, m.DeleteBook(b.ID))

	_, err := m.GetBook(b.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

//nolint:funlen
func Test_ListBooks_Filters(t *testing.T) {
	m := store.NewMemory()

	war := newBook("Война и мир", 2)
	war.Author = "Толстой"
	war.Year = 1869
	require.NoError(t, m.CreateBook(war))

	crime := newBook("Преступление и наказание", 1)
	crime.Author = "Достоевский"
	crime.Year = 1866
	crime.Available = 0
	require.NoError(t, m.CreateBook(crime))

	yes, no := true, false
	year := 1866

	tests := []struct {
		name   string
		filter models.BookFilter
		want   []string
	}{
		{
			name:   "без фильтра возвращаются все",
			filter: models.BookFilter{},
			want:   []string{"Война и мир", "Преступление и наказание"},
		},
		{
			name:   "подстрока в названии без учета регистра",
			filter: models.BookFilter{Title: "война"},
			want:   []string{"Война и мир"},
		},
		{
			name:   "подстрока в авторе",
			filter: models.BookFilter{Author: "достоев"},
			want:   []string{"Преступление и наказание"},
		},
		{
			name:   "точный год",
			filter: models.BookFilter{Year: &year},
			want:   []string{"Преступление и наказание"},
		},
		{
			name:   "только доступные",
			filter: models.BookFilter{Available: &yes},
			want:   []string{"Война и мир"},
		},
		{
			name:   "только недоступные",
			filter: models.BookFilter{Available: &no},
			want:   []string{"Преступление и наказание"},
		},
		{
			name:   "фильтры комбинируются через И",
			filter: models.BookFilter{Title: "и", Available: &yes},
			want:   []string{"Война и мир"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			books, err := m.ListBooks(tc.filter)
			require.NoError(t, err)

			titles := make([]string, 0, len(books))
			for _, b := range books {
				titles = append(titles, b.Title)
			}
			assert.ElementsMatch(t, tc.want, titles)
		})
	}
}

func Test_AddAttendee_Twice(t *testing.T) {
	m := store.NewMemory()

	e := &models.Event{Title: "Вечер поэзии", Date: time.Now().UTC()}
	require.NoError(t, m.CreateEvent(e))

	event, err := m.AddAttendee(e.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, event.Attendees)

	_, err = m.AddAttendee(e.ID, "user-1")
	assert.ErrorIs(t, err, store.ErrAlreadyRegistered)

	// Дубликат не добавился
	got, err := m.GetEvent(e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, got.Attendees)
}

func Test_RemoveAttendee(t *testing.T) {
	m := store.NewMemory()

	e := &models.Event{Title: "Книжный клуб", Date: time.Now().UTC()}
	require.NoError(t, m.CreateEvent(e))

	err := m.RemoveAttendee(e.ID, "user-1")
	assert.ErrorIs(t, err, store.ErrNotRegistered)

	_, err = m.AddAttendee(e.ID, "user-1")
	require.NoError(t, err)
	require.NoError(t, m.RemoveAttendee(e.ID, "user-1"))

	got, err := m.GetEvent(e.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Attendees)

	err = m.RemoveAttendee("no-such-event", "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_UpdateEvent_Patch(t *testing.T) {
	m := store.NewMemory()

	e := &models.Event{Title: "Лекция", Location: "Зал 1", Date: time.Now().UTC()}
	require.NoError(t, m.CreateEvent(e))

	loc := "Зал 2"
	updated, err := m.UpdateEvent(e.ID, models.EventPatch{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Лекция", updated.Title)
	assert.Equal(t, "Зал 2", updated.Location)

	_, err = m.UpdateEvent("no-such-event", models.EventPatch{Location: &loc})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func Test_Reserve(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Дама с собачкой", 1)
	require.NoError(t, m.CreateBook(b))

	// Книга доступна - бронь невозможна
	_, err := m.Reserve(b.ID, "user-1")
	assert.ErrorIs(t, err, store.ErrBookStillAvailable)

	// Книги нет - тот же ответ
	_, err = m.Reserve("no-such-book", "user-1")
	assert.ErrorIs(t, err, store.ErrBookStillAvailable)

	_, err = m.Borrow(b.ID, "user-2")
	require.NoError(t, err)

	r, err := m.Reserve(b.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, r.BookID)
	assert.Equal(t, "user-1", r.UserID)
	assert.False(t, r.ReservedAt.IsZero())

	_, err = m.Reserve(b.ID, "user-1")
	assert.ErrorIs(t, err, store.ErrAlreadyReserved)
}

func Test_CancelReservations_Idempotent(t *testing.T) {
	m := store.NewMemory()

	b := newBook("Палата №6", 1)
	require.NoError(t, m.CreateBook(b))
	_, err := m.Borrow(b.ID, "user-2")
	require.NoError(t, err)

	_, err = m.Reserve(b.ID, "user-1")
	require.NoError(t, err)

	require.NoError(t, m.CancelReservations(b.ID, "user-1"))

	// Бронь снята, можно бронировать заново
	_, err = m.Reserve(b.ID, "user-1")
	require.NoError(t, err)

	require.NoError(t, m.CancelReservations(b.ID, "user-1"))
	// Повторное снятие не ошибка и ничего не меняет
	require.NoError(t, m.CancelReservations(b.ID, "user-1"))
	// Снятие несуществующей брони тоже проходит
	require.NoError(t, m.CancelReservations("no-such-book", "user-9"))
}
