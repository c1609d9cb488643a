package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio/internal/handler"
	"biblio/internal/models"
)

func createEvent(t *testing.T, api http.Handler, token, title string) models.Event {
	t.Helper()

	rr := do(t, api, http.MethodPost, "/events", token, handler.CreateEventRequest{
		Title:    title,
		Date:     time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Time:     "18:00",
		Location: "Читальный зал",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var e models.Event
	decodeJSON(t, rr, &e)
	return e
}

func Test_CreateEvent_LibrarianOnly(t *testing.T) {
	api := newAPI()

	userToken := registerAndLogin(t, api, "ivan", models.RoleUser)
	librarianToken := registerAndLogin(t, api, "maria", models.RoleLibrarian)

	rr := do(t, api, http.MethodPost, "/events", userToken,
		handler.CreateEventRequest{Title: "Вечер поэзии"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	e := createEvent(t, api, librarianToken, "Вечер поэзии")
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, []string{}, e.Attendees)
}

func Test_ListAndGetEvents_Public(t *testing.T) {
	api := newAPI()
	librarianToken := registerAndLogin(t, api, "maria", models.RoleLibrarian)
	e := createEvent(t, api, librarianToken, "Книжный клуб")

	rr := do(t, api, http.MethodGet, "/events", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var events []models.Event
	decodeJSON(t, rr, &events)
	require.Len(t, events, 1)
	assert.Equal(t, "Книжный клуб", events[0].Title)

	rr = do(t, api, http.MethodGet, "/events/"+e.ID, "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, api, http.MethodGet, "/events/no-such-id", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func Test_EventRegistration_Flow(t *testing.T) {
	api := newAPI()
	librarianToken := registerAndLogin(t, api, "maria", models.RoleLibrarian)
	readerToken := registerAndLogin(t, api, "ivan", models.RoleUser)

	e := createEvent(t, api, librarianToken, "Лекция о Гоголе")

	// Запись
	rr := do(t, api, http.MethodPost, "/events/"+e.ID+"/register", readerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var updated models.Event
	decodeJSON(t, rr, &updated)
	assert.Len(t, updated.Attendees, 1)

	// Повторная запись - ошибка, дубликата не появляется
	rr = do(t, api, http.MethodPost, "/events/"+e.ID+"/register", readerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Already registered")

	rr = do(t, api, http.MethodGet, "/events/"+e.ID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeJSON(t, rr, &updated)
	assert.Len(t, updated.Attendees, 1)

	// Отмена записи
	rr = do(t, api, http.MethodDelete, "/events/"+e.ID+"/register", readerToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Registration canceled")

	// Повторная отмена - записи уже нет
	rr = do(t, api, http.MethodDelete, "/events/"+e.ID+"/register", readerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Not registered")

	// Неизвестное мероприятие
	rr = do(t, api, http.MethodPost, "/events/no-such-id/register", readerToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func Test_UpdateEvent_Patch(t *testing.T) {
	api := newAPI()
	librarianToken := registerAndLogin(t, api, "maria", models.RoleLibrarian)
	e := createEvent(t, api, librarianToken, "Лекция")

	rr := do(t, api, http.MethodPatch, "/events/"+e.ID, librarianToken,
		map[string]interface{}{"location": "Зал 2"})
	require.Equal(t, http.StatusOK, rr.Code)

	var updated models.Event
	decodeJSON(t, rr, &updated)
	assert.Equal(t, "Лекция", updated.Title)
	assert.Equal(t, "Зал 2", updated.Location)

	rr = do(t, api, http.MethodPatch, "/events/no-such-id", librarianToken,
		map[string]interface{}{"location": "Зал 2"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func Test_DeleteEvent_LibrarianOnly(t *testing.T) {
	api := newAPI()
	librarianToken := registerAndLogin(t, api, "maria", models.RoleLibrarian)
	userToken := registerAndLogin(t, api, "ivan", models.RoleUser)

	e := createEvent(t, api, librarianToken, "Выставка")

	rr := do(t, api, http.MethodDelete, "/events/"+e.ID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, api, http.MethodDelete, "/events/"+e.ID, librarianToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Event deleted")

	rr = do(t, api, http.MethodGet, "/events/"+e.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
