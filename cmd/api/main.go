package main

import (
	"errors"
	"log"
	"net/http"

	"biblio/config"
	"biblio/internal/auth"
	"biblio/internal/handler"
	"biblio/internal/models"
	"biblio/internal/store"
	"biblio/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// Загружаем .env файл
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден")
	}

	// Загружаем конфигурацию
	cfg := config.Load()
	auth.Configure(cfg.JWTSecret, cfg.JWTExpiration)

	// Выбираем хранилище
	var s store.Store
	switch cfg.StorageDriver {
	case "postgres":
		if err := database.Connect(cfg); err != nil {
			log.Fatalf("Ошибка подключения к БД: %v", err)
		}
		defer database.Close()

		if err := database.InitSchema(); err != nil {
			log.Fatalf("Ошибка инициализации схемы: %v", err)
		}
		s = store.NewPostgres(database.GetDB())
	case "memory":
		s = store.NewMemory()
		log.Println("⚠️  Хранилище в памяти: данные пропадут при перезапуске")
	default:
		log.Fatalf("Неизвестное хранилище: %s", cfg.StorageDriver)
	}

	// Создаем учетную запись библиотекаря, если ее еще нет
	if err := seedLibrarian(s, cfg); err != nil {
		log.Fatalf("Ошибка создания учетной записи библиотекаря: %v", err)
	}

	// Создаем обработчик и настраиваем маршруты
	h := handler.NewHandler(s)
	router := h.Routes()

	// Запуск сервера
	log.Printf("Сервер запущен на http://localhost:%s", cfg.AppPort)
	log.Printf("Хранилище: %s", cfg.StorageDriver)

	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// seedLibrarian регистрирует стартового библиотекаря из конфигурации
func seedLibrarian(s store.Store, cfg *config.Config) error {
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	librarian := models.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Email:        cfg.AdminEmail,
		Role:         models.RoleLibrarian,
	}

	err = s.CreateUser(&librarian)
	if errors.Is(err, store.ErrUsernameTaken) {
		return nil // уже создан при прошлом запуске
	}
	if err != nil {
		return err
	}

	log.Printf("✅ Создан библиотекарь: %s", librarian.Username)
	return nil
}
