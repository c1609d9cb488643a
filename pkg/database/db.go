package database

import (
	"database/sql"
	"fmt"
	"log"

	"biblio/config"

	_ "github.com/lib/pq"
)

var db *sql.DB // приватная переменная

func Connect(cfg *config.Config) error {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("не удалось подключиться к базе данных: %v", err)
	}

	if err = db.Ping(); err != nil {
		return fmt.Errorf("не удалось проверить подключение: %v", err)
	}

	log.Println("Подключение к PostgreSQL установлено")
	return nil
}

// GetDB возвращает соединение с БД
func GetDB() *sql.DB {
	if db == nil {
		log.Fatal("БД не подключена! Сначала вызовите Connect()")
	}
	return db
}

func Close() {
	if db != nil {
		db.Close()
		log.Println("Подключение к базе данных закрыто")
	}
}

// InitSchema создает таблицы библиотеки, если их еще нет
func InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		email         TEXT NOT NULL,
		full_name     TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS books (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		author      TEXT NOT NULL,
		year        INTEGER NOT NULL,
		isbn        TEXT NOT NULL,
		quantity    INTEGER NOT NULL,
		available   INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS borrowings (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		book_id     TEXT NOT NULL,
		borrowed_at TIMESTAMPTZ NOT NULL,
		due_date    TIMESTAMPTZ NOT NULL,
		returned_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		date        TIMESTAMPTZ NOT NULL,
		time        TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		attendees   TEXT[] NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS reservations (
		book_id     TEXT NOT NULL,
		user_id     TEXT NOT NULL,
		reserved_at TIMESTAMPTZ NOT NULL
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("не удалось создать таблицы: %v", err)
	}

	log.Println("Схема базы данных инициализирована")
	return nil
}
