package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/anchal00/gameroom/internal/logger"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrUserNotFound = errors.New("user-not-found")
	ErrInvalidUser  = errors.New("invalid-user")
)

var schema = `CREATE TABLE IF NOT EXISTS users (
  user_id varchar(64) PRIMARY KEY,
  name varchar(32) NOT NULL,
  level int DEFAULT 1 NOT NULL,
  avatar varchar(64) DEFAULT '' NOT NULL,
  frame varchar(64) DEFAULT '' NOT NULL,
  title varchar(64) DEFAULT '' NOT NULL,

  CONSTRAINT non_empty_name CHECK (TRIM(name) <> '')
);`

type SqliteStore struct {
	Conn   *sqlx.DB
	Logger logger.Logger
}

// SetupDB opens <dbname>.db and makes sure the schema exists.
func SetupDB(dbname string, log logger.Logger) (*SqliteStore, error) {
	s := &SqliteStore{Logger: log}
	if err := s.SetupConnection(dbname + ".db"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SqliteStore) SetupConnection(dsn string) error {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		s.Logger.Error("Database setup failed", err)
		return err
	}
	if _, err := db.Exec(schema); err != nil {
		s.Logger.Error("Database schema setup failed", err)
		db.Close()
		return err
	}
	s.Conn = db
	s.Logger.Info(fmt.Sprintf("Database %s setup successfully", dsn))
	return nil
}

func (s *SqliteStore) CloseConnection() {
	s.Logger.Info("Closing database connection")
	if err := s.Conn.Close(); err != nil {
		s.Logger.Error("Failed to tear down database connection", err)
		return
	}
	s.Logger.Info("Database connection closed successfully")
}

func (s *SqliteStore) GetUser(ctx context.Context, userId string) (*User, error) {
	query := `SELECT user_id, name, level, avatar, frame, title FROM users WHERE user_id = ?;`
	user := &User{}
	if err := s.Conn.GetContext(ctx, user, query, userId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userId)
		}
		s.Logger.Error(fmt.Sprintf("Failed to fetch user %s", userId), err)
		return nil, err
	}
	return user, nil
}

// GetUserById resolves the identity rooms use for a user.
func (s *SqliteStore) GetUserById(ctx context.Context, userId string) (room.Identity, error) {
	user, err := s.GetUser(ctx, userId)
	if err != nil {
		return room.Identity{}, err
	}
	return user.Identity(), nil
}

// UpsertUser creates the user or replaces their profile.
func (s *SqliteStore) UpsertUser(ctx context.Context, user User) error {
	user.UserId = strings.TrimSpace(user.UserId)
	user.Name = strings.TrimSpace(user.Name)
	if user.UserId == "" || user.Name == "" {
		return ErrInvalidUser
	}
	if user.Level < 1 {
		user.Level = 1
	}
	txn, err := s.Conn.BeginTxx(ctx, nil)
	if err != nil {
		s.Logger.Error("Failed to save user", err)
		return err
	}
	upsertUserSQL := `INSERT INTO users(user_id, name, level, avatar, frame, title)
VALUES(:user_id, :name, :level, :avatar, :frame, :title)
ON CONFLICT(user_id) DO UPDATE SET
  name = excluded.name,
  level = excluded.level,
  avatar = excluded.avatar,
  frame = excluded.frame,
  title = excluded.title;`
	if _, err := txn.NamedExecContext(ctx, upsertUserSQL, user); err != nil {
		s.Logger.Error("Failed to save user", err)
		if errRoll := txn.Rollback(); errRoll != nil {
			s.Logger.Error("Failed to rollback UpsertUser txn", errRoll)
			return errRoll
		}
		return err
	}
	if errCommit := txn.Commit(); errCommit != nil {
		s.Logger.Error("Failed to Commit UpsertUser txn", errCommit)
		return errCommit
	}
	s.Logger.Debug(fmt.Sprintf("User %s saved", user.UserId))
	return nil
}

func (s *SqliteStore) DeleteUser(ctx context.Context, userId string) error {
	query := `DELETE FROM users WHERE user_id = ?;`
	res, err := s.Conn.ExecContext(ctx, query, userId)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to delete user %s", userId), err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userId)
	}
	s.Logger.Info(fmt.Sprintf("User %s deleted", userId))
	return nil
}
