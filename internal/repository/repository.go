package repository

import (
	"context"
	"database/sql"
	"errors"

	"videotube/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateUser is returned when a write violates the unique username or
// email constraint.
var ErrDuplicateUser = errors.New("user with this username or email already exists")

// Users is the credential store. Lookups return (nil, nil) when no record matches.
type Users interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindByUsernameOrEmail matches either field; an empty argument is ignored.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	// Update applies upd and returns the record as stored afterwards. It
	// returns (nil, nil) when no record matches the id and, if set,
	// upd.IfRefreshToken.
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
}

type Repository struct {
	Users Users
}

// NewSQLiteRepository backs the store with an already opened SQLite handle.
func NewSQLiteRepository(db *sql.DB) *Repository {
	return &Repository{
		Users: NewUserSQLite(db),
	}
}

// NewMongoRepository backs the store with the "users" collection of db.
func NewMongoRepository(db *mongo.Database) *Repository {
	return &Repository{
		Users: NewUserMongo(db.Collection(UsersCollection)),
	}
}
