package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"videotube/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UsersCollection is the collection holding account documents.
const UsersCollection = "users"

type UserMongo struct {
	coll *mongo.Collection
}

func NewUserMongo(coll *mongo.Collection) *UserMongo {
	return &UserMongo{coll: coll}
}

var _ Users = (*UserMongo)(nil)

func (r *UserMongo) Create(ctx context.Context, u *models.User) error {
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return nil
}

func (r *UserMongo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserMongo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"$or": or})
}

// Update uses $set for values and $unset for nullable fields set to "".
// An empty update writes nothing and returns the current document.
func (r *UserMongo) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if upd.IsEmpty() {
		return r.FindByID(ctx, id)
	}
	doc := buildUpdateDoc(upd, time.Now().UTC())

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := r.coll.FindOneAndUpdate(ctx, updateFilter(id, upd), doc, opts).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("update user %q: %w", id, err)
	}
	return &u, nil
}

func (r *UserMongo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// updateFilter matches the document by id and, for a conditional update,
// by the refresh token it must still hold.
func updateFilter(id string, upd models.UserUpdate) bson.M {
	filter := bson.M{"_id": id}
	if upd.IfRefreshToken != nil {
		filter["refreshToken"] = *upd.IfRefreshToken
	}
	return filter
}

func buildUpdateDoc(upd models.UserUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	unset := bson.M{}

	put := func(key string, v *string, nullable bool) {
		if v == nil {
			return
		}
		if nullable && *v == "" {
			unset[key] = ""
			return
		}
		set[key] = *v
	}
	put("fullName", upd.FullName, false)
	put("email", upd.Email, false)
	put("avatar", upd.Avatar, false)
	put("coverImage", upd.CoverImage, true)
	put("password", upd.PasswordHash, false)
	put("accessToken", upd.AccessToken, true)
	put("refreshToken", upd.RefreshToken, true)

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}
