package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type userDoc struct {
	ID         string    `bson:"_id"`
	ExternalID string    `bson:"external_id"`
	Email      string    `bson:"email,omitempty"`
	Name       string    `bson:"name"`
	AvatarURL  string    `bson:"avatar_url"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (d userDoc) domain() (*user.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &user.User{
		ID:         id,
		ExternalID: d.ExternalID,
		Email:      d.Email,
		Name:       d.Name,
		AvatarURL:  d.AvatarURL,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

type mongoUserRepo struct {
	c      *mongo.Collection
	logger logger.Logger
}

func NewMongoUserRepo(db *mongo.Database, log logger.Logger) user.Repository {
	return &mongoUserRepo{c: db.Collection(collUsers), logger: log}
}

func (r *mongoUserRepo) decode(res *mongo.SingleResult, identifier string) (*user.User, error) {
	var doc userDoc
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NewNotFound("user", identifier)
		}
		r.logger.Error("Failed to query user", err, zap.String("identifier", identifier))
		return nil, apperror.NewInternal("failed to query user", err)
	}
	u, err := doc.domain()
	if err != nil {
		return nil, apperror.NewInternal("failed to decode user", err)
	}
	return u, nil
}

func (r *mongoUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.decode(r.c.FindOne(ctx, bson.M{"_id": id.String()}), id.String())
}

func (r *mongoUserRepo) FindByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	return r.decode(r.c.FindOne(ctx, bson.M{"external_id": externalID}), externalID)
}

func (r *mongoUserRepo) EnsureByExternalID(ctx context.Context, u *user.User) (*user.User, error) {
	onInsert := bson.M{
		"_id":        u.ID.String(),
		"name":       u.Name,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
	if u.Email != "" {
		onInsert["email"] = u.Email
	}

	_, err := r.c.UpdateOne(ctx,
		bson.M{"external_id": u.ExternalID},
		bson.M{"$setOnInsert": onInsert},
		options.Update().SetUpsert(true),
	)
	// A concurrent upsert for the same identity loses the race on the
	// external_id index; the winner's row is what we want anyway.
	if err != nil && !isExternalIDDup(err) {
		return nil, r.mapWriteError(err, u.ExternalID, u.Email)
	}
	return r.FindByExternalID(ctx, u.ExternalID)
}

func (r *mongoUserRepo) Upsert(ctx context.Context, u *user.User) (*user.User, error) {
	now := time.Now().UTC()
	set := bson.M{"name": u.Name, "avatar_url": u.AvatarURL, "updated_at": now}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": u.ID.String(), "created_at": now},
	}
	if u.Email != "" {
		set["email"] = u.Email
	} else {
		update["$unset"] = bson.M{"email": ""}
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	res := r.c.FindOneAndUpdate(ctx, bson.M{"external_id": u.ExternalID}, update, opts)
	if err := res.Err(); err != nil {
		return nil, r.mapWriteError(err, u.ExternalID, u.Email)
	}
	return r.decode(res, u.ExternalID)
}

func (r *mongoUserRepo) DeleteByExternalID(ctx context.Context, externalID string) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"external_id": externalID})
	if err != nil {
		return apperror.NewInternal("failed to delete user", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NewNotFound("user", externalID)
	}
	return nil
}

func (r *mongoUserRepo) mapWriteError(err error, externalID, email string) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperror.NewConflict("user", "email", email)
	}
	r.logger.Error("Failed to write user", err, zap.String("external_id", externalID))
	return apperror.NewInternal("failed to write user", err)
}

func isExternalIDDup(err error) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "external_id_unique")
}
