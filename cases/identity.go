package cases

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/models"
)

// Identity resolves a principal id to its role
type Identity interface {
	Resolve(ctx context.Context, id string) (models.Principal, error)
}

// UserIdentity resolves principals from the users collection
type UserIdentity struct {
	Users databases.UserDatabase
}

// Resolve returns the active user with the given id or a not found Error
func (u UserIdentity) Resolve(ctx context.Context, id string) (models.Principal, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Principal{}, New(KindNotFound, "user %q not found", id)
	}
	user, err := u.Users.FindOne(ctx, bson.M{"_id": oid, "user.isActive": true})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Principal{}, New(KindNotFound, "user %q not found", id)
		}
		return models.Principal{}, Wrap(err, KindServer, "failed to look up user")
	}
	return user.Principal(), nil
}

// resolveAs resolves id and checks it carries role
func resolveAs(ctx context.Context, identity Identity, id string, role models.Role, label string) (models.Principal, error) {
	p, err := identity.Resolve(ctx, id)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return models.Principal{}, New(KindNotFound, "%s %q not found", label, id)
		}
		return models.Principal{}, err
	}
	if p.Role != role {
		return models.Principal{}, New(KindRoleMismatch, "%s %q must have role %s, has %s", label, id, role, p.Role)
	}
	return p, nil
}
