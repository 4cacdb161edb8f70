// User repository encapsulates the data access logic (interactions with the DB) related to Users in Smeta.
// This is the identity collaborator of the notification layer: it resolves
// user ids to accounts and role names to their current members.

package user

import (
	"Smeta/internal/entity"
	"Smeta/internal/errors"
	"Smeta/pkg/db"
	"Smeta/pkg/log"
	"context"
	"strconv"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// GetUser returns the user with userID if exists.
	GetUser(ctx context.Context, logger log.Logger, userID uint64) (entity.User, error)
	// GetUsersByRole returns the ids of every user currently holding the role.
	GetUsersByRole(ctx context.Context, logger log.Logger, roleName string) ([]uint64, error)
}

// repository struct of user Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of user repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

// Returns the user data object if user with the given id is found in the DB.
func (r repository) GetUser(ctx context.Context, logger log.Logger, userID uint64) (entity.User, error) {
	user := entity.User{}
	key := "user:" + strconv.FormatUint(userID, 10)
	available, dberr := r.db.Client().Exists(ctx, key).Result()
	if dberr != nil && dberr != redis.Nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Exists() in user.GetUser")
		return user, errors.InternalServerError("")
	} else if available == 0 {
		// User not available
		return user, errors.NotFound("User not available")
	}
	if dberr := r.db.Client().HGetAll(ctx, key).Scan(&user); dberr != nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HGetAll() in user.GetUser")
		return user, errors.InternalServerError("")
	}
	return user, nil
}

// Returns ids of the members of role:roleName set in the DB.
func (r repository) GetUsersByRole(ctx context.Context, logger log.Logger, roleName string) ([]uint64, error) {
	members, dberr := r.db.Client().SMembers(ctx, "role:"+roleName).Result()
	if dberr != nil && dberr != redis.Nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.SMembers() in user.GetUsersByRole")
		return nil, errors.InternalServerError("")
	}
	ids := make([]uint64, 0, len(members))
	for _, member := range members {
		id, prserr := strconv.ParseUint(member, 10, 64)
		if prserr != nil {
			// Malformed member, role sets only hold numeric user ids
			logger.WithCtx(ctx).Error().Err(prserr).Msgf("Malformed member %s in role set %s", member, roleName)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
