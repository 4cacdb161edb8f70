// Auth repository encapsulates the data access logic (interactions with the DB) related to Authentication in Smeta.
// Token issuance lives in the account service, this side only verifies that a
// presented token uuid is still active for the claimed user.

package auth

import (
	"Smeta/internal/errors"
	"Smeta/pkg/db"
	"Smeta/pkg/log"
	"context"
	"strconv"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// TokenExists checks whether tokenUUID:userID exists in the DB.
	TokenExists(ctx context.Context, logger log.Logger, tokenUUID string, userID uint64) (bool, error)
}

// repository struct of auth Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of auth repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

// Returns boolean if tokenUUID:UserID exists in the DB or not.
func (r repository) TokenExists(ctx context.Context, logger log.Logger, tokenUUID string, userID uint64) (bool, error) {
	val, dberr := r.db.Client().Get(ctx, "token:"+tokenUUID).Result()
	if dberr == redis.Nil {
		// Key doesn't exist, maybe got expired
		return false, nil
	} else if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Get in auth.TokenExists")
		return false, errors.InternalServerError("")
	}
	// Parse the UserID stored as a string in val to uint64 before comparing
	id, prserr := strconv.ParseUint(val, 10, 64)
	if prserr != nil {
		// Parsing error
		logger.WithCtx(ctx).Error().Err(prserr).Msg("Parsing error in auth.TokenExists")
		return false, errors.InternalServerError("")
	}
	return id == userID, nil
}
