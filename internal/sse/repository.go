// sse repository encapsulates the data access logic (interactions with the DB) related to sse clients in Smeta.

package sse

import (
	"Smeta/internal/errors"
	"Smeta/pkg/db"
	"Smeta/pkg/log"
	"context"
	"strconv"
)

type Repository interface {
	// AddClient mirrors a connected SSE client's user id into the DB.
	// Helpful for diagnostics when more than one server instance is running.
	AddClient(ctx context.Context, logger log.Logger, userID uint64) error
	// RemoveClient removes a disconnected SSE client's user id from the DB.
	RemoveClient(ctx context.Context, logger log.Logger, userID uint64) error
}

// repository struct of sse Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of sse repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

// Returns nil if client with userID got successfully added into the DB.
func (r repository) AddClient(ctx context.Context, logger log.Logger, userID uint64) error {
	dberr := r.db.Client().SAdd(ctx, "sse_clients", strconv.FormatUint(userID, 10)).Err()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of SAdd in sse.AddClient")
		return errors.InternalServerError("")
	}
	return nil
}

// Returns nil if client with userID got successfully removed from the DB.
func (r repository) RemoveClient(ctx context.Context, logger log.Logger, userID uint64) error {
	dberr := r.db.Client().SRem(ctx, "sse_clients", strconv.FormatUint(userID, 10)).Err()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of SRem in sse.RemoveClient")
		return errors.InternalServerError("")
	}
	return nil
}
