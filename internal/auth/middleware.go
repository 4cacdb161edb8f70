// Auth middleware is used to validate access tokens on endpoints which need authenticated users.
// Credentials are accepted from two places: the standard Authorization header,
// or a "token" query parameter. The second path exists because the browser's
// native EventSource API cannot attach custom headers to the stream request.

package auth

import (
	"Smeta/internal/errors"
	"Smeta/internal/user"
	"Smeta/pkg/log"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// This middleware is used to verify and validate an incoming access token.
// The token is a JWT signed with secret, carrying the token uuid and the user id;
// the uuid is cross-checked against the DB so revoked tokens stop working immediately.
// Blocks the request to go further into other handlers if the token is invalid.
// On success the request context carries "UserID" and "User".
func AuthMiddleware(logger log.Logger, authRepo Repository, userRepo user.Repository, secret string) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		// Extract token from header, falling back to the query parameter
		token := fetchToken(gctx)
		if token == "" {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		// Parse the token with secret if the token is valid
		vrftoken, valerr := parseIntoJWT(gctx, logger, secret, token)
		if valerr != nil || !vrftoken.Valid {
			// Abort the call chain for the request here as the user is unauthenticated
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		// Extract TokenUUID and UserID from token claims
		tokenclaims, ok := vrftoken.Claims.(jwt.MapClaims)
		if !ok {
			// Type assertion error
			gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}
		tokenUUID, ok := tokenclaims["token_uuid"].(string)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error on token_uuid in AuthMiddleware")
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		// UserID claim comes back as float64 even though uint64 was passed during signing
		userIDClaim, ok := tokenclaims["user_id"].(float64)
		if !ok {
			logger.WithCtx(gctx).Error().Msg("Type assertion error on user_id in AuthMiddleware")
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		userID := uint64(userIDClaim)
		// Verify if TokenUUID:UserID is available in DB
		valid, dberr := authRepo.TokenExists(gctx, logger, tokenUUID, userID)
		if dberr != nil {
			// Error in TokenExists
			gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		} else if !valid {
			// token missing in DB or mismatch with UserID
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		// Resolve the account so handlers down the chain know the user's role
		ue, usrerr := userRepo.GetUser(gctx, logger, userID)
		if usrerr != nil {
			// Token points at a user which no longer exists
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(""))
			return
		}
		// Set identity in request's context
		// This pair will be used further down in the handler chain
		gctx.Set("UserID", userID)
		gctx.Set("User", ue)
		gctx.Next()
	}
}

// Helper to fetch the token string from the Authorization header or the token query parameter.
func fetchToken(gctx *gin.Context) string {
	header := gctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return gctx.Query("token")
}

// Helper to parse and return the token string fetched from the request.
func parseIntoJWT(gctx *gin.Context, logger log.Logger, secret string, token string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// Check the signing method
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			err := errors.New(fmt.Sprintf("Unexpected signing method found: %s", t.Header["alg"]))
			logger.WithCtx(gctx).Error().Err(err)
			return nil, err
		}
		return []byte(secret), nil
	})
}
