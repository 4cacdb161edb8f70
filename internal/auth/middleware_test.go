// Tests for the token verification middleware in Smeta.

package auth

import (
	"Smeta/internal/entity"
	"Smeta/internal/errors"
	"Smeta/pkg/log"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "MockAccessSecret"

// fakeAuthRepo answers the token cross-check without a live DB.
type fakeAuthRepo struct {
	valid bool
	err   error
}

func (f fakeAuthRepo) TokenExists(ctx context.Context, logger log.Logger, tokenUUID string, userID uint64) (bool, error) {
	return f.valid, f.err
}

type fakeUserRepo struct {
	user entity.User
	err  error
}

func (f fakeUserRepo) GetUser(ctx context.Context, logger log.Logger, userID uint64) (entity.User, error) {
	return f.user, f.err
}

func (f fakeUserRepo) GetUsersByRole(ctx context.Context, logger log.Logger, roleName string) ([]uint64, error) {
	return nil, nil
}

func signedToken(t *testing.T, secret string, tokenUUID string, userID uint64) string {
	t.Helper()
	claims := jwt.MapClaims{
		"token_uuid": tokenUUID,
		"user_id":    userID,
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
	token, sgnerr := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, sgnerr)
	return token
}

// newProtectedRouter wires the middleware in front of a probe handler which
// echoes the resolved identity back.
func newProtectedRouter(authRepo Repository, userRepo fakeUserRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := log.New("test")
	router := gin.New()
	router.GET("/protected", AuthMiddleware(logger, authRepo, userRepo, testSecret), func(gctx *gin.Context) {
		userID := gctx.MustGet("UserID").(uint64)
		ue := gctx.MustGet("User").(entity.User)
		gctx.String(http.StatusOK, strconv.FormatUint(userID, 10)+":"+ue.Role)
	})
	return router
}

func TestAuthMiddlewareAcceptsBearerHeader(t *testing.T) {
	router := newProtectedRouter(
		fakeAuthRepo{valid: true},
		fakeUserRepo{user: entity.User{ID: 42, Role: "менеджер"}},
	)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, "uuid-1", 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42:менеджер", rec.Body.String())
}

func TestAuthMiddlewareAcceptsQueryToken(t *testing.T) {
	router := newProtectedRouter(
		fakeAuthRepo{valid: true},
		fakeUserRepo{user: entity.User{ID: 7, Role: "прораб"}},
	)

	// EventSource cannot set headers, the stream endpoint relies on this path
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+signedToken(t, testSecret, "uuid-2", 7), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7:прораб", rec.Body.String())
}

func TestAuthMiddlewareHeaderTakesPrecedenceOverQuery(t *testing.T) {
	router := newProtectedRouter(
		fakeAuthRepo{valid: true},
		fakeUserRepo{user: entity.User{ID: 42}},
	)

	req := httptest.NewRequest(http.MethodGet, "/protected?token=garbage", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, "uuid-3", 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	router := newProtectedRouter(fakeAuthRepo{valid: true}, fakeUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsWrongSignature(t *testing.T) {
	router := newProtectedRouter(fakeAuthRepo{valid: true}, fakeUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "WrongSecret", "uuid-4", 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	// Signature checks out but the uuid is gone from the DB
	router := newProtectedRouter(fakeAuthRepo{valid: false}, fakeUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, "uuid-5", 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareFailsClosedOnDbError(t *testing.T) {
	router := newProtectedRouter(fakeAuthRepo{err: errors.New("DB down")}, fakeUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, "uuid-6", 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthMiddlewareRejectsDeletedUser(t *testing.T) {
	router := newProtectedRouter(
		fakeAuthRepo{valid: true},
		fakeUserRepo{err: errors.New("User not found")},
	)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, "uuid-7", 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
