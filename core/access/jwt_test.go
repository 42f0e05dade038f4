package access

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-do-not-use")

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := NewToken(testSecret, userID, "jane@example.com", RoleAdmin, time.Hour)
	require.NoError(t, err)

	auth, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, userID, auth.UserID)
	assert.Equal(t, "jane@example.com", auth.Email)
	assert.True(t, auth.HasRole(RoleAdmin))
	assert.False(t, auth.HasRole(RoleStaff))
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewToken(testSecret, uuid.New(), "jane@example.com", RoleStaff, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken([]byte("other-secret"), token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	token, err := NewToken(testSecret, uuid.New(), "jane@example.com", RoleStaff, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestJwtMiddleware(t *testing.T) {
	router := mux.NewRouter()
	router.Use(NewJwtMiddleware(testSecret))

	var got *Authorization
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		got = AuthorizationFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// no token passes through without authorization
	got = nil
	r := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, got)

	// garbage token is rejected before the handler runs
	got = nil
	r = httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, got)

	// valid token yields an authorization in the handler's context
	userID := uuid.New()
	token, err := NewToken(testSecret, userID, "jane@example.com", RoleStaff, time.Hour)
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "jane@example.com", got.Identity())
}

func TestIdentity(t *testing.T) {
	var auth *Authorization
	assert.Equal(t, "", auth.Identity())
	auth = &Authorization{Email: "jane@example.com"}
	assert.Equal(t, "jane@example.com", auth.Identity())
}
