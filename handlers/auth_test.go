package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogspace.com/blogspace-server/services"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterMissingFields(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tokens := services.NewTokenService("test-secret")

	for _, body := range []string{
		`{}`,
		`{"username":"alice"}`,
		`{"username":"alice","name":"Alice"}`,
		`{"username":"al","name":"Alice","password":"secret1"}`,
	} {
		req := httptest.NewRequest("POST", "/users/register", strings.NewReader(body))
		rec := httptest.NewRecorder()
		Register(db, tokens)(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	tokens := services.NewTokenService("test-secret")
	req := httptest.NewRequest("POST", "/users/register",
		strings.NewReader(`{"username":"alice","name":"Alice","password":"secret1"}`))
	rec := httptest.NewRecorder()
	Register(db, tokens)(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already exists")
}

func TestRegisterReturnsToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "created_at"}).
			AddRow(1, "alice", "Alice A", time.Now()))

	tokens := services.NewTokenService("test-secret")
	req := httptest.NewRequest("POST", "/users/register",
		strings.NewReader(`{"username":"alice","name":"Alice A","password":"secret1"}`))
	rec := httptest.NewRecorder()
	Register(db, tokens)(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.Username)

	userID, err := tokens.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, userID)
}

func TestLoginUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, username, name, password_hash").WithArgs("ghost").
		WillReturnError(errNoRows())

	tokens := services.NewTokenService("test-secret")
	req := httptest.NewRequest("POST", "/users/login",
		strings.NewReader(`{"username":"ghost","password":"whatever"}`))
	rec := httptest.NewRecorder()
	Login(db, tokens)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password")
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, username, name, password_hash").WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "username", "name", "password_hash", "created_at"}).
			AddRow(1, "alice", "Alice A", string(hash), time.Now()))

	tokens := services.NewTokenService("test-secret")
	req := httptest.NewRequest("POST", "/users/login",
		strings.NewReader(`{"username":"alice","password":"wrong"}`))
	rec := httptest.NewRecorder()
	Login(db, tokens)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, username, name, password_hash").WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "username", "name", "password_hash", "created_at"}).
			AddRow(1, "alice", "Alice A", string(hash), time.Now()))

	tokens := services.NewTokenService("test-secret")
	req := httptest.NewRequest("POST", "/users/login",
		strings.NewReader(`{"username":"alice","password":"secret1"}`))
	rec := httptest.NewRecorder()
	Login(db, tokens)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	userID, err := tokens.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, userID)

	// Hash must never appear in the response.
	assert.NotContains(t, rec.Body.String(), string(hash))
}
