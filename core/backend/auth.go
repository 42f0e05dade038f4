// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/relabs-tech/shopadmin/core/access"
	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/validate"
)

func (b *Backend) handleAuthRoutes(router *mux.Router, tokenValidity time.Duration) {
	router.HandleFunc("/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		b.signupWithoutAuth(w, r, tokenValidity)
	}).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.loginWithoutAuth(w, r, tokenValidity)
	}).Methods(http.MethodPost)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (b *Backend) signupWithoutAuth(w http.ResponseWriter, r *http.Request, tokenValidity time.Duration) {
	rlog := logger.FromContext(r.Context())

	var request signupRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json data")
		return
	}

	if errors := validate.Registration(validate.RegistrationInput{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
	}); len(errors) > 0 {
		writeValidationErrors(w, errors)
		return
	}

	role := request.Role
	if role != access.RoleAdmin {
		role = access.RoleStaff
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4101: cannot hash password")
		writeError(w, http.StatusInternalServerError, "Error 4101")
		return
	}

	user := User{
		Name:  strings.TrimSpace(request.Name),
		Email: strings.ToLower(strings.TrimSpace(request.Email)),
		Role:  role,
	}
	err = b.db.QueryRow(`INSERT INTO `+b.db.Schema+`."user" (name, email, password, role)
VALUES ($1, $2, $3, $4)
RETURNING user_id, created_at;`,
		user.Name, user.Email, string(hash), user.Role,
	).Scan(&user.UserID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "user already exists")
			return
		}
		rlog.WithError(err).Errorln("Error 4102: cannot create user")
		writeError(w, http.StatusInternalServerError, "Error 4102")
		return
	}

	token, err := access.NewToken(b.jwtSecret, user.UserID, user.Email, user.Role, tokenValidity)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4103: cannot mint token")
		writeError(w, http.StatusInternalServerError, "Error 4103")
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

func (b *Backend) loginWithoutAuth(w http.ResponseWriter, r *http.Request, tokenValidity time.Duration) {
	rlog := logger.FromContext(r.Context())

	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json data")
		return
	}

	if errors := validate.Login(validate.LoginInput{
		Email:    request.Email,
		Password: request.Password,
	}); len(errors) > 0 {
		writeValidationErrors(w, errors)
		return
	}

	var user User
	var userID uuid.UUID
	var hash string
	err := b.db.QueryRow(`SELECT user_id, name, email, password, role, created_at
FROM `+b.db.Schema+`."user" WHERE email = $1;`,
		strings.ToLower(strings.TrimSpace(request.Email)),
	).Scan(&userID, &user.Name, &user.Email, &hash, &user.Role, &user.CreatedAt)
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(request.Password))
	}
	if err != nil {
		// same response for unknown email and wrong password
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	user.UserID = userID

	token, err := access.NewToken(b.jwtSecret, user.UserID, user.Email, user.Role, tokenValidity)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4104: cannot mint token")
		writeError(w, http.StatusInternalServerError, "Error 4104")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}
