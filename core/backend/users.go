// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/shopadmin/core/access"
	"github.com/relabs-tech/shopadmin/core/csql"
	"github.com/relabs-tech/shopadmin/core/events"
	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/validate"
)

func (b *Backend) handleUserRoutes(router *mux.Router) {
	router.HandleFunc("/users", b.userListWithAuth).Methods(http.MethodGet)
	router.HandleFunc("/users/{user_id}", b.userReadWithAuth).Methods(http.MethodGet)
	router.HandleFunc("/users/{user_id}", b.userUpdateWithAuth).Methods(http.MethodPut)
	router.HandleFunc("/users/{user_id}", b.userDeleteWithAuth).Methods(http.MethodDelete)
}

func (b *Backend) userListWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	rows, err := b.db.Query(`SELECT user_id, name, email, role, created_at
FROM ` + b.db.Schema + `."user" ORDER BY created_at DESC;`)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4501: cannot query users")
		writeError(w, http.StatusInternalServerError, "Error 4501")
		return
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.UserID, &user.Name, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			rlog.WithError(err).Errorln("Error 4502: cannot scan user")
			writeError(w, http.StatusInternalServerError, "Error 4502")
			return
		}
		users = append(users, user)
	}
	writeJSON(w, http.StatusOK, users)
}

func (b *Backend) userReadWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	userID, err := uuid.Parse(mux.Vars(r)["user_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var user User
	err = b.db.QueryRow(`SELECT user_id, name, email, role, created_at
FROM `+b.db.Schema+`."user" WHERE user_id = $1;`, userID,
	).Scan(&user.UserID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
	if err == csql.ErrNoRows {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		rlog.WithError(err).Errorln("Error 4503: cannot read user")
		writeError(w, http.StatusInternalServerError, "Error 4503")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// userUpdateWithAuth updates the role of a user. No other field can be
// changed through this route.
func (b *Backend) userUpdateWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	userID, err := uuid.Parse(mux.Vars(r)["user_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var request struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json data")
		return
	}
	if request.Role != access.RoleAdmin && request.Role != access.RoleStaff {
		writeValidationErrors(w, []validate.FieldError{
			{Field: "role", Message: "role must be one of: admin, staff"},
		})
		return
	}

	var user User
	err = b.db.QueryRow(`UPDATE `+b.db.Schema+`."user" SET role = $1 WHERE user_id = $2
RETURNING user_id, name, email, role, created_at;`,
		request.Role, userID,
	).Scan(&user.UserID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
	if err == csql.ErrNoRows {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		rlog.WithError(err).Errorln("Error 4504: cannot update user")
		writeError(w, http.StatusInternalServerError, "Error 4504")
		return
	}

	b.notify(r, "user", events.OperationUpdate, userID)
	writeJSON(w, http.StatusOK, user)
}

func (b *Backend) userDeleteWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	userID, err := uuid.Parse(mux.Vars(r)["user_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	result, err := b.db.Exec(`DELETE FROM `+b.db.Schema+`."user" WHERE user_id = $1;`, userID)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4505: cannot delete user")
		writeError(w, http.StatusInternalServerError, "Error 4505")
		return
	}
	if count, _ := result.RowsAffected(); count == 0 {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	b.notify(r, "user", events.OperationDelete, userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
