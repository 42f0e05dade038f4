package test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

type AuthTestSuite struct {
	IntegrationTestSuite
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, &AuthTestSuite{})
}

func (s *AuthTestSuite) TestSignupAndLogin() {
	var signup struct {
		Token string `json:"token"`
		User  struct {
			UserID string `json:"user_id"`
			Email  string `json:"email"`
			Role   string `json:"role"`
		} `json:"user"`
	}
	status := s.doRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Jane Doe",
		"email":    "jane.doe@example.com",
		"password": "correct horse",
	}, &signup)
	s.Require().Equal(http.StatusCreated, status)
	s.NotEmpty(signup.Token)
	s.NotEmpty(signup.User.UserID)
	s.Equal("jane.doe@example.com", signup.User.Email)
	// roles other than admin fall back to staff
	s.Equal("staff", signup.User.Role)

	// the email is taken now
	status = s.doRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Jane Again",
		"email":    "jane.doe@example.com",
		"password": "correct horse",
	}, nil)
	s.Equal(http.StatusConflict, status)

	var login struct {
		Token string `json:"token"`
	}
	status = s.doRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "jane.doe@example.com",
		"password": "correct horse",
	}, &login)
	s.Require().Equal(http.StatusOK, status)
	s.NotEmpty(login.Token)

	status = s.doRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "jane.doe@example.com",
		"password": "wrong horse",
	}, nil)
	s.Equal(http.StatusUnauthorized, status)

	status = s.doRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "correct horse",
	}, nil)
	s.Equal(http.StatusUnauthorized, status)
}

func (s *AuthTestSuite) TestSignupValidation() {
	var response struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	status := s.doRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "X",
		"email":    "not-an-email",
		"password": "123456",
	}, &response)
	s.Require().Equal(http.StatusBadRequest, status)

	fields := map[string]bool{}
	for _, fieldError := range response.Errors {
		fields[fieldError.Field] = true
	}
	s.True(fields["name"])
	s.True(fields["email"])
	s.True(fields["password"], "deny-listed password must be rejected")
}

func (s *AuthTestSuite) TestRoutesRequireToken() {
	for _, path := range []string{
		"/api/categories", "/api/products", "/api/orders", "/api/users",
		"/api/analytics", "/api/dashboard/stats",
	} {
		status := s.doRequest(http.MethodGet, path, "", nil, nil)
		s.Equal(http.StatusUnauthorized, status, path)
	}

	// a garbage token is rejected by the middleware
	status := s.doRequest(http.MethodGet, "/api/categories", "garbage", nil, nil)
	s.Equal(http.StatusUnauthorized, status)

	status = s.doRequest(http.MethodGet, "/api/categories", s.token, nil, nil)
	s.Equal(http.StatusOK, status)
}

func (s *AuthTestSuite) TestUserManagement() {
	var signup struct {
		User struct {
			UserID string `json:"user_id"`
		} `json:"user"`
	}
	status := s.doRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Temp Staff",
		"email":    "temp.staff@example.com",
		"password": "temporary",
	}, &signup)
	s.Require().Equal(http.StatusCreated, status)
	userID := signup.User.UserID

	var users []map[string]interface{}
	status = s.doRequest(http.MethodGet, "/api/users", s.token, nil, &users)
	s.Require().Equal(http.StatusOK, status)
	s.Require().NotEmpty(users)
	for _, user := range users {
		_, hasPassword := user["password"]
		s.False(hasPassword, "password must never be serialized")
	}

	var updated struct {
		Role string `json:"role"`
	}
	status = s.doRequest(http.MethodPut, "/api/users/"+userID, s.token,
		map[string]string{"role": "admin"}, &updated)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("admin", updated.Role)

	status = s.doRequest(http.MethodPut, "/api/users/"+userID, s.token,
		map[string]string{"role": "superuser"}, nil)
	s.Equal(http.StatusBadRequest, status)

	status = s.doRequest(http.MethodDelete, "/api/users/"+userID, s.token, nil, nil)
	s.Equal(http.StatusOK, status)

	status = s.doRequest(http.MethodGet, "/api/users/"+userID, s.token, nil, nil)
	s.Equal(http.StatusNotFound, status)
}
