package handler_test

import (
	"net/http"

	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/testutil"
)

func (s *APITestSuite) TestRegister_Success() {
	w, resp := s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username":  "newuser",
		"email":     "newuser@example.com",
		"password":  "SecurePass123",
		"role":      "freelancer",
		"firstName": "New",
	}, "")

	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal(true, resp["success"])
	s.Equal("User registered successfully", resp["message"])

	user := data(resp)
	s.Equal("newuser", user["username"])
	s.Equal("New", user["firstName"])
	s.NotContains(user, "password")
	s.NotContains(user, "passwordHash")
	s.NotContains(w.Body.String(), "SecurePass123")

	role, _ := user["role"].(map[string]any)
	s.Equal("freelancer", role["name"])
}

func (s *APITestSuite) TestRegister_DuplicateEmail() {
	testutil.CreateUser(s.T(), s.testDB.DB, "taken", models.RoleClient)

	w, resp := s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "different",
		"email":    "taken@example.com",
		"password": "SecurePass123",
		"role":     "client",
	}, "")

	s.Equal(http.StatusConflict, w.Code)
	s.Equal(false, resp["success"])
	s.Equal("User with this email already exists", resp["message"])
}

func (s *APITestSuite) TestRegister_DuplicateUsername() {
	testutil.CreateUser(s.T(), s.testDB.DB, "taken", models.RoleClient)

	w, resp := s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "taken",
		"email":    "fresh@example.com",
		"password": "SecurePass123",
		"role":     "client",
	}, "")

	s.Equal(http.StatusConflict, w.Code)
	s.Equal("User with this username already exists", resp["message"])
}

func (s *APITestSuite) TestRegister_InvalidInput() {
	testCases := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"short username", map[string]string{"username": "ab", "email": "a@example.com", "password": "secret1", "role": "client"}, "username"},
		{"bad email", map[string]string{"username": "abc", "email": "nope", "password": "secret1", "role": "client"}, "email"},
		{"short password", map[string]string{"username": "abc", "email": "a@example.com", "password": "12345", "role": "client"}, "password"},
		{"admin role", map[string]string{"username": "abc", "email": "a@example.com", "password": "secret1", "role": "admin"}, "role"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			w, resp := s.do(http.MethodPost, "/api/auth/register", tc.body, "")

			s.Equal(http.StatusBadRequest, w.Code)
			s.Equal("Validation failed", resp["message"])
			details, _ := resp["details"].([]any)
			s.Require().NotEmpty(details)
			s.Equal(tc.field, details[0].(map[string]any)["field"])
		})
	}
}

func (s *APITestSuite) TestLogin_Success() {
	testutil.CreateUser(s.T(), s.testDB.DB, "john", models.RoleClient)

	w, resp := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"emailOrUsername": "john@example.com",
		"password":        testutil.DefaultPassword,
	}, "")

	s.Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(true, resp["success"])

	d := data(resp)
	s.Equal("john", d["username"])
	s.NotEmpty(d["accessToken"])
	s.Equal(float64(900), d["expiresIn"])
	s.NotContains(d, "refreshToken")

	cookie := refreshCookie(w)
	s.Require().NotNil(cookie)
	s.NotEmpty(cookie.Value)
	s.True(cookie.HttpOnly)
	s.Equal(http.SameSiteLaxMode, cookie.SameSite)
	s.Equal(7*24*3600, cookie.MaxAge)
}

func (s *APITestSuite) TestLogin_WrongPassword() {
	testutil.CreateUser(s.T(), s.testDB.DB, "john", models.RoleClient)

	w, resp := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"emailOrUsername": "john",
		"password":        "wrong-password",
	}, "")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(false, resp["success"])
	s.Equal("Invalid credentials", resp["message"])
	s.Nil(refreshCookie(w))
}

func (s *APITestSuite) TestLogin_UnknownUserSameMessage() {
	w, resp := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"emailOrUsername": "ghost",
		"password":        "whatever",
	}, "")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid credentials", resp["message"])
}

func (s *APITestSuite) TestRefreshToken_SingleUse() {
	testutil.CreateUser(s.T(), s.testDB.DB, "john", models.RoleClient)
	w, _ := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"emailOrUsername": "john",
		"password":        testutil.DefaultPassword,
	}, "")
	original := refreshCookie(w)
	s.Require().NotNil(original)

	w, resp := s.do(http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": original.Value}, "")
	s.Equal(http.StatusOK, w.Code, w.Body.String())
	s.NotEmpty(data(resp)["accessToken"])
	s.Equal(float64(900), data(resp)["expiresIn"])

	rotated := refreshCookie(w)
	s.Require().NotNil(rotated)
	s.NotEqual(original.Value, rotated.Value)

	// The presented token was consumed
	w, resp = s.do(http.MethodPost, "/api/auth/refresh-token", map[string]string{"refreshToken": original.Value}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(false, resp["success"])

	// The rotated one still works, read from the cookie this time
	w, _ = s.do(http.MethodPost, "/api/auth/refresh-token", nil, "", rotated)
	s.Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *APITestSuite) TestRefreshToken_Missing() {
	w, resp := s.do(http.MethodPost, "/api/auth/refresh-token", nil, "")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Refresh token required", resp["message"])
}

func (s *APITestSuite) TestLogout_ClearsCookieAndRevokes() {
	testutil.CreateUser(s.T(), s.testDB.DB, "john", models.RoleClient)
	w, _ := s.do(http.MethodPost, "/api/auth/login", map[string]string{
		"emailOrUsername": "john",
		"password":        testutil.DefaultPassword,
	}, "")
	cookie := refreshCookie(w)
	s.Require().NotNil(cookie)

	w, resp := s.do(http.MethodPost, "/api/auth/logout", nil, "", cookie)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("Logout successful", resp["message"])

	cleared := refreshCookie(w)
	s.Require().NotNil(cleared)
	s.Empty(cleared.Value)
	s.Less(cleared.MaxAge, 0)

	w, _ = s.do(http.MethodPost, "/api/auth/refresh-token", nil, "", cookie)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestLogoutAll_RevokesEverySession() {
	john := testutil.CreateUser(s.T(), s.testDB.DB, "john", models.RoleClient)
	token := s.login(john)
	s.login(john)

	w, resp := s.do(http.MethodPost, "/api/auth/logout-all", nil, token)

	s.Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(float64(2), data(resp)["revoked"])
}

func (s *APITestSuite) TestProtectedRoute_RequiresToken() {
	w, resp := s.do(http.MethodGet, "/api/users/me", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Authorization header required", resp["message"])

	w, resp = s.do(http.MethodGet, "/api/users/me", nil, "garbage")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid token", resp["message"])
}
