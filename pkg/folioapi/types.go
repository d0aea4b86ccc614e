package folioapi

// Record is a decoded JSON value as returned by the backend: a map, slice,
// string, json.Number, bool or nil. The client never inspects its schema.
type Record = any

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by /auth/login and /auth/refresh.
type TokenResponse struct {
	Message      string `json:"message,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// User identifies the account behind an access token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// userResponse is the envelope of GET /auth/user.
type userResponse struct {
	User User `json:"user"`
}

// refreshRequest is the body of POST /auth/refresh.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
