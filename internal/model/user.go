package model

// User is the staff profile returned by the backend's login and identity-check
// endpoints. Only Name is guaranteed; the rest depend on the backend version.
type User struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// DisplayName is what the page greets the user with.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Session is the optional (bearer token, user) pair of a logged-in visitor.
//
// The zero value is the logged-out state. A session is created on a
// successful login or identity check and destroyed on logout or on a failed
// identity check; it is the sole gate for showing registration controls.
type Session struct {
	Token string
	User  *User
}

// Active reports whether the session carries a token and a user.
func (s Session) Active() bool {
	return s.Token != "" && s.User != nil
}

// LoginResult is the success body of POST /auth/login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}
