package authapi

// TokenSet is the triple returned by every successful token exchange.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// User is the profile snapshot served by the identity endpoint. It is
// fetched separately from token issuance and may be stale until re-fetched.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	IsStaff   bool   `json:"is_staff,omitempty"`
}

// Credentials identifies this application to the token service. Password
// grant and social conversion may use different client credentials, so they
// are passed per exchange rather than baked into the client.
type Credentials struct {
	ClientID     string
	ClientSecret string
}
