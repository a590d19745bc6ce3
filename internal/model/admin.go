package model

// Admin is an administrator account that can sign in to the management UI.
// Accounts are provisioned out-of-band (see `useradmin admin create`) and are
// never modified by request handling. Passwords are stored as bcrypt hashes.
type Admin struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"` // bcrypt hash, never expose
}
