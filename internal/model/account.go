package model

// Account represents a registered user record as stored in the
// `accounts` table. Each field corresponds to a column in the
// database. The raw password is never stored; only the hex digest
// produced by the Credential model ends up in PasswordHash.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Email        – unique email address (matched case-sensitively).
//  PasswordHash – SHA-256 hex digest of the password.
//  IsAdmin      – whether the account has admin privileges.
type Account struct {
	ID           uint64 // accounts.id
	Email        string // accounts.email
	PasswordHash string // accounts.password_hash
	IsAdmin      bool   // accounts.is_admin
}
