package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"skylark/opscommand/internal/constants"
)

// UserClaims is what handlers know about the caller
type UserClaims interface {
	UserID() string
	Role() string
	Source() string
	CanWrite() bool
}

// StaffClaims are carried in a signed staff access token
type StaffClaims struct {
	RoleValue constants.StaffRole `json:"role"`
	jwt.RegisteredClaims
}

func (c *StaffClaims) UserID() string { return c.Subject }
func (c *StaffClaims) Role() string   { return c.RoleValue.String() }
func (c *StaffClaims) Source() string { return "JWT" }
func (c *StaffClaims) CanWrite() bool { return c.RoleValue.CanWrite() }

// LocalClaims identify callers when authentication is disabled (local use, CLI)
type LocalClaims struct {
	Name string
}

func (c *LocalClaims) UserID() string { return c.Name }
func (c *LocalClaims) Role() string   { return constants.RoleAdmin.String() }
func (c *LocalClaims) Source() string { return "LOCAL" }
func (c *LocalClaims) CanWrite() bool { return true }
