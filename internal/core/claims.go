package core

import "github.com/golang-jwt/jwt/v4"

// AdminClaims 管理後台 Bearer token
type AdminClaims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}
