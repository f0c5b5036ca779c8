package domain

import (
	"github.com/golang-jwt/jwt"

	"github.com/x-xyz/nftmarket/base/ctx"
)

type JwtCustomClaims struct {
	Address string `json:"data"`
	jwt.StandardClaims
}

type AuthUsecase interface {
	// GenerateNonce issues a one-time nonce that address has to sign to get a token
	GenerateNonce(c ctx.Ctx, address Address) (string, error)
	// SigningMessage returns the message a wallet signs for the nonce
	SigningMessage(nonce string) string
	// SignIn validates signature over the pending nonce of address and returns a token
	SignIn(c ctx.Ctx, address Address, signature string) (string, error)
	SignToken(c ctx.Ctx, address Address) (string, error)
	ParseToken(c ctx.Ctx, token string) (Address, error)
}
