package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/x-xyz/nftmarket/base/ctx"
	"github.com/x-xyz/nftmarket/base/ethereum"
	"github.com/x-xyz/nftmarket/base/log"
	"github.com/x-xyz/nftmarket/domain"
	"github.com/x-xyz/nftmarket/service/cache"
)

const tokenTTL = 24 * time.Hour

var timeNow = time.Now

type impl struct {
	jwtSecret          []byte
	signingMsgTemplate string
	// nonces are keyed by lower case address and expire with the cache ttl
	nonces cache.Service
}

// New creates the auth usecase, template must contain one %s replaced by the nonce
func New(jwtSecret, signingMsgTemplate string, nonces cache.Service) domain.AuthUsecase {
	return &impl{
		jwtSecret:          []byte(jwtSecret),
		signingMsgTemplate: signingMsgTemplate,
		nonces:             nonces,
	}
}

func (im *impl) GenerateNonce(c ctx.Ctx, address domain.Address) (string, error) {
	nonce := uuid.NewString()
	if err := im.nonces.Set(c, address.ToLowerStr(), nonce); err != nil {
		c.WithFields(log.Fields{
			"address": address,
			"err":     err,
		}).Error("nonces.Set failed")
		return "", err
	}
	return nonce, nil
}

func (im *impl) SigningMessage(nonce string) string {
	return fmt.Sprintf(im.signingMsgTemplate, nonce)
}

func (im *impl) SignIn(c ctx.Ctx, address domain.Address, signature string) (string, error) {
	var nonce string
	if err := im.nonces.Get(c, address.ToLowerStr(), &nonce); err == cache.ErrNotFound {
		return "", domain.ErrInvalidNonce
	} else if err != nil {
		return "", err
	}

	ok, err := ethereum.ValidateMsgSignature([]byte(im.SigningMessage(nonce)), signature, string(address))
	if err != nil || !ok {
		c.WithFields(log.Fields{
			"address": address,
			"err":     err,
		}).Info("invalid signature")
		return "", domain.ErrInvalidSignature
	}

	// a nonce signs in once
	if err := im.nonces.Del(c, address.ToLowerStr()); err != nil {
		return "", err
	}
	return im.SignToken(c, address)
}

func (im *impl) SignToken(c ctx.Ctx, address domain.Address) (string, error) {
	claims := domain.JwtCustomClaims{
		Address: address.ToLowerStr(),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: timeNow().Add(tokenTTL).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(im.jwtSecret)
	if err != nil {
		c.WithField("err", err).Error("token.SignedString failed")
		return "", err
	}
	return ss, nil
}

func (im *impl) ParseToken(c ctx.Ctx, str string) (domain.Address, error) {
	token, err := jwt.ParseWithClaims(str, &domain.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return im.jwtSecret, nil
	})
	if err != nil {
		return "", domain.NewError(domain.ErrUnauthorized, err.Error())
	}

	if claims, ok := token.Claims.(*domain.JwtCustomClaims); ok && token.Valid {
		return domain.Address(claims.Address), nil
	}
	return "", domain.NewError(domain.ErrUnauthorized, "invalid token")
}
