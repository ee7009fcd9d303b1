package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	internal_errors "github.com/kep-app/kep/internal/errors"
	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/logger"
)

type JwtService interface {
	NewToken(sess domain.Session) (string, error)
	DecodeToken(jwtStr string) (domain.Session, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(sess domain.Session) (string, error) {
	claims := jwt.MapClaims{}
	claims["sid"] = sess.Id
	claims["pubkey"] = sess.Pubkey
	claims["readonly"] = sess.ReadOnly
	claims["created_at"] = sess.CreatedAt.Unix()
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("signing session token", "error", err)
		return "", errors.New("can't create token")
	}

	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (domain.Session, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		// Verify signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]), StatusCode: http.StatusUnauthorized}
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return domain.Session{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}
	if !token.Valid {
		return domain.Session{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Session{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}

	sid, ok := claims["sid"].(string)
	if !ok {
		return domain.Session{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}
	pubkey, ok := claims["pubkey"].(string)
	if !ok {
		return domain.Session{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}
	}
	readonly, _ := claims["readonly"].(bool)
	createdAt, _ := claims["created_at"].(float64)

	return domain.Session{
		Id:        sid,
		Pubkey:    pubkey,
		ReadOnly:  readonly,
		CreatedAt: time.Unix(int64(createdAt), 0),
	}, nil
}
