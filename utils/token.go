package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type JwtCustomClaim struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CompanyId int    `json:"company_id"`
	jwt.StandardClaims
}

const devJwtSecret = "BankRecon-Secret"

// CheckJwtSecret fails in production (GO_ENV=production) when API_SECRET is unset,
// since tokens would otherwise be checked against the built-in dev secret.
func CheckJwtSecret() error {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") && os.Getenv("API_SECRET") == "" {
		return errors.New("API_SECRET must be set in production")
	}
	return nil
}

func getJwtSecret() []byte {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return []byte(devJwtSecret)
	}
	return []byte(secret)
}

func JwtGenerate(userID int, name string, companyID int) (string, error) {
	tokenLifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil {
		return "", err
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:        userID,
		Name:      name,
		CompanyId: companyID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour * time.Duration(tokenLifespan)).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	return t.SignedString(getJwtSecret())
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return getJwtSecret(), nil
	})
}
