package jwttoken

import (
	authmw "docverify/pkg/platform/middleware/auth"
)

// ServiceTokenValidator exposes JWTService to the auth middleware. Scope
// failures keep their CodeForbidden so the middleware answers 403.
type ServiceTokenValidator struct {
	jwt *JWTService
}

func NewServiceTokenValidator(jwt *JWTService) *ServiceTokenValidator {
	return &ServiceTokenValidator{jwt: jwt}
}

func (v *ServiceTokenValidator) ValidateServiceToken(token string) (*authmw.ServiceClaims, error) {
	claims, err := v.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &authmw.ServiceClaims{
		Subject: claims.Subject,
		JTI:     claims.ID,
		Scope:   claims.Scope,
	}, nil
}
