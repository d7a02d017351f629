package lifecycle

import (
	"github.com/hotwellkz/course-api/internal/domain"
	"github.com/hotwellkz/course-api/internal/infrastructure/identity"
)

// codeToDomain is the complete translation table from credential-store
// codes into the domain taxonomy. Classification is by this finite map
// only; a code missing here falls through to ErrUnknown.
var codeToDomain = map[identity.Code]error{
	identity.CodeEmailAlreadyInUse:  domain.ErrEmailAlreadyInUse,
	identity.CodeInvalidEmail:       domain.ErrInvalidEmail,
	identity.CodeWeakPassword:       domain.ErrWeakPassword,
	identity.CodeInvalidCredentials: domain.ErrInvalidCredentials,
	identity.CodeAccountNotFound:    domain.ErrNotFound,
}

func mapIdentityErr(err error) error {
	if err == nil {
		return nil
	}
	if mapped, ok := codeToDomain[identity.CodeOf(err)]; ok {
		return mapped
	}
	return domain.ErrUnknown
}
