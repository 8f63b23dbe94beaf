package session

import (
	"errors"
	"fmt"
)

// Терминальные классы ошибок проверки. Любая ошибка Verify сводится к одному из них.
var (
	ErrInvalidSession = errors.New("session invalid")
	ErrSessionExpired = errors.New("session expired")
)

// Уточнения ErrInvalidSession.
var (
	ErrMalformedToken   = fmt.Errorf("%w: malformed token", ErrInvalidSession)
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidSession)
	ErrMissingClaims    = fmt.Errorf("%w: missing claims", ErrInvalidSession)
)

// Outcome — итог проверки токена для вызывающей стороны.
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeInvalid
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// OutcomeOf сводит ошибку Verify к одному из трёх исходов.
// Неизвестные ошибки считаются недействительной сессией.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeValid
	case errors.Is(err, ErrSessionExpired):
		return OutcomeExpired
	default:
		return OutcomeInvalid
	}
}
