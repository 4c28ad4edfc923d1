package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SundayYogurt/rote_service/internal/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs the struct's `validate` tags and returns a validation AppError naming
// the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			return apperror.Validation(fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
		return apperror.Validation(fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return apperror.Wrap(apperror.KindValidation, "invalid input", err)
}

// ParseUUID validates an id coming from a path or body.
func ParseUUID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperror.Validation(fmt.Sprintf("invalid %s: must be a UUID", name))
	}
	return id, nil
}

func ParseUUIDs(name string, raws []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raws))
	seen := make(map[uuid.UUID]bool, len(raws))
	for _, raw := range raws {
		id, err := ParseUUID(name, raw)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, apperror.Validation(fmt.Sprintf("duplicate %s %s", name, id))
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
