package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/racedaylabs/racelink/internal/models"
	"github.com/racedaylabs/racelink/internal/output"
)

// RegistrationService creates race registrations.
type RegistrationService struct {
	client *Client
}

// RegistrationRequest is the payload for a new registration. Identity fields
// are validated locally before any network call; a request that the service
// is guaranteed to reject never leaves the process.
type RegistrationRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	DOB       string `json:"dob,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

var requestValidator = validator.New()

// Validate checks the request's identity fields.
func (r *RegistrationRequest) Validate() error {
	err := requestValidator.Struct(r)
	if err == nil {
		return nil
	}
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		first := validationErrors[0]
		field := strings.ToLower(first.Field())
		switch first.Tag() {
		case "required":
			return output.ErrValidation(fmt.Sprintf("%s is required", wireFieldName(field)))
		case "email":
			return output.ErrValidation("invalid email format")
		default:
			return output.ErrValidation(fmt.Sprintf("invalid %s", wireFieldName(field)))
		}
	}
	return output.ErrValidation("invalid registration request")
}

func wireFieldName(field string) string {
	switch field {
	case "firstname":
		return "first_name"
	case "lastname":
		return "last_name"
	default:
		return field
	}
}

// Register creates a registration for the given race and event.
func (s *RegistrationService) Register(ctx context.Context, raceID, eventID int64, req *RegistrationRequest) (*models.Registration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := struct {
		*RegistrationRequest
		EventID int64 `json:"event_id"`
	}{req, eventID}

	resp, err := s.client.Post(ctx, fmt.Sprintf("/race/%d/participant", raceID), nil, body)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Registration models.Registration `json:"registration"`
	}
	if err := resp.UnmarshalData(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse registration: %w", err)
	}
	if wire.Registration.RaceID == 0 {
		wire.Registration.RaceID = raceID
	}
	if wire.Registration.EventID == 0 {
		wire.Registration.EventID = eventID
	}
	return &wire.Registration, nil
}
