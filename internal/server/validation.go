package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"studyhall/internal/flashcards"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage renders the first failed rule for the caller.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

type generateRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
	Count      int    `json:"count" validate:"omitempty,min=1,max=50"`
}

type documentRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
}

type chatRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
	Question   string `json:"question" validate:"required,max=2000"`
}

type reviewRequest struct {
	CardIndex *int `json:"cardIndex" validate:"omitempty,min=0"`
}

type quizRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
	Count      int    `json:"count" validate:"omitempty,min=1,max=20"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard Easy Medium Hard"`
}

type explainRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
	Concept    string `json:"concept" validate:"required,max=500"`
}

type submitQuizRequest struct {
	Answers []flashcards.QuizAnswer `json:"answers" validate:"required,min=1,dive"`
}

type updateDocumentRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}
