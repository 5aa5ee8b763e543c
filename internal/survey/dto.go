package survey

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/core/common/validation"
	"github.com/frahmantamala/datascope/internal/lead"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxQuestions         = 50
	maxOptions           = 20
	maxLabelLength       = 300
	maxOptionLength      = 100
	maxTextAnswerLength  = 2000
)

type CreateSurveyDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

func (dto *CreateSurveyDTO) Normalize() {
	dto.Title = strings.TrimSpace(dto.Title)
	dto.Description = strings.TrimSpace(dto.Description)
	for i := range dto.Questions {
		q := &dto.Questions[i]
		q.ID = strings.TrimSpace(q.ID)
		q.Label = strings.TrimSpace(q.Label)
		q.Kind = strings.ToLower(strings.TrimSpace(q.Kind))
		if !q.IsChoice() {
			q.Options = nil
			continue
		}
		for j := range q.Options {
			q.Options[j] = strings.TrimSpace(q.Options[j])
		}
	}
}

func (dto CreateSurveyDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MaxLength(maxTitleLength)
	v.Field("description", dto.Description).MaxLength(maxDescriptionLength)
	v.Field("questions", dto.Questions).Custom(func(interface{}) *internal.AppError {
		if len(dto.Questions) == 0 {
			return internal.NewValidationFieldError("questions", "at least one question is required", internal.ErrCodeValidationFailed)
		}
		if len(dto.Questions) > maxQuestions {
			return internal.NewValidationFieldError("questions", fmt.Sprintf("questions must not contain more than %d items", maxQuestions), internal.ErrCodeValidationFailed)
		}
		return nil
	})

	seen := make(map[string]bool, len(dto.Questions))
	for i, q := range dto.Questions {
		q := q
		field := fmt.Sprintf("questions[%d]", i)
		v.Field(field, q).Custom(func(interface{}) *internal.AppError {
			return validateQuestion(field, q, seen)
		})
	}
	return v.Validate()
}

func validateQuestion(field string, q Question, seen map[string]bool) *internal.AppError {
	fail := func(msg string) *internal.AppError {
		return internal.NewValidationFieldError(field, msg, internal.ErrCodeValidationFailed)
	}
	switch {
	case q.ID == "":
		return fail("id is required")
	case seen[q.ID]:
		return fail("duplicate question id " + q.ID)
	case q.Label == "":
		return fail("label is required")
	case utf8.RuneCountInString(q.Label) > maxLabelLength:
		return fail(fmt.Sprintf("label must not exceed %d characters", maxLabelLength))
	case !containsString(Kinds, q.Kind):
		return fail("kind must be one of: " + strings.Join(Kinds, ", "))
	}
	seen[q.ID] = true

	if !q.IsChoice() {
		return nil
	}
	if len(q.Options) < 2 {
		return fail("choice questions need at least two options")
	}
	if len(q.Options) > maxOptions {
		return fail(fmt.Sprintf("options must not contain more than %d items", maxOptions))
	}
	options := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt == "" || utf8.RuneCountInString(opt) > maxOptionLength {
			return fail(fmt.Sprintf("options must be non-empty and at most %d characters", maxOptionLength))
		}
		if options[opt] {
			return fail("duplicate option " + opt)
		}
		options[opt] = true
	}
	return nil
}

// SubmitDTO is an anonymous survey submission; the contact fields identify the lead.
type SubmitDTO struct {
	Name    string              `json:"name"`
	Email   string              `json:"email"`
	Phone   string              `json:"phone"`
	Company string              `json:"company"`
	Answers map[string][]string `json:"answers"`
}

func (dto SubmitDTO) Lead() lead.CreateLeadDTO {
	return lead.CreateLeadDTO{
		Name:    dto.Name,
		Email:   dto.Email,
		Phone:   dto.Phone,
		Company: dto.Company,
	}
}

// NormalizeAnswers trims every value and drops blanks.
func NormalizeAnswers(answers map[string][]string) map[string][]string {
	out := make(map[string][]string, len(answers))
	for id, values := range answers {
		id = strings.TrimSpace(id)
		kept := make([]string, 0, len(values))
		for _, value := range values {
			if value = strings.TrimSpace(value); value != "" {
				kept = append(kept, value)
			}
		}
		if len(kept) > 0 {
			out[id] = kept
		}
	}
	return out
}

// ValidateAnswers checks normalized answers against the survey's questions.
func ValidateAnswers(questions []Question, answers map[string][]string) *internal.AppError {
	v := validation.NewValidator()

	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		q := q
		known[q.ID] = true
		field := "answers." + q.ID
		values := answers[q.ID]
		v.Field(field, values).Custom(func(interface{}) *internal.AppError {
			return checkAnswer(field, q, values)
		})
	}
	for id := range answers {
		if !known[id] {
			v.Field("answers."+id, nil).Custom(func(interface{}) *internal.AppError {
				return answerError("answers."+id, "unknown question")
			})
		}
	}
	return v.Validate()
}

func checkAnswer(field string, q Question, values []string) *internal.AppError {
	if len(values) == 0 {
		if q.Required {
			return answerError(field, "an answer is required")
		}
		return nil
	}

	switch q.Kind {
	case KindText:
		if len(values) != 1 {
			return answerError(field, "expects a single text answer")
		}
		if utf8.RuneCountInString(values[0]) > maxTextAnswerLength {
			return answerError(field, fmt.Sprintf("must not exceed %d characters", maxTextAnswerLength))
		}
	case KindSingle:
		if len(values) != 1 {
			return answerError(field, "expects exactly one option")
		}
		if !containsString(q.Options, values[0]) {
			return answerError(field, "unknown option "+values[0])
		}
	case KindMulti:
		picked := make(map[string]bool, len(values))
		for _, value := range values {
			if !containsString(q.Options, value) {
				return answerError(field, "unknown option "+value)
			}
			if picked[value] {
				return answerError(field, "duplicate option "+value)
			}
			picked[value] = true
		}
	}
	return nil
}

func answerError(field, message string) *internal.AppError {
	return internal.NewValidationFieldError(field, message, internal.ErrCodeInvalidAnswer)
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
