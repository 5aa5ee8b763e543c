package survey

import (
	"time"

	surveyDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/survey"
)

const (
	KindText   = "text"
	KindSingle = "single"
	KindMulti  = "multi"
)

var Kinds = []string{KindText, KindSingle, KindMulti}

type Question struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

// IsChoice reports whether answers must come from Options.
func (q Question) IsChoice() bool {
	return q.Kind == KindSingle || q.Kind == KindMulti
}

type Survey struct {
	ID          int64      `json:"id"`
	CompanyID   int64      `json:"company_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
	IsActive    bool       `json:"is_active"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Response struct {
	ID        int64               `json:"id"`
	SurveyID  int64               `json:"survey_id"`
	CompanyID int64               `json:"company_id"`
	LeadID    int64               `json:"lead_id"`
	Answers   map[string][]string `json:"answers"`
	CreatedAt time.Time           `json:"created_at"`
}

// PublicSurvey is what anonymous respondents see.
type PublicSurvey struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

func (s *Survey) Public() *PublicSurvey {
	return &PublicSurvey{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Questions:   s.Questions,
	}
}

func FromDataModel(m *surveyDatamodel.Survey) *Survey {
	questions := make([]Question, 0, len(m.Questions))
	for _, q := range m.Questions {
		questions = append(questions, Question{
			ID:       q.ID,
			Label:    q.Label,
			Kind:     q.Kind,
			Options:  q.Options,
			Required: q.Required,
		})
	}
	return &Survey{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		Title:       m.Title,
		Description: m.Description,
		Questions:   questions,
		IsActive:    m.IsActive,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toDataQuestions(questions []Question) []surveyDatamodel.Question {
	out := make([]surveyDatamodel.Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, surveyDatamodel.Question{
			ID:       q.ID,
			Label:    q.Label,
			Kind:     q.Kind,
			Options:  q.Options,
			Required: q.Required,
		})
	}
	return out
}

func ResponseFromDataModel(m *surveyDatamodel.Response) *Response {
	answers := m.Answers
	if answers == nil {
		answers = map[string][]string{}
	}
	return &Response{
		ID:        m.ID,
		SurveyID:  m.SurveyID,
		CompanyID: m.CompanyID,
		LeadID:    m.LeadID,
		Answers:   answers,
		CreatedAt: m.CreatedAt,
	}
}
