package lead

import (
	"strings"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/core/common/validation"
)

const (
	maxNameLength     = 200
	maxEmailLength    = 254
	maxPhoneLength    = 32
	maxCompanyLength  = 200
	maxNotesLength    = 2000
	maxInterests      = 20
	maxInterestLength = 100
)

type CreateLeadDTO struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Company   string   `json:"company"`
	Source    string   `json:"source"`
	Interests []string `json:"interests"`
	Notes     string   `json:"notes"`
}

// Normalize trims every field and lower-cases the email.
func (dto *CreateLeadDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = NormalizeEmail(dto.Email)
	dto.Phone = strings.TrimSpace(dto.Phone)
	dto.Company = strings.TrimSpace(dto.Company)
	dto.Source = strings.TrimSpace(dto.Source)
	dto.Notes = strings.TrimSpace(dto.Notes)
	dto.Interests = trimAll(dto.Interests)
}

func (dto CreateLeadDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(maxNameLength)
	v.Field("email", dto.Email).Required().MaxLength(maxEmailLength).Email()
	v.Field("phone", dto.Phone).MaxLength(maxPhoneLength).Phone()
	v.Field("company", dto.Company).MaxLength(maxCompanyLength)
	v.Field("source", dto.Source).OneOf(internal.ErrCodeInvalidSource, Sources...)
	v.Field("interests", dto.Interests).Each(maxInterests, maxInterestLength)
	v.Field("notes", dto.Notes).MaxLength(maxNotesLength)
	return v.Validate()
}

// UpdateLeadDTO is a partial update; nil fields are left alone.
type UpdateLeadDTO struct {
	Name      *string   `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Company   *string   `json:"company"`
	Source    *string   `json:"source"`
	Interests *[]string `json:"interests"`
	Notes     *string   `json:"notes"`
}

func (dto *UpdateLeadDTO) Normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(dto.Name)
	trim(dto.Phone)
	trim(dto.Company)
	trim(dto.Source)
	trim(dto.Notes)
	if dto.Email != nil {
		*dto.Email = NormalizeEmail(*dto.Email)
	}
	if dto.Interests != nil {
		trimmed := trimAll(*dto.Interests)
		dto.Interests = &trimmed
	}
}

func (dto UpdateLeadDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	if dto.Name != nil {
		v.Field("name", dto.Name).Required().MaxLength(maxNameLength)
	}
	if dto.Email != nil {
		v.Field("email", dto.Email).Required().MaxLength(maxEmailLength).Email()
	}
	v.Field("phone", dto.Phone).MaxLength(maxPhoneLength).Phone()
	v.Field("company", dto.Company).MaxLength(maxCompanyLength)
	if dto.Source != nil {
		v.Field("source", dto.Source).Required().OneOf(internal.ErrCodeInvalidSource, Sources...)
	}
	if dto.Interests != nil {
		v.Field("interests", *dto.Interests).Each(maxInterests, maxInterestLength)
	}
	v.Field("notes", dto.Notes).MaxLength(maxNotesLength)
	return v.Validate()
}

func (dto UpdateLeadDTO) IsEmpty() bool {
	return dto.Name == nil && dto.Email == nil && dto.Phone == nil && dto.Company == nil &&
		dto.Source == nil && dto.Interests == nil && dto.Notes == nil
}

type ChangeStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified converted lost"`
}

type ListFilter struct {
	CompanyID int64
	Status    string
	Source    string
	Search    string
	Limit     int
	Offset    int
}

type ListResult struct {
	Leads  []*Lead `json:"leads"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type Stats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

type ImportIssue struct {
	Row    int    `json:"row"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Created int           `json:"created"`
	Skipped []ImportIssue `json:"skipped"`
	Invalid []ImportIssue `json:"invalid"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.TrimSpace(item)
	}
	return out
}
