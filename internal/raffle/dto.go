package raffle

import (
	"strings"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/core/common/validation"
	"github.com/frahmantamala/datascope/internal/lead"
)

type CreateRaffleDTO struct {
	Name  string `json:"name"`
	Prize string `json:"prize"`
}

func (dto *CreateRaffleDTO) Normalize() {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Prize = strings.TrimSpace(dto.Prize)
}

func (dto CreateRaffleDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("prize", dto.Prize).MaxLength(500)
	return v.Validate()
}

// EnterDTO carries the entrant's contact details.
type EnterDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

func (dto EnterDTO) Lead() lead.CreateLeadDTO {
	return lead.CreateLeadDTO{
		Name:    dto.Name,
		Email:   dto.Email,
		Phone:   dto.Phone,
		Company: dto.Company,
	}
}

type ListFilter struct {
	CompanyID int64
	Status    string
	Limit     int
	Offset    int
}

type ListResult struct {
	Raffles []*Raffle `json:"raffles"`
	Total   int64     `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}

type EnterResult struct {
	EntryID     int64 `json:"entry_id"`
	LeadID      int64 `json:"lead_id"`
	LeadCreated bool  `json:"lead_created"`
}

type DrawResult struct {
	Raffle  *Raffle    `json:"raffle"`
	Winner  *lead.Lead `json:"winner"`
	Entries int        `json:"entries"`
}
