package lead

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/core/events"
)

// CSVColumns is the column order of exports and the accepted import header.
var CSVColumns = []string{"id", "name", "email", "phone", "company", "status", "source", "interests", "notes", "created_at"}

const interestSeparator = ";"

// ExportCSV writes every lead of the scoped company as CSV.
func (s *Service) ExportCSV(ctx context.Context, scope internal.Scope, w io.Writer) (int, error) {
	rows, err := s.repo.ListAll(ctx, scope.CompanyID)
	if err != nil {
		return 0, internal.NewInternalError("failed to load leads for export", err)
	}

	if len(rows) == 0 {
		cw := csv.NewWriter(w)
		if err := cw.Write(CSVColumns); err != nil {
			return 0, err
		}
		cw.Flush()
		return 0, cw.Error()
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, CSVColumns)
	for _, row := range rows {
		records = append(records, []string{
			strconv.FormatInt(row.ID, 10),
			row.Name,
			row.Email,
			row.Phone,
			row.Company,
			row.Status,
			row.Source,
			strings.Join(row.Interests, interestSeparator),
			row.Notes,
			row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return 0, fmt.Errorf("build export frame: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}

	s.logger.Info("leads exported", "company_id", scope.CompanyID, "count", len(rows))
	return len(rows), nil
}

// ImportCSV creates a lead per valid row. Rows whose email repeats an earlier row or an
// existing lead are skipped; rows that fail validation are reported with their line number.
func (s *Service) ImportCSV(ctx context.Context, scope internal.Scope, r io.Reader) (*ImportResult, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		// every cell is text; "NA" or "NaN" is somebody's data, not a missing value
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, internal.NewValidationError("CSV could not be parsed: "+df.Err.Error(), internal.ErrCodeInvalidCSV)
	}

	columns := make(map[string]bool)
	for _, name := range df.Names() {
		columns[strings.ToLower(strings.TrimSpace(name))] = true
	}
	for _, required := range []string{"name", "email"} {
		if !columns[required] {
			return nil, internal.NewValidationError("CSV is missing the "+required+" column", internal.ErrCodeInvalidCSV)
		}
	}

	result := &ImportResult{Skipped: []ImportIssue{}, Invalid: []ImportIssue{}}
	if df.Nrow() == 0 {
		return result, nil
	}

	cell := columnReader(df)
	emails := make([]string, df.Nrow())
	for i := range emails {
		emails[i] = NormalizeEmail(cell("email", i))
	}
	df = df.Mutate(series.New(emails, series.String, "email"))
	occurrences := emailOccurrences(df)

	seen := make(map[string]bool)
	for i := 0; i < df.Nrow(); i++ {
		line := i + 2
		dto := CreateLeadDTO{
			Name:      cell("name", i),
			Email:     emails[i],
			Phone:     cell("phone", i),
			Company:   cell("company", i),
			Source:    cell("source", i),
			Interests: splitInterests(cell("interests", i)),
			Notes:     cell("notes", i),
		}
		if dto.Source == "" {
			dto.Source = SourceImport
		}

		if dto.Email != "" && seen[dto.Email] {
			result.Skipped = append(result.Skipped, ImportIssue{
				Row:    line,
				Email:  dto.Email,
				Reason: fmt.Sprintf("email appears %d times in the file", occurrences[dto.Email]),
			})
			continue
		}
		seen[dto.Email] = true

		l, err := s.create(ctx, scope.CompanyID, dto, scope.UserID)
		if err != nil {
			appErr, ok := internal.IsAppError(err)
			switch {
			case ok && appErr.Code == internal.ErrCodeLeadAlreadyExists:
				result.Skipped = append(result.Skipped, ImportIssue{Row: line, Email: dto.Email, Reason: "lead already exists"})
			case ok && appErr.Type == internal.ErrorTypeValidation:
				result.Invalid = append(result.Invalid, ImportIssue{Row: line, Email: dto.Email, Reason: appErr.GetDetailedMessage()})
			default:
				return nil, err
			}
			continue
		}

		result.Created++
		s.publish(ctx, events.EventTypeLeadCreated, l, scope.UserID, "", l.Status)
	}

	s.logger.Info("lead import finished",
		"company_id", scope.CompanyID,
		"created", result.Created,
		"skipped", len(result.Skipped),
		"invalid", len(result.Invalid))
	return result, nil
}

// columnReader reads cells by lower-cased column name; missing columns read as empty.
func columnReader(df dataframe.DataFrame) func(column string, row int) string {
	byName := make(map[string][]string)
	for _, name := range df.Names() {
		byName[strings.ToLower(strings.TrimSpace(name))] = df.Col(name).Records()
	}
	return func(column string, row int) string {
		values, ok := byName[column]
		if !ok || row >= len(values) {
			return ""
		}
		return strings.TrimSpace(values[row])
	}
}

func emailOccurrences(df dataframe.DataFrame) map[string]int {
	counts := make(map[string]int)
	groups := df.GroupBy("email")
	if groups == nil || groups.Err != nil {
		return counts
	}
	for _, group := range groups.GetGroups() {
		values := group.Col("email").Records()
		if len(values) > 0 {
			counts[values[0]] = len(values)
		}
	}
	return counts
}

func splitInterests(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, interestSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
