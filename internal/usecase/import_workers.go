package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fieldhq/lead-dispatch/internal/entity"
)

// ImportWorkersUseCase reads tabular worker data with the columns
// name,skills,phone,email,lat,lon. Malformed rows are rejected one by one;
// the import keeps going for the rest of the file.
type ImportWorkersUseCase struct {
	Workers entity.WorkerRepositoryInterface
}

func NewImportWorkersUseCase(workers entity.WorkerRepositoryInterface) *ImportWorkersUseCase {
	return &ImportWorkersUseCase{Workers: workers}
}

func (uc *ImportWorkersUseCase) Execute(ctx context.Context, source io.Reader) (ImportOutput, error) {
	reader := csv.NewReader(source)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportOutput{}, ValidationError{Field: "csv", Message: "missing header row"}
	}

	columns := indexColumns(header)
	if _, ok := columns["name"]; !ok {
		if _, ok := columns["full_name"]; !ok {
			return ImportOutput{}, ValidationError{Field: "csv", Message: "header must contain a name column"}
		}
	}

	var out ImportOutput

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.Rejected = append(out.Rejected, RowError{Line: line, Err: err.Error()})
			continue
		}

		worker, err := uc.parseRow(columns, record)
		if err != nil {
			out.Rejected = append(out.Rejected, RowError{Line: line, Err: err.Error()})
			continue
		}

		if err := uc.Workers.Upsert(ctx, worker); err != nil {
			return out, storageErr("upsert worker", err)
		}
		out.Imported++
	}

	return out, nil
}

// AddWorker registers a single validated worker.
func (uc *ImportWorkersUseCase) AddWorker(ctx context.Context, input AddWorkerInput) (*entity.Worker, error) {
	worker, err := buildWorker(input.Name, input.Skills, input.Phone, input.Email, input.Lat, input.Lon)
	if err != nil {
		return nil, err
	}

	if err := uc.Workers.Upsert(ctx, worker); err != nil {
		return nil, storageErr("upsert worker", err)
	}

	return worker, nil
}

func (uc *ImportWorkersUseCase) parseRow(columns map[string]int, record []string) (*entity.Worker, error) {
	name := field(columns, record, "name")
	if name == "" {
		name = field(columns, record, "full_name")
	}

	latRaw := field(columns, record, "lat")
	lonRaw := field(columns, record, "lon")

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, ValidationError{Field: "lat", Message: "must be a number"}
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return nil, ValidationError{Field: "lon", Message: "must be a number"}
	}

	return buildWorker(name, field(columns, record, "skills"), field(columns, record, "phone"), field(columns, record, "email"), lat, lon)
}

func buildWorker(name, skills, phone, email string, lat, lon float64) (*entity.Worker, error) {
	name = sanitizeString(name, MaxNameLength)
	if name == "" {
		return nil, ValidationError{Field: "name", Message: "is required"}
	}

	tokens := parseSkills(sanitizeString(skills, 500))
	if len(tokens) == 0 {
		return nil, ValidationError{Field: "skills", Message: "at least one skill is required"}
	}

	phone = sanitizeString(phone, MaxPhoneLength)
	if phone != "" && !isValidPhone(phone) {
		return nil, ValidationError{Field: "phone", Message: "has an invalid format"}
	}

	email = strings.ToLower(sanitizeString(email, MaxEmailLength))
	if email != "" && !isValidEmail(email) {
		return nil, ValidationError{Field: "email", Message: "has an invalid format"}
	}

	if phone == "" && email == "" {
		return nil, ValidationError{Field: "contact", Message: "phone or email is required"}
	}

	if !isValidCoordinate(lat, lon) {
		return nil, ValidationError{Field: "coordinates", Message: fmt.Sprintf("out of range: lat=%v lon=%v", lat, lon)}
	}

	return entity.NewWorker(name, tokens, phone, email, lat, lon)
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return columns
}

func field(columns map[string]int, record []string, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
