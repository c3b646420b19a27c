// Package importer reads reference data uploads. Both CSV and XLSX files
// carry a header row naming the columns koodi, kieli, nimi and kuvaus in any
// order; kuvaus is optional.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"yksilo/internal/koodisto/models"
	"yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
)

// Format of an upload.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	requiredColumns = []string{"koodi", "kieli", "nimi"}
)

// DetectFormat picks the format from a content type or, failing that, a file
// name extension.
func DetectFormat(contentType, fileName string) (Format, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case ContentTypeCSV, "application/csv":
		return FormatCSV, nil
	case ContentTypeXLSX:
		return FormatXLSX, nil
	}
	name := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV, nil
	case strings.HasSuffix(name, ".xlsx"):
		return FormatXLSX, nil
	}
	return "", dErrors.Wrap(ErrUnsupportedFormat, dErrors.CodeBadRequest, "upload must be CSV or XLSX")
}

// Parse reads rows from payload. Koodisto is left empty on every row; the
// caller assigns it.
func Parse(format Format, payload []byte) ([]models.Row, error) {
	var records [][]string
	var err error
	switch format {
	case FormatCSV:
		records, err = readCSV(payload)
	case FormatXLSX:
		records, err = readXLSX(payload)
	default:
		return nil, dErrors.Wrap(ErrUnsupportedFormat, dErrors.CodeBadRequest, "upload must be CSV or XLSX")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable upload")
	}
	return toRows(records)
}

func readCSV(payload []byte) ([][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

func readXLSX(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func toRows(records [][]string) ([]models.Row, error) {
	headerAt := -1
	for i, record := range records {
		if !isBlank(record) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no rows found in file")
	}

	columns := make(map[string]int)
	for i, h := range records[headerAt] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := columns[c]; !ok {
			missing = append(missing, "missing column: "+c)
		}
	}
	if len(missing) > 0 {
		return nil, dErrors.WithDetails(dErrors.CodeValidation, "invalid header row", missing...)
	}

	cell := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []models.Row
	var details []string
	for i := headerAt + 1; i < len(records); i++ {
		record := records[i]
		if isBlank(record) {
			continue
		}
		kieli, err := domain.ParseKieli(cell(record, "kieli"))
		if err != nil {
			details = append(details, fmt.Sprintf("line %d: unsupported kieli %q", i+1, cell(record, "kieli")))
			continue
		}
		row := models.Row{
			Koodi: cell(record, "koodi"),
			Kieli: kieli,
			Nimi:  cell(record, "nimi"),
		}
		if kuvaus := cell(record, "kuvaus"); kuvaus != "" {
			row.Kuvaus = &kuvaus
		}
		rows = append(rows, row)
	}
	if len(details) > 0 {
		return nil, dErrors.WithDetails(dErrors.CodeValidation, "invalid koodisto import", details...)
	}
	return rows, nil
}
