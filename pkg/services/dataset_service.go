package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"market-insight-api/pkg/models"

	"github.com/xuri/excelize/v2"
)

// DatasetService loads the market dataset into memory once and serves it
// read-only for the rest of the process lifetime. It supports CSV and XLSX
// sources with flexible headers (e.g. "market_size" or "market_size_usd").
type DatasetService struct {
	records []models.MarketRecord
}

// Accepted header names per column, in order of preference (case-insensitive).
var (
	categoryColumns    = []string{"category", "region", "segment"}
	subcategoryColumns = []string{"subcategory", "sub_category", "brand"}
	periodColumns      = []string{"period", "year"}
	marketSizeColumns  = []string{"market_size", "market_size_usd"}
	avgPriceColumns    = []string{"avg_price", "avg_price_usd", "price"}
	volumeColumns      = []string{"volume", "doses_sold_million", "units_sold_million"}
	growthRateColumns  = []string{"growth_rate", "growth_rate_percent"}
	noteColumns        = []string{"note", "insight", "comment"}
)

// NewDatasetService reads the dataset file at path and keeps it in memory.
func NewDatasetService(path string) (*DatasetService, error) {
	rows, err := readTableFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}

	records, err := parseRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}

	return &DatasetService{records: records}, nil
}

// NewDatasetServiceFromRecords builds a service over an in-memory record set.
func NewDatasetServiceFromRecords(records []models.MarketRecord) *DatasetService {
	return &DatasetService{records: records}
}

// readTableFile returns the raw rows of a CSV or XLSX file.
func readTableFile(path string) ([][]string, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return f.GetRows(f.GetSheetName(0))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// parseRecords converts raw rows into records. Rows missing a parsable period
// or market size are skipped; optional numeric cells default to 0.
func parseRecords(rows [][]string) ([]models.MarketRecord, error) {
	if len(rows) < 2 {
		return nil, errors.New("dataset needs a header row and at least one data row")
	}

	header := normalizeHeader(rows[0])
	categoryIdx := findColumn(header, categoryColumns)
	subcategoryIdx := findColumn(header, subcategoryColumns)
	periodIdx := findColumn(header, periodColumns)
	marketSizeIdx := findColumn(header, marketSizeColumns)
	if categoryIdx == -1 || subcategoryIdx == -1 || periodIdx == -1 || marketSizeIdx == -1 {
		return nil, errors.New("dataset header must contain category, subcategory, period and market size columns")
	}
	avgPriceIdx := findColumn(header, avgPriceColumns)
	volumeIdx := findColumn(header, volumeColumns)
	growthRateIdx := findColumn(header, growthRateColumns)
	noteIdx := findColumn(header, noteColumns)

	records := make([]models.MarketRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= categoryIdx || len(row) <= subcategoryIdx || len(row) <= periodIdx || len(row) <= marketSizeIdx {
			continue
		}

		period, err := strconv.Atoi(strings.TrimSpace(row[periodIdx]))
		if err != nil {
			continue
		}
		marketSize, ok := parseNumericCell(row[marketSizeIdx])
		if !ok {
			continue
		}

		record := models.MarketRecord{
			Category:    strings.TrimSpace(row[categoryIdx]),
			Subcategory: strings.TrimSpace(row[subcategoryIdx]),
			Period:      period,
			MarketSize:  marketSize,
		}
		if record.Category == "" || record.Subcategory == "" {
			continue
		}
		if avgPriceIdx != -1 && len(row) > avgPriceIdx {
			record.AvgPrice, _ = parseNumericCell(row[avgPriceIdx])
		}
		if volumeIdx != -1 && len(row) > volumeIdx {
			record.Volume, _ = parseNumericCell(row[volumeIdx])
		}
		if growthRateIdx != -1 && len(row) > growthRateIdx {
			record.GrowthRate, _ = parseNumericCell(row[growthRateIdx])
		}
		if noteIdx != -1 && len(row) > noteIdx {
			record.Note = strings.TrimSpace(row[noteIdx])
		}

		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, errors.New("dataset contains no valid rows")
	}
	return records, nil
}

// Records returns the full dataset in insertion order. Callers must not mutate it.
func (s *DatasetService) Records() []models.MarketRecord {
	return s.records
}

// Filter returns the records matching every non-empty field of the filter,
// preserving insertion order.
func (s *DatasetService) Filter(f models.RecordFilter) []models.MarketRecord {
	if f.IsEmpty() {
		return s.records
	}

	matched := make([]models.MarketRecord, 0, len(s.records))
	for _, r := range s.records {
		if f.Category != "" && !strings.EqualFold(r.Category, f.Category) {
			continue
		}
		if f.Subcategory != "" && !strings.EqualFold(r.Subcategory, f.Subcategory) {
			continue
		}
		if f.Period != 0 && r.Period != f.Period {
			continue
		}
		matched = append(matched, r)
	}
	return matched
}

// DistinctCategories returns the sorted set of category labels.
func (s *DatasetService) DistinctCategories() []string {
	return distinctStrings(s.records, func(r models.MarketRecord) string { return r.Category })
}

// DistinctSubcategories returns the sorted set of subcategory labels.
func (s *DatasetService) DistinctSubcategories() []string {
	return distinctStrings(s.records, func(r models.MarketRecord) string { return r.Subcategory })
}

// DistinctPeriods returns the sorted set of periods present in the dataset.
func (s *DatasetService) DistinctPeriods() []int {
	seen := make(map[int]bool)
	out := make([]int, 0)
	for _, r := range s.records {
		if !seen[r.Period] {
			seen[r.Period] = true
			out = append(out, r.Period)
		}
	}
	sort.Ints(out)
	return out
}

func distinctStrings(records []models.MarketRecord, key func(models.MarketRecord) string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, r := range records {
		v := key(r)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// normalizeHeader strips BOM, trims and lowercases header cells.
func normalizeHeader(hdr []string) []string {
	out := make([]string, len(hdr))
	for i, v := range hdr {
		v = strings.TrimPrefix(v, "\ufeff")
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

// findColumn returns the index of the first candidate present in the header.
func findColumn(header []string, candidates []string) int {
	for _, c := range candidates {
		for i, h := range header {
			if h == c {
				return i
			}
		}
	}
	return -1
}

// parseNumericCell parses a numeric cell, tolerating thousands separators and
// unit suffixes like "35,000 USD" -> 35000.
func parseNumericCell(cell string) (float64, bool) {
	cleaned := filterNumeric(strings.TrimSpace(cell))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// filterNumeric keeps digits, dot and minus so values like "1,234.5円" parse.
func filterNumeric(s string) string {
	b := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b = append(b, r)
		}
	}
	return string(b)
}
