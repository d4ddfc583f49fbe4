package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"time"

	"github.com/soaringjerry/mindbridge/internal/models"
)

type LongRow struct {
	SessionID     string
	QuestionIndex int
	Trait         string
	Response      int
	QuestionText  string
	SubmittedAt   string // RFC3339
}

// ExportLongCSV renders one answer per row.
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"session_id", "question_index", "trait", "response", "question_text", "submitted_at"})
	for _, r := range rows {
		rec := []string{
			r.SessionID,
			strconv.Itoa(r.QuestionIndex),
			r.Trait,
			strconv.Itoa(r.Response),
			r.QuestionText,
			r.SubmittedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportResultsCSV renders a wide CSV with one result per row and one column
// per trait seen across all results. Traits are sorted for stable output and
// a trait missing from a result leaves its cell empty.
func ExportResultsCSV(results []*models.Result) ([]byte, error) {
	traitSet := map[string]struct{}{}
	for _, r := range results {
		for trait := range r.Scores {
			traitSet[trait] = struct{}{}
		}
	}
	traits := make([]string, 0, len(traitSet))
	for t := range traitSet {
		traits = append(traits, t)
	}
	sort.Strings(traits)

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := append([]string{"result_id", "session_id", "test_type", "personality_type", "created_at"}, traits...)
	_ = w.Write(header)
	for _, r := range results {
		row := make([]string, 0, len(header))
		row = append(row, r.ID, r.SessionID, r.TestType, r.PersonalityType, r.CreatedAt.Format(time.RFC3339))
		for _, trait := range traits {
			v, ok := r.Scores[trait]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
