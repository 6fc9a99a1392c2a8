package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/khanglvm/moodbrain/internal/mood"
)

// ImportReport summarizes a CSV import.
type ImportReport struct {
	Rows       int
	Added      int
	Duplicates int
	Skipped    int
}

// ImportCSVFile reads text,label rows from path into c. See ImportCSV.
func ImportCSVFile(c *Corpus, path string, vocab *mood.Vocabulary) (ImportReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImportReport{}, err
	}
	defer file.Close()

	return ImportCSV(c, file, vocab)
}

// ImportCSV appends text,label rows to c. An optional header row containing
// "text" and "label" is skipped. Rows with blank fields or labels outside vocab
// are skipped; rows whose text is already present count as duplicates.
func ImportCSV(c *Corpus, r io.Reader, vocab *mood.Vocabulary) (ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var report ImportReport
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return report, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if line == 1 && looksLikeHeader(record) {
			continue
		}

		report.Rows++
		if len(record) < 2 {
			report.Skipped++
			continue
		}

		text := strings.TrimSpace(record[0])
		label, err := vocab.Parse(record[1])
		if text == "" || err != nil {
			report.Skipped++
			continue
		}

		if err := c.Add(Example{Text: text, Label: label}); err != nil {
			if errors.Is(err, ErrDuplicateExample) {
				report.Duplicates++
				continue
			}
			report.Skipped++
			continue
		}
		report.Added++
	}

	return report, nil
}

func looksLikeHeader(record []string) bool {
	if len(record) < 2 {
		return false
	}
	left := strings.ToLower(strings.TrimSpace(record[0]))
	right := strings.ToLower(strings.TrimSpace(record[1]))
	return strings.Contains(left, "text") && strings.Contains(right, "label")
}
