// Package ingest reads CSV-exported conversation rows. Columns are
// positional, matching the export format: session id, conversation id,
// stages passed, content. The first row is a header and is skipped.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Row is one transcript row from a CSV export.
type Row struct {
	RowID          string `json:"rowId"`
	SessionID      string `json:"sessionId"`
	ConversationID string `json:"conversationId"`
	StagesPassed   string `json:"stagesPassed"`
	Content        string `json:"content"`
}

// ReadRows parses CSV content into transcript rows. Rows with fewer than
// four fields or an empty session or conversation id are silently dropped;
// they never reach the scoring core. Each kept row gets a fresh RowID.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []Row
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(record) < 4 {
			continue
		}

		sessionID := strings.TrimSpace(record[0])
		conversationID := strings.TrimSpace(record[1])
		if sessionID == "" || conversationID == "" {
			continue
		}

		rows = append(rows, Row{
			RowID:          uuid.NewString(),
			SessionID:      sessionID,
			ConversationID: conversationID,
			StagesPassed:   strings.TrimSpace(record[2]),
			Content:        strings.TrimSpace(record[3]),
		})
	}

	return rows, nil
}

// LoadFile reads transcript rows from a CSV file on disk.
func LoadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return rows, nil
}
