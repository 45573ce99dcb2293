package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// ExportRecord describes a workbook that was exported.
type ExportRecord struct {
	ID             int64     `json:"id"`
	InspectionDate string    `json:"inspectionDate"`
	Filename       string    `json:"filename"`
	Destination    string    `json:"destination"`
	PayloadHash    string    `json:"payloadHash"`
	SizeBytes      int64     `json:"sizeBytes"`
	ExportedAt     time.Time `json:"exportedAt"`
}

// RecordExport stores a compressed copy of an exported workbook.
// Returns the record ID, or 0 if an identical workbook was already recorded.
func (s *Store) RecordExport(date, filename, destination string, payload []byte) (int64, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return 0, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(payload)
	hashHex := hex.EncodeToString(hash[:])

	result, err := s.db.Exec(`
		INSERT INTO exports
		(inspection_date, filename, destination, payload_compressed, payload_hash, size_bytes, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(payload_hash) DO NOTHING
	`, date, filename, destination, buf.Bytes(), hashHex, len(payload), s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return result.LastInsertId()
}

// GetExportPayload retrieves and decompresses a stored workbook.
func (s *Store) GetExportPayload(id int64) (*ExportRecord, []byte, error) {
	var rec ExportRecord
	var compressed []byte
	err := s.db.QueryRow(`
		SELECT id, inspection_date, filename, destination, payload_hash, size_bytes, exported_at, payload_compressed
		FROM exports WHERE id = ?
	`, id).Scan(&rec.ID, &rec.InspectionDate, &rec.Filename, &rec.Destination, &rec.PayloadHash, &rec.SizeBytes, &rec.ExportedAt, &compressed)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	payload, err := io.ReadAll(gz)
	if err != nil {
		return nil, nil, fmt.Errorf("decompress payload: %w", err)
	}
	return &rec, payload, nil
}

// ListExports returns export records, newest first.
func (s *Store) ListExports(limit int) ([]ExportRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, inspection_date, filename, destination, payload_hash, size_bytes, exported_at
		FROM exports
		ORDER BY exported_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		if err := rows.Scan(&rec.ID, &rec.InspectionDate, &rec.Filename, &rec.Destination, &rec.PayloadHash, &rec.SizeBytes, &rec.ExportedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
