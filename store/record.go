package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/kbukum/stagekit/errors"
)

// Record is one persisted stage entry: a record key and the serialized
// value bytes the stage's codec produced. Value round-trips through
// base64 inside the JSON frame, so arbitrary binary is safe.
type Record struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// marshalRecord frames one record as a single newline-terminated line.
func marshalRecord(r Record) ([]byte, error) {
	data, err := sonic.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteRecords frames records onto w, one line each. Used for building
// stage logs outside an open Store, e.g. for remote upload. Keys must
// be non-empty, same as Append.
func WriteRecords(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if r.Key == "" {
			return errors.EmptyKey()
		}
		line, err := marshalRecord(r)
		if err != nil {
			return err
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadRecords parses a framed stage log from r, in order, duplicates
// included. A truncated trailing record is silently dropped; any other
// undecodable record is an error.
func ReadRecords(r io.Reader) ([]Record, error) {
	records, _, err := decodeRecords(r)
	return records, err
}

// decodeRecords is the shared line decoder. A line that fails to parse
// is tolerated only if it is the final line and unterminated (the
// expected crash state after an interrupted append); dropped reports
// that case.
func decodeRecords(r io.Reader) (records []Record, dropped bool, err error) {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		lineNo++
		line, readErr := br.ReadBytes('\n')
		atEOF := readErr == io.EOF
		if readErr != nil && !atEOF {
			return nil, false, readErr
		}

		trimmed := bytes.TrimSuffix(line, []byte{'\n'})
		if len(trimmed) > 0 {
			var rec Record
			if uerr := sonic.Unmarshal(trimmed, &rec); uerr != nil {
				if atEOF {
					// Unterminated partial record from an interrupted write.
					return records, true, nil
				}
				return nil, false, fmt.Errorf("record %d: %w", lineNo, uerr)
			}
			if rec.Key == "" {
				if atEOF {
					return records, true, nil
				}
				return nil, false, fmt.Errorf("record %d: missing key", lineNo)
			}
			records = append(records, rec)
		}

		if atEOF {
			return records, false, nil
		}
	}
}
