// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package stats ingests per-user CSV statistics files clients upload into
// the state directory's staging area (spec §6). No pack library targets
// free-form, header-validated CSV the way this format needs; encoding/csv
// handles quoting and row splitting, and the header/row invariants are
// checked by hand, exactly as spec §6 states them.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ionovox/server/internal/apperror"
)

// requiredHeaderTokens are the case-insensitive column names spec §6
// requires. "emailadress" is spelled as given, not a typo to fix.
var requiredHeaderTokens = []string{
	"username", "characters learned", "time per character", "features unlocked", "emailadress",
}

const (
	colCharactersLearned = "characters learned"
	colTimePerCharacter  = "time per character"
)

// Row is one validated, decoded statistics row.
type Row struct {
	Username          string
	CharactersLearned string
	TimePerCharacter  string
	FeaturesUnlocked  string
	EmailAddress      string
}

// Ingest parses r as the CSV layout of spec §6, validating the header
// token set and, for every row, that the whitespace-separated token count
// of "characters learned" equals that of "time per character".
func Ingest(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "read stats header", err)
	}
	index, err := validateHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperror.Wrap(apperror.KindValidation, "read stats row", err)
		}
		row, err := decodeRow(record, index)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// validateHeader checks that every required token is present
// case-insensitively and returns each token's column index.
func validateHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, want := range requiredHeaderTokens {
		if _, ok := index[want]; !ok {
			return nil, apperror.New(apperror.KindValidation, fmt.Sprintf("stats header missing required column %q", want))
		}
	}
	return index, nil
}

func decodeRow(record []string, index map[string]int) (Row, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	row := Row{
		Username:          field("username"),
		CharactersLearned: field(colCharactersLearned),
		TimePerCharacter:  field(colTimePerCharacter),
		FeaturesUnlocked:  field("features unlocked"),
		EmailAddress:      field("emailadress"),
	}

	learnedTokens := len(strings.Fields(row.CharactersLearned))
	timeTokens := len(strings.Fields(row.TimePerCharacter))
	if learnedTokens != timeTokens {
		return Row{}, apperror.New(apperror.KindValidation, fmt.Sprintf(
			"stats row token-count mismatch: %d characters-learned tokens vs %d time-per-character tokens",
			learnedTokens, timeTokens,
		))
	}
	return row, nil
}
