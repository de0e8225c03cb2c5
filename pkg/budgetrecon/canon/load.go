package canon

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyClientList is returned when a client list has no usable line.
var ErrEmptyClientList = errors.New("client list is empty")

// ReadClientList reads one client name per line. Blank lines and lines
// starting with '#' are skipped.
func ReadClientList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open client list: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read client list %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyClientList, path)
	}
	return names, nil
}

// ReadAliases reads "raw;canonical" pairs in file order. Lines starting
// with '#' are comments.
func ReadAliases(r io.Reader) ([]Alias, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []Alias
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("aliases line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != 2 {
			return nil, fmt.Errorf("aliases line %d: expected 2 fields, got %d", line, len(rec))
		}
		raw, target := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if raw == "" || target == "" {
			continue
		}
		out = append(out, Alias{Raw: raw, Target: target})
	}
	return out, nil
}

// LoadAliases reads an alias file and merges it over base. The base pairs
// are applied in sorted order, then the file in line order, so entries from
// the file win and a later line wins over an earlier one.
func LoadAliases(path string, base map[string]string) (*AliasTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open aliases: %w", err)
	}
	defer f.Close()

	extra, err := ReadAliases(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewAliasList(append(SortedAliases(base), extra...)), nil
}

// LoadKeywords reads a client list and builds a KeywordSet from it.
func LoadKeywords(path string) (*KeywordSet, error) {
	names, err := ReadClientList(path)
	if err != nil {
		return nil, err
	}
	return NewKeywordSet(names), nil
}
