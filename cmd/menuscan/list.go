package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Ferruolo/menuscan/internal/model"
)

// errEmptyList is returned when a business list holds no entries.
var errEmptyList = errors.New("business list is empty")

// readBusinessList reads a "business_id,url" CSV file. Blank lines, lines
// starting with '#' and a leading header row are ignored. Rows with an empty
// URL are skipped, matching businesses that have no website.
func readBusinessList(path string) ([]model.Business, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied list
	if err != nil {
		return nil, fmt.Errorf("failed to open business list: %w", err)
	}
	defer f.Close()

	businesses, err := parseBusinessList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return businesses, nil
}

func parseBusinessList(r io.Reader) ([]model.Business, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var businesses []model.Business
	seen := make(map[string]struct{})
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < 2 {
			if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
				continue
			}
			return nil, fmt.Errorf("line %d: expected business_id,url", line)
		}

		id := strings.TrimSpace(rec[0])
		website := strings.TrimSpace(rec[1])
		if len(businesses) == 0 && strings.EqualFold(id, "business_id") {
			continue
		}
		if id == "" {
			return nil, fmt.Errorf("line %d: empty business id", line)
		}
		if website == "" {
			continue
		}
		if !strings.Contains(website, "://") {
			website = "https://" + website
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		businesses = append(businesses, model.Business{ID: id, Website: website})
	}

	if len(businesses) == 0 {
		return nil, errEmptyList
	}
	return businesses, nil
}
