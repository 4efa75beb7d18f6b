package deck

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadBanlistCSV loads a banlist from a CSV file with a header row containing
// "card_id" and "status" columns. Other columns are ignored.
func LoadBanlistCSV(path string) (Banlist, error) {
	fp, err := os.Open(path)
	if err != nil {
		return Banlist{}, err
	}
	defer fp.Close()

	b, err := ReadBanlistCSV(fp)
	if err != nil {
		return Banlist{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return b, nil
}

// ReadBanlistCSV is LoadBanlistCSV over a reader.
func ReadBanlistCSV(r io.Reader) (Banlist, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return Banlist{}, err
	}
	if len(rows) < 1 {
		return Banlist{}, fmt.Errorf("csv has no header")
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["card_id"]; !ok {
		return Banlist{}, fmt.Errorf("csv header lacks card_id column")
	}
	if _, ok := cols["status"]; !ok {
		return Banlist{}, fmt.Errorf("csv header lacks status column")
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var b Banlist
	for n, row := range rows[1:] {
		idStr := get(row, "card_id")
		if idStr == "" {
			continue
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return Banlist{}, fmt.Errorf("row %d: card_id %q: %w", n+2, idStr, err)
		}
		r, err := ParseRestriction(get(row, "status"))
		if err != nil {
			return Banlist{}, fmt.Errorf("row %d: %w", n+2, err)
		}
		switch r {
		case Banned:
			b.Banned = append(b.Banned, id)
		case Limited:
			b.Limited = append(b.Limited, id)
		case SemiLimited:
			b.SemiLimited = append(b.SemiLimited, id)
		case Unlimited:
			b.Unlimited = append(b.Unlimited, id)
		}
	}
	return b, nil
}
