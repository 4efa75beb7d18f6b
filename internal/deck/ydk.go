package deck

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseYDK reads the YDK deck format: "#main", "#extra" and "!side" headers
// followed by one card id per line. Other "#" lines are comments.
func ParseYDK(r io.Reader) (Deck, error) {
	var d Deck
	var section *[]int
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		switch {
		case s == "":
			continue
		case s == "#main":
			section = &d.Main
		case s == "#extra":
			section = &d.Extra
		case s == "!side":
			section = &d.Side
		case strings.HasPrefix(s, "#"):
			continue
		default:
			if section == nil {
				return d, fmt.Errorf("line %d: card id before any section header", line)
			}
			id, err := strconv.Atoi(s)
			if err != nil {
				return d, fmt.Errorf("line %d: %w", line, err)
			}
			*section = append(*section, id)
		}
	}
	if err := sc.Err(); err != nil {
		return d, err
	}
	return d, nil
}

// ExportYDK writes d in the YDK format, preserving card order.
func ExportYDK(d Deck) string {
	lines := []string{"#created by cardgrid", "#main"}
	for _, id := range d.Main {
		lines = append(lines, strconv.Itoa(id))
	}
	lines = append(lines, "#extra")
	for _, id := range d.Extra {
		lines = append(lines, strconv.Itoa(id))
	}
	lines = append(lines, "!side")
	for _, id := range d.Side {
		lines = append(lines, strconv.Itoa(id))
	}
	return strings.Join(lines, "\n") + "\n"
}
