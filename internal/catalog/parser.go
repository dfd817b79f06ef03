package catalog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parse reads 3-line NORAD TLE format from r and returns raw records.
// Malformed entries are skipped with a warning log; element-level
// validation happens later in Filter.
func Parse(r io.Reader, logger *slog.Logger) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog data: %w", err)
	}

	var records []Record
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		// Validate line prefixes.
		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Try to find next valid triplet.
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		// Extract NORAD ID from line1 cols 3-7 (0-indexed: 2..7).
		noradStr := strings.TrimSpace(line1[2:7])
		noradID, err := strconv.Atoi(noradStr)
		if err != nil {
			logger.Warn("skipping TLE entry with invalid NORAD ID", "norad_str", noradStr, "name", name)
			i += 3
			continue
		}

		// Extract epoch from line1 cols 19-32 (0-indexed: 18..32).
		if len(line1) < 32 {
			logger.Warn("skipping TLE entry with short line1", "name", name)
			i += 3
			continue
		}
		epochStr := strings.TrimSpace(line1[18:32])
		epoch, err := parseEpoch(epochStr)
		if err != nil {
			logger.Warn("skipping TLE entry with invalid epoch", "epoch_str", epochStr, "name", name, "error", err)
			i += 3
			continue
		}

		records = append(records, Record{
			NORADID: noradID,
			Name:    strings.TrimSpace(name),
			Epoch:   epoch,
			Line1:   line1,
			Line2:   line2,
		})
		i += 3
	}

	return records, nil
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	yearStr := s[:2]
	dayStr := s[2:]

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", yearStr, err)
	}

	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(dayStr, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", dayStr, err)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}

// elements holds the two orbital quantities validation needs.
type elements struct {
	eccentricity    float64
	semiMajorAxisKm float64
}

// earthMuKm3S2 is the WGS-84 gravitational parameter (km³/s²).
const earthMuKm3S2 = 398600.4418

// parseElements extracts eccentricity and semi-major axis from TLE line 2.
// Eccentricity occupies cols 27-33 with an implied leading decimal point;
// mean motion occupies cols 53-63 in revolutions per day. The semi-major
// axis follows from Kepler's third law.
func parseElements(line2 string) (elements, error) {
	if len(line2) < 63 {
		return elements{}, fmt.Errorf("line2 length %d, expected at least 63", len(line2))
	}

	eccStr := strings.TrimSpace(line2[26:33])
	if eccStr == "" {
		return elements{}, fmt.Errorf("eccentricity field empty")
	}
	ecc, err := strconv.ParseFloat("0."+eccStr, 64)
	if err != nil {
		return elements{}, fmt.Errorf("invalid eccentricity %q: %w", eccStr, err)
	}

	mmStr := strings.TrimSpace(line2[52:63])
	meanMotion, err := strconv.ParseFloat(mmStr, 64)
	if err != nil {
		return elements{}, fmt.Errorf("invalid mean motion %q: %w", mmStr, err)
	}
	if meanMotion <= 0 {
		return elements{}, fmt.Errorf("non-positive mean motion %g", meanMotion)
	}

	// rev/day → rad/s, then a = (μ/n²)^(1/3).
	n := meanMotion * 2.0 * math.Pi / 86400.0
	a := math.Cbrt(earthMuKm3S2 / (n * n))

	return elements{eccentricity: ecc, semiMajorAxisKm: a}, nil
}

var (
	bracketed     = regexp.MustCompile(`\[[^\]]*\]`)
	parenthesized = regexp.MustCompile(`\([^)]*\)`)
)

// AbbreviateName strips bracketed and parenthesized qualifiers from a
// catalog name and collapses whitespace, matching the display convention
// of the console and web tables.
func AbbreviateName(name string) string {
	n := bracketed.ReplaceAllString(name, "")
	n = parenthesized.ReplaceAllString(n, "")
	return strings.Join(strings.Fields(n), " ")
}
