// Package intent extracts trip parameters from free Mandarin text.
//
// Extraction is rule based on purpose: a missing field is the signal for
// downstream callers to ask the user, so every helper here is total and
// returns the zero value instead of an error.
package intent

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/voyago/server/domain/entities"
	"github.com/voyago/server/internal/numeral"
)

const isoDate = "2006-01-02"

// numeralClass matches one run of Arabic or Chinese numeral characters.
const numeralClass = `[0-9〇零一二两三四五六七八九十百千万]`

var (
	// Ordered by specificity; the first matching pattern wins.
	destinationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:想去|要去|打算去|准备去)([^，。、,.！!？?\s]+)`),
		regexp.MustCompile(`目的地是?([^，。、,.！!？?\s]+)`),
		regexp.MustCompile(`(?:去往|前往)([^，。、,.！!？?\s]+)`),
		regexp.MustCompile(`去([^，。、,.！!？?\s]+)`),
	}

	// Generic trailing words that say "trip" rather than "where".
	destinationSuffixes = []string{
		"旅行", "旅游", "游玩", "度假", "出差", "玩", "这里", "那里", "那个地方",
	}

	budgetPattern = regexp.MustCompile(
		`预算[^0-9〇零一二两三四五六七八九十百千万]{0,8}` +
			`([0-9]+(?:\.[0-9]+)?|[〇零一二两三四五六七八九十百千万]+)` +
			`\s*([万千百十]?)\s*(?:元|块|人民币)?`)

	magnitudeValues = map[string]float64{
		"万": 10000, "千": 1000, "百": 100, "十": 10, "": 1,
	}

	travelersPattern = regexp.MustCompile(
		`([0-9一二两三四五六七八九十]+)\s*(?:位|个人|人)(?:同行|出行|一起)?`)

	// Heuristic phrase table, tried in order after the explicit pattern.
	// Compatibility defaults, not business rules.
	travelerPhrases = []struct {
		phrase string
		count  int
	}{
		{"一家三口", 3},
		{"三口之家", 3},
		{"一家四口", 4},
		{"四口之家", 4},
		{"情侣", 2},
		{"夫妻", 2},
		{"两口子", 2},
		{"带孩子", 3},
		{"带娃", 3},
	}

	isoDatePattern = regexp.MustCompile(`(\d{4})[./-](\d{1,2})[./-](\d{1,2})`)
	cnDatePattern  = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日`)
	durationPattern = regexp.MustCompile(numeralClass + `+\s*(?:天|日)`)
)

// Extract pulls destination, budget, traveler count, and date range out of
// text. It is pure and idempotent; unrecognized fields stay at their zero
// value.
func Extract(text string) entities.TripIntent {
	intent := entities.TripIntent{
		Destination: extractDestination(text),
		Travelers:   extractTravelers(text),
	}
	intent.Budget = extractBudget(text)
	intent.StartDate, intent.EndDate = extractDates(text, time.Now())
	return intent
}

func extractDestination(text string) string {
	for _, p := range destinationPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		dest := m[1]
		if i := strings.Index(dest, "的"); i >= 0 {
			dest = dest[:i]
		}
		for changed := true; changed; {
			changed = false
			for _, suffix := range destinationSuffixes {
				if trimmed := strings.TrimSuffix(dest, suffix); trimmed != dest {
					dest = trimmed
					changed = true
				}
			}
		}
		return strings.TrimSpace(dest)
	}
	return ""
}

func extractBudget(text string) float64 {
	m := budgetPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}

	var amount float64
	if v, err := strconv.ParseFloat(m[1], 64); err == nil {
		amount = v
	} else {
		amount = float64(numeral.ToInt(m[1]))
	}
	if amount <= 0 {
		return 0
	}
	return math.Round(amount * magnitudeValues[m[2]])
}

func extractTravelers(text string) int {
	if m := travelersPattern.FindStringSubmatch(text); m != nil {
		n := numeral.ToInt(m[1])
		if n < 1 {
			n = 1
		}
		return n
	}
	for _, h := range travelerPhrases {
		if strings.Contains(text, h.phrase) {
			return h.count
		}
	}
	return 0
}

func extractDates(text string, now time.Time) (start, end string) {
	dates := make([]string, 0, 2)
	for _, m := range isoDatePattern.FindAllStringSubmatch(text, 2) {
		if d, ok := buildDate(m[1], m[2], m[3]); ok {
			dates = append(dates, d)
		}
		if len(dates) == 2 {
			break
		}
	}
	if len(dates) == 0 {
		year := strconv.Itoa(now.Year())
		for _, m := range cnDatePattern.FindAllStringSubmatch(text, 2) {
			if d, ok := buildDate(year, m[1], m[2]); ok {
				dates = append(dates, d)
			}
			if len(dates) == 2 {
				break
			}
		}
	}

	switch len(dates) {
	case 0:
		return "", ""
	case 1:
		start = dates[0]
	default:
		return dates[0], dates[1]
	}

	// A start without an end: look for a trip-length phrase. Date literals
	// are blanked out first so the 日 of 5月1日 is not read as a duration.
	scratch := isoDatePattern.ReplaceAllString(text, " ")
	scratch = cnDatePattern.ReplaceAllString(scratch, " ")
	if m := durationPattern.FindString(scratch); m != "" {
		token := strings.TrimRight(strings.TrimSpace(m), "天日")
		if days := numeral.ToInt(strings.TrimSpace(token)); days >= 1 {
			from, err := time.Parse(isoDate, start)
			if err == nil {
				end = from.AddDate(0, 0, days-1).Format(isoDate)
			}
		}
	}
	return start, end
}

// buildDate assembles an ISO date and rejects constructions that do not
// round-trip, such as month 13 or February 30.
func buildDate(year, month, day string) (string, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if y < 1 || m < 1 || m > 12 || d < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format(isoDate), true
}
