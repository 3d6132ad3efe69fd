// Package numeral converts Chinese numeral strings to integers.
package numeral

import "strconv"

var digits = map[rune]int{
	'零': 0, '〇': 0,
	'一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
	'0': 0, '1': 1, '2': 2, '3': 3, '4': 4,
	'5': 5, '6': 6, '7': 7, '8': 8, '9': 9,
}

var magnitudes = map[rune]int{
	'十': 10,
	'百': 100,
	'千': 1000,
	'万': 10000,
}

// ToInt converts a numeral token to an integer. Plain decimal strings are
// parsed directly; otherwise the token is scanned as a Chinese numeral.
// Unrecognized runes are skipped, so an empty or garbage token yields 0.
func ToInt(token string) int {
	if n, err := strconv.Atoi(token); err == nil {
		return n
	}
	return parseChinese(token)
}

// parseChinese scans left to right keeping a running total above the 万
// boundary (result), an accumulator below it (section), and the digit
// waiting for its magnitude (pending). A magnitude with no preceding digit
// counts as one, so 十 alone is 10. A trailing digit after a magnitude is
// read colloquially: 两千五 is 2500, 一万二 is 12000.
func parseChinese(token string) int {
	var result, section, pending int
	hasPending := false
	lastUnit := 0

	for _, r := range token {
		if d, ok := digits[r]; ok {
			pending = d
			hasPending = true
			continue
		}
		m, ok := magnitudes[r]
		if !ok {
			continue
		}
		if m == 10000 {
			result = (result + section + pending) * 10000
			section = 0
		} else {
			if !hasPending {
				pending = 1
			}
			section += pending * m
		}
		pending = 0
		hasPending = false
		lastUnit = m
	}

	if hasPending && pending > 0 && lastUnit >= 10 {
		return result + section + pending*lastUnit/10
	}
	return result + section + pending
}
