package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// articlePattern finds "điều N" / "khoản N" legal references. RE2 has no
// negative lookahead, so the unit-word exclusion ("5 năm" is a duration, not
// Article 5) is a separate check on the word following the number.
var articlePattern = regexp.MustCompile(`(?i)(điều|khoản)\s+(\d+)`)

var quantityUnits = map[string]struct{}{
	"năm": {}, "tháng": {}, "ngày": {}, "giờ": {}, "phút": {}, "giây": {},
	"triệu": {}, "tỷ": {}, "nghìn": {}, "trăm": {},
	"đồng": {}, "vnd": {}, "usd": {},
}

// DetectArticleReference classifies a query as targeted or general. It
// returns the normalized article identifier ("Điều <N>") when the query names
// a specific statute article, and ok=false for general queries.
func DetectArticleReference(query string) (string, bool) {
	for _, match := range articlePattern.FindAllStringSubmatchIndex(query, -1) {
		start, end := match[0], match[1]
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(query[:start])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				continue
			}
		}
		if next, _ := utf8.DecodeRuneInString(query[end:]); unicode.IsDigit(next) {
			continue
		}
		if word := wordAfterSpaces(query[end:]); word != "" {
			if _, unit := quantityUnits[strings.ToLower(word)]; unit {
				continue
			}
		}
		return fmt.Sprintf("Điều %s", query[match[4]:match[5]]), true
	}
	return "", false
}

func wordAfterSpaces(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 || !unicode.IsSpace(r) {
			break
		}
	}
	return b.String()
}
