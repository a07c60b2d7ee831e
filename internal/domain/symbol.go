package domain

import (
	"regexp"
	"strings"
)

var (
	cnBareRx   = regexp.MustCompile(`^\d{6}$`)
	cnPrefixRx = regexp.MustCompile(`^(?i)(sh|sz)(\d{6})$`)
	cnSuffixRx = regexp.MustCompile(`^(?i)(\d{6})\.(ss|sz)$`)
)

// IsCNSymbol reports whether s looks like a mainland China listing:
// a bare 6-digit code, an SH/SZ prefixed code, or a .SS/.SZ suffixed code.
func IsCNSymbol(s string) bool {
	s = strings.TrimSpace(s)
	return cnBareRx.MatchString(s) || cnPrefixRx.MatchString(s) || cnSuffixRx.MatchString(s)
}

// CNMarket splits a CN symbol into its exchange ("sh" or "sz") and 6-digit code.
// Bare codes are classified by their first digit: 6, 5 and 9 are Shanghai,
// everything else Shenzhen. Codes starting with 5 are assumed to be Shanghai ETFs,
// which does not hold for every fund.
func CNMarket(s string) (market, code string, ok bool) {
	s = strings.TrimSpace(s)
	if m := cnPrefixRx.FindStringSubmatch(s); m != nil {
		return strings.ToLower(m[1]), m[2], true
	}
	if m := cnSuffixRx.FindStringSubmatch(s); m != nil {
		if strings.EqualFold(m[2], "ss") {
			return "sh", m[1], true
		}
		return "sz", m[1], true
	}
	if cnBareRx.MatchString(s) {
		switch s[0] {
		case '6', '5', '9':
			return "sh", s, true
		default:
			return "sz", s, true
		}
	}
	return "", "", false
}

// ExchangeCode returns the "sh600519" form used by Tencent and Sina.
func ExchangeCode(s string) string {
	market, code, ok := CNMarket(s)
	if !ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return market + code
}

// YahooSymbol returns the ticker Yahoo expects: 600519.SS / 000001.SZ for CN codes,
// the upper-cased input otherwise.
func YahooSymbol(s string) string {
	market, code, ok := CNMarket(s)
	if !ok {
		return strings.ToUpper(strings.TrimSpace(s))
	}
	if market == "sh" {
		return code + ".SS"
	}
	return code + ".SZ"
}

// NormalizeSymbol upper-cases and trims a user supplied symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
