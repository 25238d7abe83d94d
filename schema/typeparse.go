package schema

import (
	"regexp"
	"strconv"
	"strings"
)

// trailingUnsignedRe matches a trailing "unsigned" (and the zerofill
// modifier MySQL sometimes tacks on alongside it) so it can be stripped
// before the base type / size split.
var trailingUnsignedRe = regexp.MustCompile(`(?i)\s+(unsigned|zerofill)\b`)

// ParseColumnType parses a MySQL `SHOW FULL COLUMNS` Type string such as
// "varchar(255)", "decimal(6,2) unsigned", or
// "enum('a','b','c')" into a DataType plus its size arguments.
func ParseColumnType(raw string) (dt DataType, unsigned bool, length, precision, scale int, enumValues []string) {
	work := raw
	for trailingUnsignedRe.MatchString(work) {
		if strings.Contains(strings.ToLower(work), "unsigned") {
			unsigned = true
		}
		work = trailingUnsignedRe.ReplaceAllString(work, "")
	}
	work = strings.TrimSpace(work)

	base := work
	var args string
	if strings.HasSuffix(work, ")") {
		if idx := strings.LastIndex(work, "("); idx >= 0 {
			base = strings.TrimSpace(work[:idx])
			args = work[idx+1 : len(work)-1]
		}
	}

	dt = DataType(strings.ToLower(base))

	switch dt {
	case TypeEnum, TypeSet:
		enumValues = splitEnumLiterals(args)
	case TypeChar, TypeVarchar:
		if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil {
			length = n
		}
	case TypeFloat, TypeDecimal:
		parts := strings.SplitN(args, ",", 2)
		if len(parts) == 2 {
			precision, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
			scale, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
		} else if len(parts) == 1 && strings.TrimSpace(parts[0]) != "" {
			precision, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
		}
	default:
		// Integer display widths and the arguments of any other type
		// are discarded; value generation does not use them.
	}

	return dt, unsigned, length, precision, scale, enumValues
}

// splitEnumLiterals turns "'a','b','c'" into ["a","b","c"], stripping
// the surrounding quotes MySQL always wraps enum/set literals in.
func splitEnumLiterals(args string) []string {
	if strings.TrimSpace(args) == "" {
		return nil
	}
	raw := strings.Split(args, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		r = strings.Trim(r, "'")
		out = append(out, r)
	}
	return out
}

// normalizeTimestampExpr lower-cases and strips an optional fractional
// precision argument (CURRENT_TIMESTAMP(3)) so equality against the
// literal "current_timestamp" catches both spellings.
func normalizeTimestampExpr(expr string) string {
	e := strings.ToLower(strings.TrimSpace(expr))
	if idx := strings.Index(e, "("); idx >= 0 {
		e = e[:idx]
	}
	return strings.TrimSpace(e)
}
