// Package dateutil formats dates through locale-aware, user-friendly
// patterns used by front-matter attribute substitution.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxPatternLength limits pattern length to prevent abuse.
const MaxPatternLength = 64

// DefaultLocale is used when no locale matches.
const DefaultLocale = "en-US"

// DefaultPattern is applied when a document declares no date format.
const DefaultPattern = "yyyy-MM-dd"

// Presets provides named shortcuts for common date patterns. A
// dateFormat value that matches no preset is treated as a literal
// pattern.
var Presets = map[string]string{
	"iso":      "yyyy-MM-dd",
	"short":    "M/d/yyyy",
	"medium":   "MMM d, yyyy",
	"long":     "MMMM d, yyyy",
	"full":     "dddd, MMMM d, yyyy",
	"european": "dd/MM/yyyy",
}

// localeTable holds the localized name strings for one culture.
type localeTable struct {
	months      [12]string
	monthsAbbr  [12]string
	days        [7]string // Sunday first, matching time.Weekday
	daysAbbr    [7]string
	am, pm      string
	era         string
}

var locales = map[string]localeTable{
	"en-US": {
		months:     [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		monthsAbbr: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		days:       [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		daysAbbr:   [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		am:         "AM", pm: "PM", era: "AD",
	},
	"fr-FR": {
		months:     [12]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		monthsAbbr: [12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
		days:       [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
		daysAbbr:   [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
		am:         "AM", pm: "PM", era: "ap. J.-C.",
	},
	"de-DE": {
		months:     [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		monthsAbbr: [12]string{"Jan", "Feb", "Mär", "Apr", "Mai", "Jun", "Jul", "Aug", "Sep", "Okt", "Nov", "Dez"},
		days:       [7]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
		daysAbbr:   [7]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"},
		am:         "vorm.", pm: "nachm.", era: "n. Chr.",
	},
	"ja-JP": {
		months:     [12]string{"1月", "2月", "3月", "4月", "5月", "6月", "7月", "8月", "9月", "10月", "11月", "12月"},
		monthsAbbr: [12]string{"1月", "2月", "3月", "4月", "5月", "6月", "7月", "8月", "9月", "10月", "11月", "12月"},
		days:       [7]string{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"},
		daysAbbr:   [7]string{"日", "月", "火", "水", "木", "金", "土"},
		am:         "午前", pm: "午後", era: "西暦",
	},
}

// lookupLocale resolves a culture identifier, trying the exact tag
// first and then the language prefix, falling back to en-US.
func lookupLocale(locale string) localeTable {
	if lt, ok := locales[locale]; ok {
		return lt
	}
	if idx := strings.IndexByte(locale, '-'); idx > 0 {
		lang := locale[:idx]
		for tag, lt := range locales {
			if strings.HasPrefix(tag, lang+"-") {
				return lt
			}
		}
	}
	return locales[DefaultLocale]
}

// ResolvePattern maps a named preset to its pattern; any other value
// is returned unchanged and treated as a literal pattern.
func ResolvePattern(nameOrPattern string) string {
	if nameOrPattern == "" {
		return DefaultPattern
	}
	if preset, ok := Presets[strings.ToLower(nameOrPattern)]; ok {
		return preset
	}
	return nameOrPattern
}

// tokens ordered by length descending for greedy matching.
var tokens = []string{
	"dddd", "MMMM", "yyyy", "fff", "ddd", "MMM",
	"dd", "MM", "yy", "HH", "hh", "mm", "ss", "tt", "gg",
	"d", "M", "H", "h", "m", "s", "t",
}

// Format renders t using a user-friendly pattern and the given
// locale. Bracketed text is preserved literally: "[Date:] yyyy".
// Unrecognized characters pass through unchanged.
func Format(t time.Time, nameOrPattern, locale string) (string, error) {
	pattern := ResolvePattern(nameOrPattern)
	if len(pattern) > MaxPatternLength {
		return "", fmt.Errorf("%w: pattern exceeds %d characters", ErrInvalidDateFormat, MaxPatternLength)
	}

	lt := lookupLocale(locale)

	var b strings.Builder
	b.Grow(len(pattern) + 8)

	i := 0
	for i < len(pattern) {
		if pattern[i] == '[' {
			end := strings.Index(pattern[i+1:], "]")
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			b.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(pattern[i:], tok) {
				b.WriteString(renderToken(tok, t, lt))
				i += len(tok)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}

	return b.String(), nil
}

// renderToken expands one pattern token against the time value.
func renderToken(tok string, t time.Time, lt localeTable) string {
	switch tok {
	case "yyyy":
		return fmt.Sprintf("%04d", t.Year())
	case "yy":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMM":
		return lt.months[t.Month()-1]
	case "MMM":
		return lt.monthsAbbr[t.Month()-1]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "dddd":
		return lt.days[t.Weekday()]
	case "ddd":
		return lt.daysAbbr[t.Weekday()]
	case "dd":
		return fmt.Sprintf("%02d", t.Day())
	case "d":
		return strconv.Itoa(t.Day())
	case "HH":
		return fmt.Sprintf("%02d", t.Hour())
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return fmt.Sprintf("%02d", hour12(t))
	case "h":
		return strconv.Itoa(hour12(t))
	case "mm":
		return fmt.Sprintf("%02d", t.Minute())
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return fmt.Sprintf("%02d", t.Second())
	case "s":
		return strconv.Itoa(t.Second())
	case "fff":
		return fmt.Sprintf("%03d", t.Nanosecond()/1e6)
	case "tt":
		return designator(t, lt)
	case "t":
		for _, r := range designator(t, lt) {
			return string(r)
		}
		return ""
	case "gg":
		return lt.era
	}
	// No named expansion: keep the literal token.
	return tok
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return h
}

func designator(t time.Time, lt localeTable) string {
	if t.Hour() < 12 {
		return lt.am
	}
	return lt.pm
}
