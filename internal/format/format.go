package format

import (
    "fmt"
    "strings"
    "time"
)

var arabicMonths = [...]string{
    "يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
    "يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

var arabicDigits = strings.NewReplacer(
    "0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
    "5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
)

// Date formats time in a locale-friendly long form. Zero times render empty.
func Date(t time.Time, lang string) string {
    if t.IsZero() {
        return ""
    }
    switch strings.ToLower(lang) {
    case "ar":
        return arabicDigits.Replace(fmt.Sprintf("%d %s %d", t.Day(), arabicMonths[t.Month()-1], t.Year()))
    default:
        return t.Format("January 2, 2006")
    }
}

// ISODate renders the date part for machine readable attributes.
func ISODate(t time.Time) string {
    if t.IsZero() {
        return ""
    }
    return t.UTC().Format("2006-01-02")
}
