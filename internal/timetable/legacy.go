package timetable

import (
	"regexp"
	"sort"
	"time"
)

// legacyRange matches 24-hour ranges such as "09:00-11:00" or "13:00 - 14:00".
var legacyRange = regexp.MustCompile(`\b(\d{1,2}:\d{2})\s*-\s*(\d{1,2}:\d{2})\b`)

// canonicalTime rewrites every 24-hour range in s to the 12-hour display
// form. Ranges that do not parse as clock times are left alone.
func canonicalTime(s string) string {
	return legacyRange.ReplaceAllStringFunc(s, func(m string) string {
		sub := legacyRange.FindStringSubmatch(m)
		from, err := time.Parse("15:04", sub[1])
		if err != nil {
			return m
		}
		to, err := time.Parse("15:04", sub[2])
		if err != nil {
			return m
		}
		return from.Format("3:04 PM") + " - " + to.Format("3:04 PM")
	})
}

// NormalizeLegacyTimes returns a copy of data with every legacy 24-hour slot
// key and time slot rewritten to canonical form. Applying it twice yields the
// same result as applying it once. When a rewritten key collides with a key
// that was already canonical, the canonical entry is kept.
func NormalizeLegacyTimes(data Data) Data {
	out := make(Data, len(data))
	for scope, entries := range data {
		normalized := make(Entries, len(entries))
		var legacy []SlotKey
		for k, e := range entries {
			nk := SlotKey(canonicalTime(string(k)))
			if nk != k {
				legacy = append(legacy, k)
				continue
			}
			e.TimeSlot = TimeSlot(canonicalTime(string(e.TimeSlot)))
			normalized[k] = e
		}
		sort.Slice(legacy, func(i, j int) bool { return legacy[i] < legacy[j] })
		for _, k := range legacy {
			nk := SlotKey(canonicalTime(string(k)))
			if _, taken := normalized[nk]; taken {
				continue
			}
			e := entries[k]
			e.TimeSlot = TimeSlot(canonicalTime(string(e.TimeSlot)))
			normalized[nk] = e
		}
		out[scope] = normalized
	}
	return out
}
