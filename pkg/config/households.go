package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a household does not configure its own values.
var (
	DefaultMembers = []string{"Alex", "Sam"}
	DefaultChores  = []string{"Take out trash", "Vacuum living room", "Clean kitchen", "Laundry"}
)

// Household is one configured chore board.
type Household struct {
	ID             string
	Name           string
	Members        []string
	Chores         []string
	Timezone       string
	RefreshWeekday time.Weekday
	RefreshHour    int
	RefreshMinute  int
	CleanupHour    int
	CleanupMinute  int
}

// Location resolves the household time zone.
func (h Household) Location() (*time.Location, error) {
	if h.Timezone == "" || h.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", h.Timezone, err)
	}
	return loc, nil
}

// householdFile is the YAML shape of CHOREBOARD_HOUSEHOLDS_FILE.
type householdFile struct {
	Households []householdEntry `yaml:"households"`
}

type householdEntry struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Members        []string `yaml:"members"`
	Chores         []string `yaml:"chores"`
	Timezone       string   `yaml:"timezone"`
	RefreshWeekday string   `yaml:"refresh_weekday"`
	RefreshHour    *int     `yaml:"refresh_hour"`
	RefreshMinute  *int     `yaml:"refresh_minute"`
	CleanupHour    *int     `yaml:"cleanup_hour"`
	CleanupMinute  *int     `yaml:"cleanup_minute"`
}

func loadHouseholds(path, timezone string) ([]Household, error) {
	if path != "" {
		return loadHouseholdsFile(path, timezone)
	}
	ids := getListEnv("CHOREBOARD_HOUSEHOLDS", []string{"home"})
	households := make([]Household, 0, len(ids))
	for _, id := range ids {
		households = append(households, householdFromEnv(id, timezone))
	}
	return households, nil
}

// householdFromEnv reads CHOREBOARD_<ID>_* and falls back to the global
// CHOREBOARD_* keys, then to the built-in defaults.
func householdFromEnv(id, timezone string) Household {
	prefix := "CHOREBOARD_" + envKey(id) + "_"
	lookup := func(name, fallback string) string {
		return getEnv(prefix+name, getEnv("CHOREBOARD_"+name, fallback))
	}
	lookupInt := func(name string, fallback int) int {
		return getIntEnv(prefix+name, getIntEnv("CHOREBOARD_"+name, fallback))
	}
	lookupList := func(name string, fallback []string) []string {
		return getListEnv(prefix+name, getListEnv("CHOREBOARD_"+name, fallback))
	}

	return Household{
		ID:             id,
		Name:           lookup("NAME", id),
		Members:        lookupList("MEMBERS", DefaultMembers),
		Chores:         lookupList("CHORES", DefaultChores),
		Timezone:       lookup("TIMEZONE", timezone),
		RefreshWeekday: ParseWeekday(lookup("REFRESH_WEEKDAY", ""), time.Sunday),
		RefreshHour:    clampInt(lookupInt("REFRESH_HOUR", 0), 0, 23),
		RefreshMinute:  clampInt(lookupInt("REFRESH_MINUTE", 30), 0, 59),
		CleanupHour:    clampInt(lookupInt("CLEANUP_HOUR", 3), 0, 23),
		CleanupMinute:  clampInt(lookupInt("CLEANUP_MINUTE", 0), 0, 59),
	}
}

func loadHouseholdsFile(path, timezone string) ([]Household, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read households file: %w", err)
	}
	var file householdFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse households file %s: %w", path, err)
	}

	households := make([]Household, 0, len(file.Households))
	for i, entry := range file.Households {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("households file %s: entry %d has no id", path, i)
		}
		h := Household{
			ID:             id,
			Name:           entry.Name,
			Members:        cleanList(entry.Members, DefaultMembers),
			Chores:         cleanList(entry.Chores, DefaultChores),
			Timezone:       entry.Timezone,
			RefreshWeekday: ParseWeekday(entry.RefreshWeekday, time.Sunday),
			RefreshHour:    clampInt(intOr(entry.RefreshHour, 0), 0, 23),
			RefreshMinute:  clampInt(intOr(entry.RefreshMinute, 30), 0, 59),
			CleanupHour:    clampInt(intOr(entry.CleanupHour, 3), 0, 23),
			CleanupMinute:  clampInt(intOr(entry.CleanupMinute, 0), 0, 59),
		}
		if h.Name == "" {
			h.Name = id
		}
		if h.Timezone == "" {
			h.Timezone = timezone
		}
		households = append(households, h)
	}
	return households, nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday accepts a weekday name or a Monday-based index 0..6 and
// returns fallback for anything else.
func ParseWeekday(value string, fallback time.Weekday) time.Weekday {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	if day, ok := weekdayNames[value]; ok {
		return day
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 0 && n <= 6 {
		return time.Weekday((n + 1) % 7)
	}
	return fallback
}

func envKey(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, id)
}

func cleanList(items, fallback []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
