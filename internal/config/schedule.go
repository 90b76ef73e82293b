package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Job is one cron-triggered reminder run.
type Job struct {
	Name         string `yaml:"name"`
	Cron         string `yaml:"cron"`
	DaysOut      int    `yaml:"days_out"`
	Filled       bool   `yaml:"filled"`
	Unfilled     bool   `yaml:"unfilled"`
	AdminSummary bool   `yaml:"admin_summary"`
}

// Schedule is the reminder daemon's YAML file.
type Schedule struct {
	// Timezone is the IANA zone cron expressions and reminder windows are
	// evaluated in. Empty means the process local zone.
	Timezone string `yaml:"timezone"`
	Jobs     []Job  `yaml:"jobs"`
}

// DefaultSchedule mirrors the production cron callers: tomorrow's personal
// and unfilled reminders, and a weekly admin summary for the coming day.
func DefaultSchedule() *Schedule {
	return &Schedule{
		Jobs: []Job{
			{Name: "daily", Cron: "0 8 * * *", DaysOut: 1, Filled: true, Unfilled: true},
			{Name: "admin-summary", Cron: "0 7 * * *", DaysOut: 1, AdminSummary: true},
		},
	}
}

// LoadSchedule reads and validates a schedule file. A missing file yields
// the default schedule.
func LoadSchedule(path string) (*Schedule, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSchedule(), nil
	}
	if err != nil {
		return nil, err
	}
	return ParseSchedule(b)
}

func ParseSchedule(b []byte) (*Schedule, error) {
	var s Schedule
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schedule) Validate() error {
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
		}
	}
	seen := make(map[string]bool, len(s.Jobs))
	for i, j := range s.Jobs {
		name := strings.TrimSpace(j.Name)
		if name == "" {
			return fmt.Errorf("job %d: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("job %q: duplicate name", name)
		}
		seen[name] = true
		if strings.TrimSpace(j.Cron) == "" {
			return fmt.Errorf("job %q: cron is required", name)
		}
		if j.DaysOut < 0 {
			return fmt.Errorf("job %q: days_out must not be negative", name)
		}
		if !j.Filled && !j.Unfilled && !j.AdminSummary {
			return fmt.Errorf("job %q: no lane enabled", name)
		}
	}
	return nil
}

// Location resolves Timezone, defaulting to time.Local.
func (s *Schedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
