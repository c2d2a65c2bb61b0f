package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the per-course deployment tuning file. Courses differ in
// release horizon (21 vs 30 days), release time and timezone; the profile
// overrides the env defaults without redeploying.
type Profile struct {
	Timezone    string `yaml:"timezone"`
	HorizonDays int    `yaml:"horizon_days"`
	ReleaseTime string `yaml:"release_time"`
	PartySize   int    `yaml:"party_size"`
}

func LoadProfile(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

func (p Profile) apply(cfg *Config) error {
	if p.Timezone != "" {
		cfg.Timezone = p.Timezone
	}
	if p.HorizonDays > 0 {
		cfg.HorizonDays = p.HorizonDays
	}
	if p.PartySize > 0 {
		cfg.PartySize = p.PartySize
	}
	if p.ReleaseTime != "" {
		h, m, err := parseRelease(p.ReleaseTime)
		if err != nil {
			return err
		}
		cfg.ReleaseHour, cfg.ReleaseMinute = h, m
	}
	return nil
}
