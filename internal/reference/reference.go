// Package reference holds the clinical reference data the triage pipeline
// evaluates inputs against: vital-sign bands, risk keyword sets, literature
// query mappings, and the option lists accepted at input validation.
package reference

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed reference.yaml
var embedded []byte

// ErrInvalidReference indicates reference data failed validation.
var ErrInvalidReference = errors.New("invalid reference data")

// Band is a closed numeric interval.
type Band struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v lies within the band, bounds included.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// HeartRate holds the normal heart rate band in beats per minute.
type HeartRate struct {
	Normal Band `yaml:"normal" json:"normal"`
}

// Pressure holds blood pressure thresholds in mmHg.
type Pressure struct {
	Normal       Band    `yaml:"normal" json:"normal"`
	Hypertension float64 `yaml:"hypertension" json:"hypertension"`
	Hypotension  float64 `yaml:"hypotension,omitempty" json:"hypotension,omitempty"`
}

// Temperature holds body temperature thresholds in degrees Celsius.
type Temperature struct {
	Normal        Band    `yaml:"normal" json:"normal"`
	Fever         float64 `yaml:"fever" json:"fever"`
	LowGradeFever float64 `yaml:"low_grade_fever" json:"low_grade_fever"`
	Hypothermia   float64 `yaml:"hypothermia" json:"hypothermia"`
}

// Vitals groups the reference bands for every vital sign.
type Vitals struct {
	HeartRate   HeartRate   `yaml:"heart_rate" json:"heart_rate"`
	Systolic    Pressure    `yaml:"systolic" json:"systolic"`
	Diastolic   Pressure    `yaml:"diastolic" json:"diastolic"`
	Temperature Temperature `yaml:"temperature" json:"temperature"`
}

// Keywords are the case-insensitive terms scanned for in synthesis text.
type Keywords struct {
	High     []string `yaml:"high" json:"high"`
	Moderate []string `yaml:"moderate" json:"moderate"`
}

// QueryMapping translates structured findings into literature search terms.
type QueryMapping struct {
	Default  string            `yaml:"default" json:"default"`
	Audio    map[string]string `yaml:"audio" json:"audio"`
	Symptoms map[string]string `yaml:"symptoms" json:"symptoms"`
	Vitals   map[string]string `yaml:"vitals" json:"vitals"`
}

// SymptomOption is a selectable checklist entry.
type SymptomOption struct {
	Tag   string `yaml:"tag" json:"tag"`
	Label string `yaml:"label" json:"label"`
}

// Options lists the categorical values accepted as triage input.
type Options struct {
	NormalLabel string          `yaml:"normal_label" json:"normal_label"`
	AudioLabels []string        `yaml:"audio_labels" json:"audio_labels"`
	Symptoms    []SymptomOption `yaml:"symptoms" json:"symptoms"`
	Durations   []string        `yaml:"durations" json:"durations"`
}

// Data is the complete reference set.
type Data struct {
	Vitals   Vitals       `yaml:"vitals" json:"vitals"`
	Keywords Keywords     `yaml:"keywords" json:"keywords"`
	Query    QueryMapping `yaml:"query" json:"query"`
	Options  Options      `yaml:"options" json:"options"`
}

var defaultData = sync.OnceValues(func() (*Data, error) {
	return Parse(embedded)
})

// Default returns the embedded reference data. The embedded file is part of
// the build, so a parse failure is a programming error and panics.
func Default() *Data {
	d, err := defaultData()
	if err != nil {
		panic(fmt.Sprintf("embedded reference data: %v", err))
	}
	return d
}

// Parse decodes and validates reference data.
func Parse(data []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Load returns the embedded data overlaid with the file at path.
// An empty path returns the embedded data unchanged.
func Load(path string) (*Data, error) {
	base := *Default()
	if path == "" {
		return &base, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference %s: %w", path, err)
	}

	var overlay Data
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}

	base.Merge(&overlay)
	if err := base.validate(); err != nil {
		return nil, err
	}
	return &base, nil
}

// Merge overwrites non-zero fields from overlay. Vital thresholds merge one
// field at a time; maps and lists replace the base value wholesale.
func (d *Data) Merge(overlay *Data) {
	d.Vitals.merge(&overlay.Vitals)
	if overlay.Keywords.High != nil {
		d.Keywords.High = overlay.Keywords.High
	}
	if overlay.Keywords.Moderate != nil {
		d.Keywords.Moderate = overlay.Keywords.Moderate
	}
	if overlay.Query.Default != "" {
		d.Query.Default = overlay.Query.Default
	}
	if overlay.Query.Audio != nil {
		d.Query.Audio = overlay.Query.Audio
	}
	if overlay.Query.Symptoms != nil {
		d.Query.Symptoms = overlay.Query.Symptoms
	}
	if overlay.Query.Vitals != nil {
		d.Query.Vitals = overlay.Query.Vitals
	}
	if overlay.Options.NormalLabel != "" {
		d.Options.NormalLabel = overlay.Options.NormalLabel
	}
	if overlay.Options.AudioLabels != nil {
		d.Options.AudioLabels = overlay.Options.AudioLabels
	}
	if overlay.Options.Symptoms != nil {
		d.Options.Symptoms = overlay.Options.Symptoms
	}
	if overlay.Options.Durations != nil {
		d.Options.Durations = overlay.Options.Durations
	}
}

// HasSymptom reports whether tag is a known checklist tag.
func (o *Options) HasSymptom(tag string) bool {
	return slices.ContainsFunc(o.Symptoms, func(s SymptomOption) bool {
		return s.Tag == tag
	})
}

// SymptomLabel returns the display label for tag, or tag itself when unknown.
func (o *Options) SymptomLabel(tag string) string {
	for _, s := range o.Symptoms {
		if s.Tag == tag {
			return s.Label
		}
	}
	return tag
}

// HasDuration reports whether d is a known duration option.
func (o *Options) HasDuration(d string) bool {
	return slices.Contains(o.Durations, d)
}

// HasAudioLabel reports whether label is a known classifier label.
func (o *Options) HasAudioLabel(label string) bool {
	return slices.ContainsFunc(o.AudioLabels, func(l string) bool {
		return strings.EqualFold(l, label)
	})
}

// IsNormalLabel reports whether label is the classifier's normal class.
func (o *Options) IsNormalLabel(label string) bool {
	return strings.EqualFold(o.NormalLabel, label)
}

func (v *Vitals) merge(o *Vitals) {
	v.HeartRate.Normal.merge(o.HeartRate.Normal)
	v.Systolic.merge(&o.Systolic)
	v.Diastolic.merge(&o.Diastolic)

	t, ot := &v.Temperature, &o.Temperature
	t.Normal.merge(ot.Normal)
	mergeFloat(&t.Fever, ot.Fever)
	mergeFloat(&t.LowGradeFever, ot.LowGradeFever)
	mergeFloat(&t.Hypothermia, ot.Hypothermia)
}

func (p *Pressure) merge(o *Pressure) {
	p.Normal.merge(o.Normal)
	mergeFloat(&p.Hypertension, o.Hypertension)
	mergeFloat(&p.Hypotension, o.Hypotension)
}

func (b *Band) merge(o Band) {
	mergeFloat(&b.Min, o.Min)
	mergeFloat(&b.Max, o.Max)
}

func mergeFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func (d *Data) validate() error {
	if err := d.Vitals.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	if d.Query.Default == "" {
		return fmt.Errorf("%w: query default required", ErrInvalidReference)
	}
	if d.Options.NormalLabel == "" {
		return fmt.Errorf("%w: options normal_label required", ErrInvalidReference)
	}
	if len(d.Options.Symptoms) == 0 || len(d.Options.Durations) == 0 {
		return fmt.Errorf("%w: symptom and duration options required", ErrInvalidReference)
	}
	return nil
}

// validate checks that every band is ordered and that each threshold is
// positive and sits on the correct side of the others. A zero threshold
// would flag every reading, so it is never accepted.
func (v *Vitals) validate() error {
	bands := []struct {
		name string
		band Band
	}{
		{"heart_rate", v.HeartRate.Normal},
		{"systolic", v.Systolic.Normal},
		{"diastolic", v.Diastolic.Normal},
		{"temperature", v.Temperature.Normal},
	}
	for _, b := range bands {
		if b.band.Min >= b.band.Max {
			return fmt.Errorf("%s band min %v must be below max %v", b.name, b.band.Min, b.band.Max)
		}
	}

	sys, dia, temp := v.Systolic, v.Diastolic, v.Temperature
	switch {
	case sys.Hypotension <= 0 || sys.Hypertension <= 0:
		return errors.New("systolic hypotension and hypertension thresholds required")
	case sys.Hypotension >= sys.Hypertension:
		return fmt.Errorf("systolic hypotension %v must be below hypertension %v", sys.Hypotension, sys.Hypertension)
	case dia.Hypertension <= 0:
		return errors.New("diastolic hypertension threshold required")
	case dia.Hypotension < 0 || (dia.Hypotension > 0 && dia.Hypotension >= dia.Hypertension):
		return fmt.Errorf("diastolic hypotension %v must be below hypertension %v", dia.Hypotension, dia.Hypertension)
	case temp.Hypothermia <= 0 || temp.LowGradeFever <= 0 || temp.Fever <= 0:
		return errors.New("temperature hypothermia, low_grade_fever and fever thresholds required")
	case temp.Hypothermia >= temp.LowGradeFever || temp.LowGradeFever > temp.Fever:
		return fmt.Errorf("temperature thresholds must satisfy hypothermia %v < low_grade_fever %v <= fever %v",
			temp.Hypothermia, temp.LowGradeFever, temp.Fever)
	}
	return nil
}
