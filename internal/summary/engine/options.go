package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	UnclassifiedTitle = "Unclassified"

	TitleBattery = "Battery"
	TitleTire    = "Tire"
	TitleGPS     = "GPS"
)

// Options carries the deployment-specific constants of a run.
type Options struct {
	Location *time.Location
	VATRate  decimal.Decimal
	// DeductionPrefixes flag rows whose label starts with one of them as
	// deposit deductions when the taxonomy item does not say so itself.
	DeductionPrefixes []string
	// ComponentTitles maps the battery/tire/GPS components to report titles.
	ComponentTitles ComponentTitles
	UnclassifiedTitle string
}

type ComponentTitles struct {
	Battery string
	Tire    string
	GPS     string
}

func DefaultOptions() Options {
	return Options{
		Location:          time.UTC,
		VATRate:           decimal.NewFromFloat(0.07),
		DeductionPrefixes: []string{"หักเงินมัดจำ", "deduct deposit"},
		ComponentTitles: ComponentTitles{
			Battery: TitleBattery,
			Tire:    TitleTire,
			GPS:     TitleGPS,
		},
		UnclassifiedTitle: UnclassifiedTitle,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Location == nil {
		o.Location = def.Location
	}
	if o.ComponentTitles.Battery == "" {
		o.ComponentTitles.Battery = def.ComponentTitles.Battery
	}
	if o.ComponentTitles.Tire == "" {
		o.ComponentTitles.Tire = def.ComponentTitles.Tire
	}
	if o.ComponentTitles.GPS == "" {
		o.ComponentTitles.GPS = def.ComponentTitles.GPS
	}
	if o.UnclassifiedTitle == "" {
		o.UnclassifiedTitle = def.UnclassifiedTitle
	}
	return o
}
