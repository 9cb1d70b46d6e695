/*-------------------------------------------------------------------------
 *
 * setters.go
 *    Checklist key to intake field dispatch
 *
 * Maps each checklist key to the intake column it mutates, the previous
 * value captured for reversibility, and the conversion from the stored
 * jsonb proposed value. Unknown keys resolve to a no-op with a nil
 * previous value; the apply engine logs that as a warning.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/actionrequests/setters.go
 *
 *-------------------------------------------------------------------------
 */

package actionrequests

import (
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/lib/pq"
)

type fieldSetter struct {
	column   string
	previous func(*db.Intake) interface{}
	convert  func(db.JSONBValue) interface{}
}

func asText(v db.JSONBValue) interface{} { return v.String() }

func asTextArray(v db.JSONBValue) interface{} {
	switch vv := v.V.(type) {
	case []interface{}:
		out := make(pq.StringArray, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return pq.StringArray(vv)
	case string:
		return pq.StringArray{vv}
	default:
		return pq.StringArray{}
	}
}

func asJSONB(v db.JSONBValue) interface{} { return v }

func prevText(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func prevTextArray(a pq.StringArray) interface{} {
	if a == nil {
		return nil
	}
	return []string(a)
}

var fieldSetters = map[string]fieldSetter{
	/* The homepage headline is derived from the business name */
	"homepage.headline": {
		column:   "business_name",
		previous: func(i *db.Intake) interface{} { return i.BusinessName },
		convert:  asText,
	},
	"homepage.subheadline": {
		column:   "tagline",
		previous: func(i *db.Intake) interface{} { return prevText(i.Tagline) },
		convert:  asText,
	},
	"homepage.tagline": {
		column:   "tagline",
		previous: func(i *db.Intake) interface{} { return prevText(i.Tagline) },
		convert:  asText,
	},
	"homepage.about": {
		column:   "about",
		previous: func(i *db.Intake) interface{} { return prevText(i.About) },
		convert:  asText,
	},
	"homepage.services": {
		column:   "services",
		previous: func(i *db.Intake) interface{} { return prevTextArray(i.Services) },
		convert:  asTextArray,
	},
	"contact.phone": {
		column:   "phone",
		previous: func(i *db.Intake) interface{} { return prevText(i.Phone) },
		convert:  asText,
	},
	"contact.email": {
		column:   "email",
		previous: func(i *db.Intake) interface{} { return i.Email },
		convert:  asText,
	},
	"contact.booking_link": {
		column:   "booking_link",
		previous: func(i *db.Intake) interface{} { return prevText(i.BookingLink) },
		convert:  asText,
	},
	"cta.primary": {
		column:   "primary_cta",
		previous: func(i *db.Intake) interface{} { return prevText(i.PrimaryCTA) },
		convert:  asText,
	},
	"service_area.zips": {
		column:   "service_area",
		previous: func(i *db.Intake) interface{} { return prevTextArray(i.ServiceArea) },
		convert:  asTextArray,
	},
	"gmb.category": {
		column:   "gmb_category",
		previous: func(i *db.Intake) interface{} { return prevText(i.GMBCategory) },
		convert:  asText,
	},
	"branding.colors": {
		column:   "brand_colors",
		previous: func(i *db.Intake) interface{} { return map[string]interface{}(i.BrandColors) },
		convert:  asJSONB,
	},
}

/* resolveChange computes the column update and previous value for a
 * checklist key. known is false for unmapped keys. */
func resolveChange(intake *db.Intake, checklistKey string, proposedValue db.JSONBValue) (previous interface{}, updates map[string]interface{}, known bool) {
	setter, ok := fieldSetters[checklistKey]
	if !ok {
		return nil, nil, false
	}
	previous = setter.previous(intake)
	updates = map[string]interface{}{setter.column: setter.convert(proposedValue)}
	return previous, updates, true
}
