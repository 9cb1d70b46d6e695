/*-------------------------------------------------------------------------
 *
 * catalog.go
 *    Day-0 question catalog
 *
 * The fixed, ordered sequence of onboarding questions the sequencer
 * walks for every paid intake. Steps are data: a checklist key, a send
 * delay, and a pure proposed-value generator over the intake.
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    internal/sequencer/catalog.go
 *
 *-------------------------------------------------------------------------
 */

package sequencer

import (
	"fmt"

	"github.com/launchbase/actionrequests/internal/db"
)

/* Step is one catalog entry */
type Step struct {
	ID            int
	ChecklistKey  string
	MessageType   string
	QuestionText  string
	DelayMinutes  int
	GenerateValue func(intake *db.Intake) interface{}
}

/* Day0Sequence is the first-questions cadence for a fresh paid intake */
var Day0Sequence = []Step{
	{
		ID:           1,
		ChecklistKey: "homepage.headline",
		MessageType:  "DAY0_HEADLINE",
		QuestionText: "Approve your homepage headline",
		DelayMinutes: 120, /* 2 hours after payment */
		GenerateValue: func(intake *db.Intake) interface{} {
			trade := "Service"
			if intake.PrimaryTrade != nil && *intake.PrimaryTrade != "" {
				trade = *intake.PrimaryTrade
			}
			area := "Your Area"
			if len(intake.ServiceArea) > 0 {
				area = intake.ServiceArea[0]
			}
			return fmt.Sprintf("%s - Trusted %s in %s", intake.BusinessName, trade, area)
		},
	},
	{
		ID:           2,
		ChecklistKey: "homepage.subheadline",
		MessageType:  "DAY0_SUBHEADLINE",
		QuestionText: "Approve your homepage description",
		DelayMinutes: 60, /* 1 hour after previous */
		GenerateValue: func(intake *db.Intake) interface{} {
			vertical := "professional"
			if intake.Vertical != nil && *intake.Vertical != "" {
				vertical = *intake.Vertical
			}
			area := "your area"
			if len(intake.ServiceArea) > 0 {
				area = intake.ServiceArea[0]
			}
			return fmt.Sprintf("Licensed, insured, and trusted for %s services across %s.", vertical, area)
		},
	},
	{
		ID:           3,
		ChecklistKey: "cta.primary",
		MessageType:  "DAY0_CTA",
		QuestionText: "How should customers contact you?",
		DelayMinutes: 60,
		GenerateValue: func(intake *db.Intake) interface{} {
			if intake.BookingLink != nil && *intake.BookingLink != "" {
				return "Book Online"
			}
			return "Call Now"
		},
	},
	{
		ID:           4,
		ChecklistKey: "homepage.services",
		MessageType:  "DAY0_SERVICES",
		QuestionText: "Confirm your listed services",
		DelayMinutes: 60,
		GenerateValue: func(intake *db.Intake) interface{} {
			if len(intake.Services) > 0 {
				return []string(intake.Services)
			}
			return []string{"General Services", "Consultations", "Custom Projects"}
		},
	},
	{
		ID:           5,
		ChecklistKey: "gmb.category",
		MessageType:  "DAY0_GMB_CATEGORY",
		QuestionText: "Google Business category approval",
		DelayMinutes: 60,
		GenerateValue: func(intake *db.Intake) interface{} {
			categoryMap := map[string]string{
				"trades":       "General Contractor",
				"appointments": "Professional Services",
				"professional": "Business Consultant",
			}
			if intake.Vertical != nil {
				if category, ok := categoryMap[*intake.Vertical]; ok {
					return category
				}
			}
			return "Business Services"
		},
	},
}
