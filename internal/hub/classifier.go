package hub

import (
	"fmt"
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
	"github.com/Ahmed-S-Salim/greenofig-sub002/pkg/events"
)

const messagePreviewLen = 80

// Classify maps a raw change-feed event to the notifications it should
// produce for the given principal. Most feed traffic is irrelevant and maps
// to nothing; that is steady state, not an error. A single event may yield
// more than one notification (a progress UPDATE can raise both a level-up
// and a points notification).
//
// Role gating happens here, not in delivery: staff-only events classify to
// nothing for regular users even if a subscription leaked them through.
func Classify(principal model.Principal, ev events.ChangeEvent) []Event {
	if ev.IsBroadcast() {
		return classifyBroadcast(ev)
	}

	switch ev.Table {
	case "messages":
		return classifyMessage(principal, ev)
	case "appointments":
		return classifyAppointment(principal, ev)
	case "user_progress":
		return classifyProgress(principal, ev)
	case "form_assignments":
		return classifyFormAssignment(principal, ev)
	case "form_submissions":
		return classifyFormSubmission(principal, ev)
	case "profiles":
		return classifySignup(principal, ev)
	case "meal_plans":
		return classifyMealPlan(principal, ev)
	}
	return nil
}

func classifyMessage(principal model.Principal, ev events.ChangeEvent) []Event {
	if ev.Kind != events.KindInsert || ev.New.Str("recipient_id") != principal.ID.String() {
		return nil
	}
	preview := ev.New.Str("body")
	if len(preview) > messagePreviewLen {
		preview = preview[:messagePreviewLen] + "…"
	}
	return []Event{newEvent("New Message", preview, model.CategoryMessage, ev)}
}

func classifyAppointment(principal model.Principal, ev events.ChangeEvent) []Event {
	switch ev.Kind {
	case events.KindInsert:
		if ev.New.Str("client_id") == principal.ID.String() {
			return []Event{newEvent(
				"New Appointment Scheduled",
				fmt.Sprintf("Your appointment on %s has been scheduled.", ev.New.Str("starts_at")),
				model.CategoryAppointment, ev,
			)}
		}
		// Bookings land on the assigned nutritionist's feed as well.
		if principal.Role.IsStaff() && ev.New.Str("nutritionist_id") == principal.ID.String() {
			return []Event{newEvent(
				"Appointment Booked",
				fmt.Sprintf("A client booked an appointment for %s.", ev.New.Str("starts_at")),
				model.CategoryAppointment, ev,
			)}
		}
		return nil

	case events.KindUpdate:
		if ev.New.Str("client_id") != principal.ID.String() {
			return nil
		}
		if ev.New.Str("status") == "cancelled" && ev.Old.Str("status") != "cancelled" {
			return []Event{newEvent(
				"Appointment Cancelled",
				"Your appointment has been cancelled.",
				model.CategoryAppointment, ev,
			)}
		}
		return []Event{newEvent(
			"Appointment Updated",
			"Your appointment details have changed.",
			model.CategoryAppointment, ev,
		)}

	case events.KindDelete:
		// A vanished row reads as a cancellation to the client. Rows removed
		// for other reasons (data cleanup) notify identically; the feed
		// carries no deletion reason.
		if ev.Old.Str("client_id") != principal.ID.String() {
			return nil
		}
		return []Event{newEvent(
			"Appointment Cancelled",
			"Your appointment has been cancelled.",
			model.CategoryAppointment, ev,
		)}
	}
	return nil
}

func classifyProgress(principal model.Principal, ev events.ChangeEvent) []Event {
	if ev.Kind != events.KindUpdate || ev.New.Str("user_id") != principal.ID.String() {
		return nil
	}

	var out []Event

	// Level and points checks are independent: one UPDATE can fire both.
	if newLevel := ev.New.Int("level"); newLevel > ev.Old.Int("level") {
		out = append(out, newEvent(
			"Level Up!",
			fmt.Sprintf("You reached level %d. Keep it up!", newLevel),
			model.CategoryGeneral, ev,
		))
	}
	if delta := ev.New.Int("total_points") - ev.Old.Int("total_points"); delta > 0 {
		out = append(out, newEvent(
			fmt.Sprintf("Points Earned! +%d", delta),
			fmt.Sprintf("You earned %d points.", delta),
			model.CategoryGeneral, ev,
		))
	}

	// Milestone only on exact multiples of 7, not every 7th update.
	streak := ev.New.Int("current_streak")
	if streak > ev.Old.Int("current_streak") && streak > 0 && streak%7 == 0 {
		out = append(out, newEvent(
			"Streak Milestone",
			fmt.Sprintf("You're on a %d-day streak!", streak),
			model.CategoryGeneral, ev,
		))
	}

	return out
}

func classifyFormAssignment(principal model.Principal, ev events.ChangeEvent) []Event {
	if ev.Kind != events.KindInsert || ev.New.Str("user_id") != principal.ID.String() {
		return nil
	}
	return []Event{newEvent(
		"New Form Assigned",
		fmt.Sprintf("Your nutritionist assigned you a form: %s", ev.New.Str("title")),
		model.CategoryForm, ev,
	)}
}

func classifyFormSubmission(principal model.Principal, ev events.ChangeEvent) []Event {
	if ev.Kind != events.KindInsert || !principal.Role.IsStaff() {
		return nil
	}
	return []Event{newEvent(
		"Form Submitted",
		"A client submitted a form.",
		model.CategoryForm, ev,
	)}
}

func classifySignup(principal model.Principal, ev events.ChangeEvent) []Event {
	if ev.Kind != events.KindInsert || !principal.Role.IsStaff() {
		return nil
	}
	name := ev.New.Str("full_name")
	if name == "" {
		name = "A new client"
	}
	return []Event{newEvent(
		"New Client Signup",
		fmt.Sprintf("%s just joined GreenoFig.", name),
		model.CategoryGeneral, ev,
	)}
}

func classifyMealPlan(principal model.Principal, ev events.ChangeEvent) []Event {
	if ev.Kind != events.KindInsert || ev.New.Str("user_id") != principal.ID.String() {
		return nil
	}
	return []Event{newEvent(
		"New Meal Plan Ready",
		"Your meal plan for the week is ready.",
		model.CategoryGeneral, ev,
	)}
}

func classifyBroadcast(ev events.ChangeEvent) []Event {
	switch ev.Event {
	case "notification":
		// Pass-through: the payload carries its own copy.
		title := ev.Payload.Str("title")
		if title == "" {
			return nil
		}
		category := model.Category(ev.Payload.Str("category"))
		if category == "" {
			category = model.CategoryGeneral
		}
		e := newEvent(title, ev.Payload.Str("message"), category, ev)
		return []Event{e}

	case "incoming_call":
		caller := ev.Payload.Str("caller_name")
		if caller == "" {
			caller = "Your nutritionist"
		}
		return []Event{newEvent(
			"Incoming Call",
			fmt.Sprintf("%s is calling you.", caller),
			model.CategoryCall, ev,
		)}
	}
	return nil
}

func newEvent(title, description string, category model.Category, ev events.ChangeEvent) Event {
	at := ev.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	return Event{
		Title:       title,
		Description: description,
		Category:    category,
		URL:         ResolveURL(category),
		At:          at,
	}
}
