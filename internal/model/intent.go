package model

// Intent is the coarse classification of what the user wants.
// The set is closed; detection always resolves to exactly one of these.
type Intent string

const (
	IntentPropertyRegister Intent = "property_register"
	IntentShowVisits       Intent = "show_visits"
	IntentCancelVisit      Intent = "cancel_visit"
	IntentShowReport       Intent = "show_report"
	// IntentGeneralInquiry is the explicit fallback when no lexicon keyword
	// matches. It is a valid outcome, not an error.
	IntentGeneralInquiry Intent = "general_inquiry"
)
