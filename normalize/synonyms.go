package normalize

// defaultSynonyms maps known near-miss terms (lower-cased, including
// non-English transliterations) to candidate allowed values in priority
// order. The first mapped value actually present in a field's allowed set
// wins. Deployments extend this table via synonyms_override.yaml; control
// flow never changes, only the table.
var defaultSynonyms = map[string][]string{
	// Meeting / interaction categories
	"marketing":    {"sales"},
	"sale":         {"sales"},
	"selling":      {"sales"},
	"upsell":       {"sales"},
	"cross-sell":   {"sales"},
	"vertrieb":     {"sales"},
	"verkauf":      {"sales"},
	"ventas":       {"sales"},
	"prodazhi":     {"sales"},
	"support":      {"service", "support"},
	"helpdesk":     {"service", "support"},
	"kundendienst": {"service"},
	"servicio":     {"service"},
	"servis":       {"service"},
	"consulting":   {"advisory", "consulting", "service"},
	"beratung":     {"advisory", "consulting"},
	"advice":       {"advisory"},
	"onboarding":   {"kickoff", "onboarding"},
	"kick-off":     {"kickoff"},
	"intro":        {"discovery", "introduction"},
	"demo":         {"demonstration", "demo"},
	"follow up":    {"follow-up", "followup"},
	"nachfassen":   {"follow-up"},
	"retro":        {"review", "retrospective"},
	"planung":      {"planning"},

	// Sentiment
	"positiv":     {"positive"},
	"positivo":    {"positive"},
	"pozitivny":   {"positive"},
	"good":        {"positive"},
	"favorable":   {"positive"},
	"negativ":     {"negative"},
	"negativo":    {"negative"},
	"negativny":   {"negative"},
	"bad":         {"negative"},
	"unfavorable": {"negative"},
	"mixed":       {"neutral", "mixed"},
	"neutralno":   {"neutral"},
	"ok":          {"neutral"},

	// Priority / urgency
	"urgent":    {"high", "urgent"},
	"critical":  {"high", "critical"},
	"hoch":      {"high"},
	"alta":      {"high"},
	"vysoky":    {"high"},
	"important": {"high", "medium"},
	"mittel":    {"medium"},
	"media":     {"medium"},
	"sredny":    {"medium"},
	"normal":    {"medium"},
	"niedrig":   {"low"},
	"baja":      {"low"},
	"nizky":     {"low"},
	"minor":     {"low"},

	// Statuses
	"done":        {"completed", "closed", "resolved"},
	"finished":    {"completed", "closed"},
	"erledigt":    {"completed"},
	"resolved":    {"resolved", "completed", "closed"},
	"open":        {"open", "pending"},
	"offen":       {"open", "pending"},
	"in progress": {"in_progress", "active"},
	"ongoing":     {"in_progress", "active"},
	"laufend":     {"in_progress"},
	"todo":        {"pending", "open"},
	"ausstehend":  {"pending"},
	"blocked":     {"blocked", "on_hold"},
	"on hold":     {"on_hold", "blocked"},

	// Decision outcomes
	"yes":        {"agreed", "accepted", "approved"},
	"agreed":     {"agreed", "accepted"},
	"zugesagt":   {"agreed", "accepted"},
	"no":         {"declined", "rejected"},
	"declined":   {"declined", "rejected"},
	"abgelehnt":  {"declined", "rejected"},
	"deferred":   {"postponed", "deferred"},
	"verschoben": {"postponed", "deferred"},
}
