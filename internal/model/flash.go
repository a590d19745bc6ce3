package model

// Flash categories. They double as CSS modifier classes in the templates.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-time notice queued for the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}
