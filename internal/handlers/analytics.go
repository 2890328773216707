package handlers

import "finitefield.org/holding-web/internal/platform/config"

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
    GA4MeasurementID string // e.g. G-XXXXXXXXXX
    GTMContainerID   string // e.g. GTM-XXXXXXX
    Debug            bool
}

// AnalyticsFromConfig copies the analytics ids out of the runtime config.
func AnalyticsFromConfig(cfg config.AnalyticsConfig) Analytics {
    return Analytics{
        GA4MeasurementID: cfg.GA4MeasurementID,
        GTMContainerID:   cfg.GTMContainerID,
        Debug:            cfg.Debug,
    }
}

// Enabled reports whether any tag should be rendered.
func (a Analytics) Enabled() bool {
    return a.GA4MeasurementID != "" || a.GTMContainerID != ""
}
