package dto

// ReconcileRequest scopes a repair pass. An empty facility_id means bulk mode:
// every facility is scanned and every session recomputed.
type ReconcileRequest struct {
	FacilityID string `json:"facility_id" validate:"omitempty,uuid"`
}

// ReconcileReport is always returned, even when some payments could not be
// attributed — skips are data for the operator, not failures.
type ReconcileReport struct {
	MovementsCreated   int `json:"movements_created"`
	SkippedNoRegister  int `json:"skipped_no_register"`
	SessionsRecomputed int `json:"sessions_recomputed"`
}
