package httpapi

// TickStatus mirrors the scheduler's last pass over the due queue.
type TickStatus struct {
	LastRunAt string `json:"last_run_at"`
	LastOkAt  string `json:"last_ok_at"`
	LastError string `json:"last_error"`
	LastDue   int    `json:"last_due"`
	LastNew   int    `json:"last_new"`
	Running   bool   `json:"running"`
}
