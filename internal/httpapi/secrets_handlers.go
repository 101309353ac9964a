package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"jobportal-engine/internal/config"
	"jobportal-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setAPITokenReq struct {
	Token string `json:"token"`
}

// SetAPIToken stores the admin bearer token in the OS keychain. It takes
// effect on the next request since auth re-reads the token every time.
func (h SecretsHandler) SetAPIToken(w http.ResponseWriter, r *http.Request) {
	var req setAPITokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetAPIToken(cfg.Secrets.TokenAccount, req.Token); err != nil {
		http.Error(w, "failed to store token: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
