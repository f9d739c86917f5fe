package models

// SubscriptionCode is a redeemable token granting access to code-gated
// sessions. A given user may redeem a given code at most once; UsedBy
// grows monotonically.
type SubscriptionCode struct {
	IsActive  bool     `json:"isActive"`
	ExpiresAt string   `json:"expiresAt"` // YYYY-MM-DD
	UsedBy    []string `json:"usedBy"`
}
