package models

// WalletLoginRequest is the login payload for wallet users. The wallet
// address arrives from the auth collaborator after out-of-band signature
// verification; this service trusts it as a stable account key.
type WalletLoginRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	ReferralCode  string `json:"referralCode,omitempty"`
}

// AdminLoginRequest is the login payload for operator accounts.
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token and, for wallet logins, the
// resolved user record.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// CheckInResult is the outcome of a daily check-in.
type CheckInResult struct {
	PointsAwarded int `json:"pointsAwarded"`
	StreakBonus   int `json:"streakBonus,omitempty"`
	Streak        int `json:"streak"`
	NewTotal      int `json:"newTotal"`
}
