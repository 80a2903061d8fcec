package models

import "time"

// Screen names the destination a client switches to after login.
type Screen string

const (
	ScreenCompanyDashboard Screen = "dashboard_company"
	ScreenAdminDashboard   Screen = "dashboard_admin"
	ScreenTripInit         Screen = "init_report"
)

// ScreenForRole returns the landing screen of a role.
func ScreenForRole(role Role) (Screen, error) {
	switch role {
	case RoleCompany:
		return ScreenCompanyDashboard, nil
	case RoleAdmin:
		return ScreenAdminDashboard, nil
	case RoleDriver:
		return ScreenTripInit, nil
	default:
		return "", ErrUnknownRole
	}
}

// Navigation is the outcome of handing a session to the navigation sink.
type Navigation struct {
	Screen    Screen    `json:"screen"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
