package workflow

// State names a screen of the report-authoring flow. The machine is in
// exactly one state at a time; every transition either moves to the
// next state or fails typed, leaving the state unchanged.
type State int

const (
	StateHome State = iota
	StateRoleSelect
	StateAuth
	StateLogin
	StateSignup
	StateForgotPassword
	StateOtpVerification
	StateResetPassword
	StateWorkerDashboard
	StateImageCapture
	StateLocationEntry
	StateSummary
	StateSupervisorDashboard
	StateReportDetail
)

var stateNames = map[State]string{
	StateHome:                "home",
	StateRoleSelect:          "roleSelection",
	StateAuth:                "auth",
	StateLogin:               "login",
	StateSignup:              "signup",
	StateForgotPassword:      "forgotPassword",
	StateOtpVerification:     "otpVerification",
	StateResetPassword:       "resetPassword",
	StateWorkerDashboard:     "workerDashboard",
	StateImageCapture:        "imageCapture",
	StateLocationEntry:       "locationEntry",
	StateSummary:             "summary",
	StateSupervisorDashboard: "supervisorDashboard",
	StateReportDetail:        "reportDetail",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
