// Package workflow is the report-authoring state machine: it walks a
// session from role selection through capture, location, AI summary and
// final submission, accumulating a draft report and enforcing each
// state's preconditions.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"safestreet/client"
	"safestreet/geocode"
	"safestreet/models"

	"github.com/apex/log"
)

var (
	// ErrInvalidTransition means the requested move is not defined from
	// the current state.
	ErrInvalidTransition = errors.New("transition not allowed from current state")
	// ErrPreconditionNotMet means the draft is incomplete for the
	// destination state. The state does not change.
	ErrPreconditionNotMet = errors.New("image and location are required")
	// ErrRoleRequired means authentication was attempted before a role
	// was chosen.
	ErrRoleRequired = errors.New("role must be selected before authentication")
)

// Summarizer fetches an AI description for a captured image.
type Summarizer interface {
	Summarize(ctx context.Context, imagePath string) (string, error)
}

// Submitter delivers a finalized draft to the backend.
type Submitter interface {
	Submit(ctx context.Context, req client.SubmitRequest) (*models.UploadData, error)
}

// LocationResolver turns device coordinates into an address.
type LocationResolver interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (geocode.Address, error)
}

// Normalize converts a capture handle into an uploadable path. It runs
// before every upload attempt.
type Normalize func(uri string) (string, error)

// Workflow drives one session. All methods are safe for use from a
// single logical thread of control; the internal lock only guards
// against the asynchronous summary delivery.
type Workflow struct {
	mu sync.Mutex

	state State
	role  models.Role

	// session identity, set on login
	userID string
	name   string
	email  string

	draft Draft

	// generation counter for summary fetches: only the result whose
	// generation matches the latest entry into the summary state is
	// applied (last-write-wins, stale results discarded).
	gen uint64

	summarizer Summarizer
	submitter  Submitter
	resolver   LocationResolver
	normalize  Normalize
}

// New creates a workflow positioned at the home screen.
func New(summarizer Summarizer, submitter Submitter, resolver LocationResolver, normalize Normalize) *Workflow {
	if normalize == nil {
		normalize = func(uri string) (string, error) { return uri, nil }
	}
	return &Workflow{
		state:      StateHome,
		summarizer: summarizer,
		submitter:  submitter,
		resolver:   resolver,
		normalize:  normalize,
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Role returns the role chosen for this session.
func (w *Workflow) Role() models.Role {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.role
}

// Draft returns a snapshot of the in-progress report.
func (w *Workflow) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Start leaves the home screen.
func (w *Workflow) Start() error {
	return w.transition(StateHome, StateRoleSelect)
}

// SelectRole records the session role and moves to authentication. The
// role gates which dashboard branch is reachable after login.
func (w *Workflow) SelectRole(role models.Role) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateRoleSelect {
		return ErrInvalidTransition
	}
	if role != models.RoleWorker && role != models.RoleSupervisor {
		return fmt.Errorf("unknown role %q", role)
	}
	w.role = role
	w.state = StateAuth
	return nil
}

// GoToLogin moves from the auth chooser to the login form.
func (w *Workflow) GoToLogin() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateAuth && w.state != StateSignup {
		return ErrInvalidTransition
	}
	if w.role == "" {
		return ErrRoleRequired
	}
	w.state = StateLogin
	return nil
}

// GoToSignup moves from the auth chooser to the signup form.
func (w *Workflow) GoToSignup() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateAuth && w.state != StateLogin {
		return ErrInvalidTransition
	}
	w.state = StateSignup
	return nil
}

// SignupCompleted redirects a freshly registered user to login.
func (w *Workflow) SignupCompleted() error {
	return w.transition(StateSignup, StateLogin)
}

// LoginSucceeded records the session identity and routes to the
// dashboard matching the selected role.
func (w *Workflow) LoginSucceeded(userID, name, email string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateLogin {
		return ErrInvalidTransition
	}
	w.userID = userID
	w.name = name
	w.email = email
	switch w.role {
	case models.RoleWorker:
		w.state = StateWorkerDashboard
	case models.RoleSupervisor:
		w.state = StateSupervisorDashboard
	default:
		return ErrRoleRequired
	}
	return nil
}

// ForgotPassword enters the password-recovery branch.
func (w *Workflow) ForgotPassword() error {
	return w.transition(StateLogin, StateForgotPassword)
}

// OtpSent moves to code entry after the backend issued a code.
func (w *Workflow) OtpSent() error {
	return w.transition(StateForgotPassword, StateOtpVerification)
}

// OtpVerified moves to the new-password form.
func (w *Workflow) OtpVerified() error {
	return w.transition(StateOtpVerification, StateResetPassword)
}

// PasswordResetDone returns to login after a completed reset.
func (w *Workflow) PasswordResetDone() error {
	return w.transition(StateResetPassword, StateLogin)
}

// BeginCapture opens the capture screen. Reachable only for workers.
func (w *Workflow) BeginCapture() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateWorkerDashboard || w.role != models.RoleWorker {
		return ErrInvalidTransition
	}
	w.state = StateImageCapture
	return nil
}

// AttachImage records the captured photo's handle. Re-taking simply
// overwrites the previous handle.
func (w *Workflow) AttachImage(uri string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateImageCapture {
		return ErrInvalidTransition
	}
	w.draft.ImageURI = uri
	return nil
}

// EnterLocation opens location entry; a photo must be attached first.
func (w *Workflow) EnterLocation() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateImageCapture {
		return ErrInvalidTransition
	}
	if w.draft.ImageURI == "" {
		return ErrPreconditionNotMet
	}
	w.state = StateLocationEntry
	return nil
}

// UseDeviceLocation resolves the device coordinates into an address.
// A failed reverse geocode still records the raw coordinate pair so the
// flow can proceed (or the user can fall back to manual entry).
func (w *Workflow) UseDeviceLocation(ctx context.Context, lat, lon float64) error {
	w.mu.Lock()
	if w.state != StateLocationEntry {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	w.mu.Unlock()

	addr, err := w.resolver.ReverseGeocode(ctx, lat, lon)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Latitude = &lat
	w.draft.Longitude = &lon
	if err != nil {
		log.WithError(err).Warn("Reverse geocoding failed, keeping raw coordinates")
		w.draft.Address = ""
		return nil
	}
	w.draft.Address = addr.Display()
	return nil
}

// SetManualAddress records a typed address.
func (w *Workflow) SetManualAddress(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateLocationEntry {
		return ErrInvalidTransition
	}
	if text == "" {
		return ErrPreconditionNotMet
	}
	w.draft.Address = geocode.ResolveManual(text)
	return nil
}

// LocationDone returns to the capture screen with the location set.
func (w *Workflow) LocationDone() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateLocationEntry {
		return ErrInvalidTransition
	}
	if !w.draft.hasLocation() {
		return ErrPreconditionNotMet
	}
	w.state = StateImageCapture
	return nil
}

// EnterSummary moves to the summary screen and starts the asynchronous
// summary fetch. Entry requires a complete draft; the fetch itself does
// not block the transition. Re-entering supersedes (but does not
// cancel) a prior in-flight fetch.
func (w *Workflow) EnterSummary(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateImageCapture && w.state != StateLocationEntry {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	if !w.draft.Submittable() {
		w.mu.Unlock()
		return ErrPreconditionNotMet
	}

	w.state = StateSummary
	if w.draft.CreatedAt.IsZero() {
		w.draft.CreatedAt = time.Now()
	}
	w.draft.Summary = ""
	w.draft.SummaryErr = nil
	w.draft.SummaryPending = true
	w.gen++
	gen := w.gen
	imageURI := w.draft.ImageURI
	w.mu.Unlock()

	go w.fetchSummary(ctx, gen, imageURI)
	return nil
}

// BackToCapture abandons the summary screen without submitting. Any
// in-flight fetch result for this entry will be discarded.
func (w *Workflow) BackToCapture() error {
	return w.transition(StateSummary, StateImageCapture)
}

// ConfirmSubmit delivers the finalized draft. On success the machine
// returns to the worker dashboard and the draft is cleared; on failure
// the state is unchanged so the user can retry explicitly.
func (w *Workflow) ConfirmSubmit(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateSummary {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	if !w.draft.Submittable() {
		w.mu.Unlock()
		return ErrPreconditionNotMet
	}
	req := client.SubmitRequest{
		UserID:    w.userID,
		Location:  w.draft.LocationText(),
		Summary:   w.draft.Summary,
		ImagePath: w.draft.ImageURI,
	}
	w.mu.Unlock()

	path, err := w.normalize(req.ImagePath)
	if err != nil {
		return fmt.Errorf("failed to prepare image for upload: %w", err)
	}
	req.ImagePath = path

	if _, err := w.submitter.Submit(ctx, req); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateWorkerDashboard
	w.draft = Draft{}
	w.gen++ // orphan any in-flight fetch
	return nil
}

// OpenReport opens a submission on the supervisor side.
func (w *Workflow) OpenReport() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSupervisorDashboard || w.role != models.RoleSupervisor {
		return ErrInvalidTransition
	}
	w.state = StateReportDetail
	return nil
}

// CloseReport returns to the supervisor dashboard.
func (w *Workflow) CloseReport() error {
	return w.transition(StateReportDetail, StateSupervisorDashboard)
}

// fetchSummary normalizes the image and asks the captioning service for
// a description. The result is applied only if this fetch is still the
// latest one.
func (w *Workflow) fetchSummary(ctx context.Context, gen uint64, imageURI string) {
	path, err := w.normalize(imageURI)
	if err != nil {
		w.applySummary(gen, "", err)
		return
	}
	text, err := w.summarizer.Summarize(ctx, path)
	w.applySummary(gen, text, err)
}

func (w *Workflow) applySummary(gen uint64, text string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		// A later entry into the summary state superseded this fetch.
		return
	}
	w.draft.SummaryPending = false
	if err != nil {
		w.draft.SummaryErr = err
		return
	}
	w.draft.Summary = text
}

// transition moves from exactly one expected state to the next.
func (w *Workflow) transition(from, to State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != from {
		return ErrInvalidTransition
	}
	w.state = to
	return nil
}

func coordinateText(lat, lon float64) string {
	return fmt.Sprintf("Latitude: %g, Longitude: %g", lat, lon)
}
