package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/model"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/repository"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/util"
)

// Security-relevant actions recorded in activity_logs.
const (
	ActionLoginSuccess       = "login_success"
	ActionLoginFailed        = "login_failed"
	ActionLogout             = "logout"
	ActionTokenRefresh       = "token_refresh"
	ActionTokenRefreshFailed = "token_refresh_failed"
	ActionSessionRevoked     = "session_revoked"
	ActionAdminCreated       = "admin_created"
	ActionAdminDeactivated   = "admin_deactivated"
	ActionPasswordChanged    = "password_changed"
	ActionProfileUpdated     = "profile_updated"
)

// Failure reasons recorded in entry details. These stay internal; the API
// surfaces a single coarse error for all of them.
const (
	ReasonUserNotFound    = "user_not_found"
	ReasonAccountInactive = "account_inactive"
	ReasonInvalidPassword = "invalid_password"
	ReasonTokenMismatch   = "token_mismatch"
	ReasonAdminGone       = "admin_missing_or_inactive"
)

type Entry struct {
	AdminID    *string
	Action     string
	TargetType *string
	TargetID   *string
	Details    map[string]any
	IP         string
	UserAgent  string
}

// Recorder appends security events to the activity log. Writes are
// best-effort: a failed insert is reported on the error log but never
// propagated, so auditability cannot become an availability hazard for the
// authentication flow that triggered it.
type Recorder struct {
	repo repository.ActivityRepository
}

func NewRecorder(repo repository.ActivityRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, entry Entry) {
	params := model.RecordActivityParams{
		ID:         util.NewID(),
		AdminID:    entry.AdminID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
	}
	if entry.IP != "" {
		params.IPAddress = &entry.IP
	}
	if entry.UserAgent != "" {
		params.UserAgent = &entry.UserAgent
	}

	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			log.Error().Err(err).Str("action", entry.Action).Msg("audit: failed to encode details")
		} else {
			msg := json.RawMessage(raw)
			params.Details = &msg
		}
	}

	if err := r.repo.Insert(ctx, params); err != nil {
		log.Error().Err(err).Str("action", entry.Action).Msg("audit: failed to write activity log")
	}

	r.mirror(entry)
}

// mirror emits the event on the structured log as well, so operators see
// security activity without querying the table.
func (r *Recorder) mirror(entry Entry) {
	logger := log.With().
		Str("audit", "security").
		Str("action", entry.Action).
		Logger()

	if entry.AdminID != nil {
		logger = logger.With().Str("admin_id", *entry.AdminID).Logger()
	}
	if entry.TargetID != nil {
		logger = logger.With().Str("target_id", *entry.TargetID).Logger()
	}
	if entry.IP != "" {
		logger = logger.With().Str("ip", entry.IP).Logger()
	}
	if entry.UserAgent != "" {
		logger = logger.With().Str("user_agent", entry.UserAgent).Logger()
	}

	event := logger.Info()
	for k, v := range entry.Details {
		event = event.Interface(k, v)
	}
	event.Msg("security audit event")
}
