package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/microscopium/signup/internal/signup/domain"
	"github.com/microscopium/signup/pkg/pwgen"
	"github.com/microscopium/signup/pkg/scopesdk"
	"github.com/microscopium/signup/pkg/slogx"
)

var (
	// ErrAdminConnectionFailed covers both a failed admin login and remote
	// failures on the administrative session mid-sequence.
	ErrAdminConnectionFailed = errors.New("admin connection failed")

	// ErrDuplicateLogin reports that the remote server rejected the
	// experimenter create because the login was taken between the probe and
	// the create. Retryable: a fresh attempt allocates past it.
	ErrDuplicateLogin = errors.New("login already taken")

	// ErrAccountCreationFailed reports that the experimenter create failed
	// for any other reason.
	ErrAccountCreationFailed = errors.New("account creation failed")

	// ErrNotificationFailed reports that the account WAS created but the
	// credential email did not reach the user. Operators must remediate
	// manually; the log line carries login, user id and group id.
	ErrNotificationFailed = errors.New("credential notification failed")
)

// AdminDirectory is the slice of the remote administrative API the
// provisioner uses. *scopesdk.AdminSession implements it.
type AdminDirectory interface {
	FindExperimenterByLogin(ctx context.Context, login string) (scopesdk.Experimenter, error)
	FindGroupByName(ctx context.Context, name string) (scopesdk.Group, error)
	CreateGroup(ctx context.Context, name, permissions string) (int64, error)
	CreateExperimenter(ctx context.Context, req scopesdk.NewExperimenter) (int64, error)
	SendEmail(ctx context.Context, req scopesdk.EmailRequest) (scopesdk.EmailOutcome, error)
	Logout(ctx context.Context) error
}

// AdminConnector opens authenticated administrative sessions.
type AdminConnector interface {
	Connect(ctx context.Context) (AdminDirectory, error)
}

// EmailSettings configures the credential notification step. Subject and
// Body support {username} and {password} placeholders.
type EmailSettings struct {
	Enabled bool
	Subject string
	Body    string
}

// ProvisionService orchestrates account provisioning against the remote
// image data server: group resolution, login allocation, experimenter
// creation and the optional credential email, in that order.
type ProvisionService struct {
	Connector AdminConnector

	// Group describes the group new signups are placed in.
	Group domain.GroupDescriptor

	// MemberGroupName is the server's builtin group every account joins in
	// addition to the signup group.
	MemberGroupName string

	Email EmailSettings

	// Now is the clock used for templated group names. Nil means time.Now.
	Now func() time.Time
}

// Provision creates a remote account for a validated signup request.
//
// There is no rollback: a failure after the experimenter exists leaves the
// account in place. In particular ErrNotificationFailed is returned
// together with the created account, password already cleared, and the
// failure is logged with everything an operator needs to follow up by
// hand. All remote failures are converted here; callers never see raw
// transport errors.
func (s *ProvisionService) Provision(ctx context.Context, req domain.SignupRequest) (domain.ProvisionedAccount, error) {
	log := slogx.FromContext(ctx)

	// 1. Open the administrative session. Nothing else runs without it.
	dir, err := s.Connector.Connect(ctx)
	if err != nil {
		log.Error("failed to open admin session", slog.Any("error", err))
		return domain.ProvisionedAccount{}, ErrAdminConnectionFailed
	}
	defer func() {
		if err := dir.Logout(ctx); err != nil {
			log.Warn("failed to close admin session", slog.Any("error", err))
		}
	}()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	// 2. Resolve the signup group, lazily creating it when the descriptor
	// points at a group (or time bucket) that does not exist yet.
	groupID, err := ResolveGroup(ctx, s.Group, now(),
		func(ctx context.Context, name string) (int64, bool, error) {
			g, err := dir.FindGroupByName(ctx, name)
			if errors.Is(err, scopesdk.ErrNotFound) {
				return 0, false, nil
			}
			if err != nil {
				return 0, false, err
			}
			return g.ID, true, nil
		},
		func(ctx context.Context, name, permissions string) error {
			_, err := dir.CreateGroup(ctx, name, permissions)
			return err
		},
	)
	if err != nil {
		log.Error("failed to resolve signup group", slog.Any("error", err))
		if errors.Is(err, ErrGroupResolutionFailed) {
			return domain.ProvisionedAccount{}, ErrGroupResolutionFailed
		}
		return domain.ProvisionedAccount{}, ErrAdminConnectionFailed
	}

	// The builtin member group must already exist on the server.
	memberGroup, err := dir.FindGroupByName(ctx, s.MemberGroupName)
	if err != nil {
		log.Error("failed to resolve builtin member group",
			slog.String("group", s.MemberGroupName),
			slog.Any("error", err),
		)
		if errors.Is(err, scopesdk.ErrNotFound) {
			return domain.ProvisionedAccount{}, ErrGroupResolutionFailed
		}
		return domain.ProvisionedAccount{}, ErrAdminConnectionFailed
	}

	// 3. Allocate a login by probing the server. The probe/create window is
	// racy; step 4's create is the authoritative uniqueness check.
	login, err := AllocateLogin(ctx, req.FirstName, req.LastName,
		func(ctx context.Context, candidate string) (bool, error) {
			_, err := dir.FindExperimenterByLogin(ctx, candidate)
			if errors.Is(err, scopesdk.ErrNotFound) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			return true, nil
		},
	)
	if err != nil {
		log.Error("failed to allocate login",
			slog.String("first_name", req.FirstName),
			slog.String("last_name", req.LastName),
			slog.Any("error", err),
		)
		if errors.Is(err, ErrAllocationExhausted) {
			return domain.ProvisionedAccount{}, ErrAllocationExhausted
		}
		return domain.ProvisionedAccount{}, ErrAdminConnectionFailed
	}

	// 4. Generate the initial password. Usability credential only; it is
	// expected to be changed after first login.
	password := pwgen.New(pwgen.DefaultLength)

	// 5. Create the experimenter.
	userID, err := dir.CreateExperimenter(ctx, scopesdk.NewExperimenter{
		Login:          login,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Institution:    req.Institution,
		Password:       password,
		DefaultGroupID: groupID,
		GroupIDs:       []int64{memberGroup.ID},
		IsAdmin:        false,
		IsActive:       true,
	})
	if err != nil {
		log.Error("failed to create experimenter",
			slog.String("login", login),
			slog.Int64("group_id", groupID),
			slog.Any("error", err),
		)
		if scopesdk.IsConflict(err) {
			return domain.ProvisionedAccount{}, ErrDuplicateLogin
		}
		return domain.ProvisionedAccount{}, ErrAccountCreationFailed
	}

	account := domain.ProvisionedAccount{
		Login:    login,
		Email:    req.Email,
		GroupID:  groupID,
		UserID:   userID,
		Password: password,
	}

	// 6. Email the credentials when configured, and never surface the
	// password in the response once delivery has been attempted.
	if s.Email.Enabled {
		outcome, err := dir.SendEmail(ctx, scopesdk.EmailRequest{
			Subject: expandCredentials(s.Email.Subject, login, password),
			Body:    expandCredentials(s.Email.Body, login, password),
			UserIDs: []int64{userID},
		})
		account.Password = ""

		if err != nil {
			log.Error("account created but credential email failed",
				slog.String("login", login),
				slog.Int64("user_id", userID),
				slog.Int64("group_id", groupID),
				slog.Any("error", err),
			)
			return account, ErrNotificationFailed
		}
		if len(outcome.Invalid) > 0 {
			log.Error("account created but recipient address rejected",
				slog.String("login", login),
				slog.Int64("user_id", userID),
				slog.Int64("group_id", groupID),
				slog.Any("invalid_addresses", outcome.Invalid),
			)
			return account, ErrNotificationFailed
		}
	}

	log.Info("experimenter provisioned",
		slog.String("login", login),
		slog.Int64("user_id", userID),
		slog.Int64("group_id", groupID),
		slog.Bool("email_sent", s.Email.Enabled),
	)

	return account, nil
}

// expandCredentials substitutes the {username} and {password} placeholders
// in an email template.
func expandCredentials(template, login, password string) string {
	out := strings.ReplaceAll(template, "{username}", login)
	return strings.ReplaceAll(out, "{password}", password)
}
