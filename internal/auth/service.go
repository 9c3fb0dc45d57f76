package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"ramani.co.tz/internal/ids"
	"ramani.co.tz/internal/notify"
	"ramani.co.tz/internal/obs"
)

const (
	defaultSessionTTL = 24 * time.Hour
	defaultOneTimeTTL = 10 * time.Minute
	minPasswordLen    = 8
)

// Tanzanian mobile numbers, as enforced on applications too.
var phonePattern = regexp.MustCompile(`^(\+255|0)[67][0-9]{8}$`)

// Service implements the credential and session lifecycle: signup with email
// verification, login, stale-token invalidation, password reset and soft
// self-deletion.
type Service struct {
	store    Store
	notifier notify.Notifier
	now      func() time.Time

	secret     []byte
	sessionTTL time.Duration
	oneTimeTTL time.Duration
	baseURL    string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithSessionTTL configures session token lifetime.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
		return nil
	}
}

// WithOneTimeTokenTTL configures the verification/reset token window.
func WithOneTimeTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.oneTimeTTL = ttl
		}
		return nil
	}
}

// WithBaseURL sets the public URL prefix used for links in outbound email.
func WithBaseURL(u string) ServiceOption {
	return func(s *Service) error {
		s.baseURL = strings.TrimRight(strings.TrimSpace(u), "/")
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs the auth service. The signing secret is mandatory.
func NewService(store Store, notifier notify.Notifier, secret string, opts ...ServiceOption) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	svc := &Service{
		store:      store,
		notifier:   notifier,
		now:        time.Now,
		secret:     []byte(secret),
		sessionTTL: defaultSessionTTL,
		oneTimeTTL: defaultOneTimeTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// SignupParams carries the raw signup request.
type SignupParams struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	Role            string
}

// Signup creates an inactive account and emails a verification link. The
// password is hashed here, at construction time; nothing downstream ever sees
// the plaintext.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*User, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(params.Phone)
	if !phonePattern.MatchString(phone) {
		return nil, fmt.Errorf("%w: %s is not a valid phone number", ErrInvalidInput, phone)
	}
	if len(params.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if params.Password != params.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords must match", ErrInvalidInput)
	}
	role, err := ParseRole(params.Role)
	if err != nil {
		return nil, err
	}
	if role == RoleAdmin {
		return nil, fmt.Errorf("%w: admin accounts cannot be self-registered", ErrInvalidInput)
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		ID:                ids.New(),
		Name:              name,
		Email:             email,
		Phone:             phone,
		Role:              role,
		PasswordHash:      hash,
		Status:            StatusInactive,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	plain, tokenHash, err := newOneTimeToken()
	if err != nil {
		return nil, err
	}
	user.OneTimeTokenHash = tokenHash
	user.OneTimeTokenExpiresAt = now.Add(s.oneTimeTTL)

	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	// Delivery is best-effort: the account exists either way and the token
	// can be reissued through resendVerificationEmail. sendOrClearToken
	// clears the undelivered token on failure.
	if err := s.sendOrClearToken(ctx, user, notify.Message{
		To:        user.Email,
		FirstName: user.FirstName(),
		Kind:      notify.KindWelcome,
		ActionURL: s.baseURL + "/v1/users/verifyEmail/" + plain,
	}); err != nil {
		obs.Logger().Warn("verification email failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// Login checks credentials and issues a session token. Inactive and
// tombstoned accounts cannot authenticate.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", nil, ErrUnauthenticated
	}
	if password == "" {
		return "", nil, ErrUnauthenticated
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrUnauthenticated
	}
	if user.Status != StatusActive {
		return "", nil, ErrUnauthenticated
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return "", nil, ErrUnauthenticated
	}

	token, err := signSession(s.secret, user.ID, s.now().UTC(), s.sessionTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// SessionTTL exposes the configured session window, used for cookie expiry.
func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

// Authenticate validates a session token and resolves the user behind it. A
// token issued before the user's last password change is rejected even when
// its own expiry has not passed.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := parseSession(s.secret, token, s.now().UTC())
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.store.Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.Status != StatusActive {
		return nil, ErrInvalidToken
	}
	if user.PasswordChangedAt.Unix() > claims.IssuedAt.Unix() {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// VerifyEmail consumes a verification token and activates the account.
func (s *Service) VerifyEmail(ctx context.Context, plainToken string) (*User, error) {
	user, err := s.consumeOneTimeToken(ctx, plainToken)
	if err != nil {
		return nil, err
	}
	user.Status = StatusActive
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResendVerification reissues a verification token for a not-yet-active
// account. Issuing a new token invalidates any outstanding one.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Status == StatusActive {
		return fmt.Errorf("%w: account is already verified", ErrInvalidInput)
	}

	plain, err := s.issueOneTimeToken(ctx, user)
	if err != nil {
		return err
	}
	return s.sendOrClearToken(ctx, user, notify.Message{
		To:        user.Email,
		FirstName: user.FirstName(),
		Kind:      notify.KindWelcome,
		ActionURL: s.baseURL + "/v1/users/verifyEmail/" + plain,
	})
}

// ForgotPassword issues a reset token and emails the reset link. The shared
// one-time slot means any outstanding verification token is invalidated.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	plain, err := s.issueOneTimeToken(ctx, user)
	if err != nil {
		return err
	}
	return s.sendOrClearToken(ctx, user, notify.Message{
		To:        user.Email,
		FirstName: user.FirstName(),
		Kind:      notify.KindReset,
		ActionURL: s.baseURL + "/v1/users/resetPassword/" + plain,
	})
}

// ResetPassword consumes a reset token, stores the new password and stamps
// the change so existing sessions die. A fresh session token is returned.
func (s *Service) ResetPassword(ctx context.Context, plainToken, password, confirm string) (string, *User, error) {
	if len(password) < minPasswordLen {
		return "", nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if password != confirm {
		return "", nil, fmt.Errorf("%w: passwords must match", ErrInvalidInput)
	}
	user, err := s.consumeOneTimeToken(ctx, plainToken)
	if err != nil {
		return "", nil, err
	}
	if err := s.setPassword(user, password); err != nil {
		return "", nil, err
	}
	if user.Status == StatusInactive {
		// Proving control of the mailbox also verifies it.
		user.Status = StatusActive
	}
	if err := s.store.Update(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := signSession(s.secret, user.ID, s.now().UTC(), s.sessionTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// UpdatePassword changes the password of an authenticated user and stamps the
// change. The caller's current session dies with everyone else's; the fresh
// token returned replaces it.
func (s *Service) UpdatePassword(ctx context.Context, userID, current, password, confirm string) (string, *User, error) {
	user, err := s.store.Find(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if err := VerifyPassword(user.PasswordHash, current); err != nil {
		return "", nil, ErrUnauthenticated
	}
	if len(password) < minPasswordLen {
		return "", nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if password != confirm {
		return "", nil, fmt.Errorf("%w: passwords must match", ErrInvalidInput)
	}
	if err := s.setPassword(user, password); err != nil {
		return "", nil, err
	}
	if err := s.store.Update(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := signSession(s.secret, user.ID, s.now().UTC(), s.sessionTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// DeleteMe tombstones the caller's account. The record is retained; the
// status flip makes every outstanding session invalid.
func (s *Service) DeleteMe(ctx context.Context, userID string) error {
	if _, err := s.store.Find(ctx, userID); err != nil {
		return err
	}
	return s.store.MarkDeleted(ctx, userID, s.now().UTC())
}

// Me returns the caller's own record.
func (s *Service) Me(ctx context.Context, userID string) (*User, error) {
	return s.store.Find(ctx, userID)
}

// ListUsers returns all non-deleted users (admin surface).
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.List(ctx)
}

// GetUser returns a user by id (admin surface).
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.store.Find(ctx, id)
}

// CreateUser provisions an account directly (admin surface). Unlike Signup it
// accepts any role, including admin, and the account starts active with no
// verification round trip.
func (s *Service) CreateUser(ctx context.Context, params SignupParams) (*User, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(params.Phone)
	if !phonePattern.MatchString(phone) {
		return nil, fmt.Errorf("%w: %s is not a valid phone number", ErrInvalidInput, phone)
	}
	if len(params.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	if params.Password != params.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords must match", ErrInvalidInput)
	}
	role, err := ParseRole(params.Role)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		ID:                ids.New(),
		Name:              name,
		Email:             email,
		Phone:             phone,
		Role:              role,
		PasswordHash:      hash,
		Status:            StatusActive,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// MePatch is the self-editable subset of a user record. Role, status and
// credentials have their own paths.
type MePatch struct {
	Name  *string
	Phone *string
}

// UpdateMe applies the caller's own contact changes.
func (s *Service) UpdateMe(ctx context.Context, userID string, patch MePatch) (*User, error) {
	user, err := s.store.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		user.Name = name
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if !phonePattern.MatchString(phone) {
			return nil, fmt.Errorf("%w: %s is not a valid phone number", ErrInvalidInput, phone)
		}
		user.Phone = phone
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UserPatch is the admin-editable subset of a user record.
type UserPatch struct {
	Name   *string
	Phone  *string
	Role   *string
	Status *string
}

// UpdateUser applies an admin patch.
func (s *Service) UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error) {
	user, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		user.Name = name
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if !phonePattern.MatchString(phone) {
			return nil, fmt.Errorf("%w: %s is not a valid phone number", ErrInvalidInput, phone)
		}
		user.Phone = phone
	}
	if patch.Role != nil {
		role, err := ParseRole(*patch.Role)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	if patch.Status != nil {
		switch Status(*patch.Status) {
		case StatusActive, StatusInactive:
			user.Status = Status(*patch.Status)
		default:
			return nil, fmt.Errorf("%w: status must be active or inactive", ErrInvalidInput)
		}
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser tombstones an account (admin surface).
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.store.Find(ctx, id); err != nil {
		return err
	}
	return s.store.MarkDeleted(ctx, id, s.now().UTC())
}

// issueOneTimeToken writes a fresh token hash and expiry to the user record,
// replacing any outstanding token of either purpose, and returns the
// plaintext for out-of-band delivery.
func (s *Service) issueOneTimeToken(ctx context.Context, user *User) (string, error) {
	plain, hash, err := newOneTimeToken()
	if err != nil {
		return "", err
	}
	user.OneTimeTokenHash = hash
	user.OneTimeTokenExpiresAt = s.now().UTC().Add(s.oneTimeTTL)
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, user); err != nil {
		return "", err
	}
	return plain, nil
}

// consumeOneTimeToken resolves and clears a one-time token: single use.
func (s *Service) consumeOneTimeToken(ctx context.Context, plain string) (*User, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, ErrTokenExpiredOrInvalid
	}
	now := s.now().UTC()
	user, err := s.store.FindByOneTimeTokenHash(ctx, hashOneTimeToken(plain), now)
	if err != nil {
		return nil, ErrTokenExpiredOrInvalid
	}
	if !compareOneTimeHash(user.OneTimeTokenHash, plain) || now.After(user.OneTimeTokenExpiresAt) {
		return nil, ErrTokenExpiredOrInvalid
	}
	user.OneTimeTokenHash = ""
	user.OneTimeTokenExpiresAt = time.Time{}
	return user, nil
}

// sendOrClearToken delivers a token-bearing email; on failure the freshly
// issued token is cleared so the failed delivery leaves no live secret.
func (s *Service) sendOrClearToken(ctx context.Context, user *User, msg notify.Message) error {
	if err := s.notifier.Send(ctx, msg); err != nil {
		user.OneTimeTokenHash = ""
		user.OneTimeTokenExpiresAt = time.Time{}
		if updateErr := s.store.Update(ctx, user); updateErr != nil {
			obs.Logger().Error("failed to clear one-time token", zap.String("user_id", user.ID), zap.Error(updateErr))
		}
		return err
	}
	return nil
}

// setPassword hashes the new password and stamps the invalidation timestamp.
// This is the only path that changes a password.
func (s *Service) setPassword(user *User, plaintext string) error {
	hash, err := HashPassword(plaintext)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = s.now().UTC()
	user.UpdatedAt = user.PasswordChangedAt
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: please enter a valid email", ErrInvalidInput)
	}
	return email, nil
}
