package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/storage"
)

// LoginDetails is the payload of the interactive and device login calls.
type LoginDetails struct {
	SystemID             string `json:"systemId"`
	UserName             string `json:"userName"`
	Password             string `json:"password"`
	MainDiskSerialNumber string `json:"mainDiskSerialNumber"`
	VersionNumber        string `json:"versionNumber"`
	IPAddress            string `json:"ipAddress"`
	MacAddress           string `json:"macAddress"`
	CPUID                string `json:"cpuId"`
}

// Reduced returns a copy without user name and password, which is the only
// form ever written to storage.
func (d LoginDetails) Reduced() LoginDetails {
	d.UserName = ""
	d.Password = ""
	return d
}

// LoginDetailsStore persists the reduced login details, the auto-login
// preference and the last used system id.
type LoginDetailsStore struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewLoginDetailsStore creates a LoginDetailsStore backed by st.
func NewLoginDetailsStore(st storage.Storage, l *slog.Logger) *LoginDetailsStore {
	if l == nil {
		l = defaultLogger()
	}
	return &LoginDetailsStore{storage: st, logger: l.With(logger.Component("login_details"))}
}

// Load returns the stored reduced details. Missing or corrupted data reads as
// none.
func (s *LoginDetailsStore) Load(ctx context.Context) (*LoginDetails, bool) {
	data, err := s.storage.Get(ctx, storage.KeyLoginDetails)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to read login details", logger.Error(err))
		}
		return nil, false
	}

	var d *LoginDetails
	if err := json.Unmarshal(data, &d); err != nil || d == nil {
		s.logger.WarnContext(ctx, "stored login details are corrupted",
			logger.Error(errors.Join(storage.ErrCorrupted, err)))
		return nil, false
	}
	return d, true
}

// Remember stores the reduced form of d together with the auto-login
// preference.
func (s *LoginDetailsStore) Remember(ctx context.Context, d LoginDetails, autoLogin bool) error {
	data, err := json.Marshal(d.Reduced())
	if err != nil {
		return errors.Join(storage.ErrWriteFailed, err)
	}

	var errs []error
	if err := s.storage.Set(ctx, storage.KeyLoginDetails, data); err != nil {
		errs = append(errs, err)
	}
	if err := s.storage.Set(ctx, storage.KeyAutoLogin, []byte(strconv.FormatBool(autoLogin))); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{storage.ErrWriteFailed}, errs...)...)
	}
	return nil
}

// AutoLogin reports the stored auto-login preference. It defaults to false.
func (s *LoginDetailsStore) AutoLogin(ctx context.Context) bool {
	data, err := s.storage.Get(ctx, storage.KeyAutoLogin)
	if err != nil {
		return false
	}
	v, err := strconv.ParseBool(string(data))
	return err == nil && v
}

// SystemID returns the last used system id or "".
func (s *LoginDetailsStore) SystemID(ctx context.Context) string {
	data, err := s.storage.Get(ctx, storage.KeySystemID)
	if err != nil {
		return ""
	}
	return string(data)
}

// SetSystemID stores the system id used to prefill the login form.
func (s *LoginDetailsStore) SetSystemID(ctx context.Context, id string) error {
	if id == "" {
		return s.storage.Delete(ctx, storage.KeySystemID)
	}
	return s.storage.Set(ctx, storage.KeySystemID, []byte(id))
}

// Forget removes the reduced details and the auto-login preference.
func (s *LoginDetailsStore) Forget(ctx context.Context) error {
	return errors.Join(
		s.storage.Delete(ctx, storage.KeyLoginDetails),
		s.storage.Delete(ctx, storage.KeyAutoLogin),
	)
}
