package workflows

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PolarWolf314/sealnote/internal/configs"
	kerrors "github.com/PolarWolf314/sealnote/internal/errors"
)

// Setting names accepted by SetConfig.
const (
	SettingIdleTimeout = "idle-timeout"
	SettingKeyProperty = "key-property"
)

// SettingNames lists the settings SetConfig understands.
var SettingNames = []string{SettingIdleTimeout, SettingKeyProperty}

// SetConfigOptions configures the set-config workflow.
type SetConfigOptions struct {
	Name  string
	Value string
}

// SetConfig changes one scalar setting and saves it.
//
// Returns ErrUnknownSetting for a name not in SettingNames.
// Returns ErrInvalidSettings if the value is not acceptable.
func SetConfig(ctx context.Context, svc KeyService, opts SetConfigOptions) (*configs.Settings, error) {
	var apply func(*configs.Settings)

	switch strings.ToLower(opts.Name) {
	case SettingIdleTimeout:
		seconds, err := strconv.Atoi(strings.TrimSpace(opts.Value))
		if err != nil || seconds < 0 {
			return nil, fmt.Errorf("%w: idle timeout must be a whole number of seconds, got %q", kerrors.ErrInvalidSettings, opts.Value)
		}
		apply = func(s *configs.Settings) { s.IdleTimeout = seconds }
	case SettingKeyProperty:
		prop := strings.TrimSpace(opts.Value)
		apply = func(s *configs.Settings) { s.KeyIDProperty = prop }
	default:
		return nil, fmt.Errorf("%w: %q (expected one of %s)", kerrors.ErrUnknownSetting, opts.Name, strings.Join(SettingNames, ", "))
	}

	if err := svc.UpdateSettings(apply); err != nil {
		return nil, err
	}
	return svc.Settings(), nil
}
