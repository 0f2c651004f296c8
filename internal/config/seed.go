package config

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/okian/mergington/internal/domain/model"
)

// seedDelim separates nested keys. Activity names may contain dots, so the
// usual "." cannot be used.
const seedDelim = "::"

// DefaultSeed is the built-in activity seed.
//
//go:embed seed/activities.yaml
var DefaultSeed []byte

// LoadSeed reads the activity seed from path, or the built-in seed when path
// is empty. The document has a single top-level "activities" map keyed by
// activity name.
func LoadSeed(_ context.Context, path string) (model.Directory, error) {
	k := koanf.New(seedDelim)

	var provider koanf.Provider = rawbytes.Provider(DefaultSeed)
	source := "built-in seed"
	if path != "" {
		provider = file.Provider(path)
		source = path
	}
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadSeed, source, err)
	}

	dir := model.Directory{}
	if err := k.UnmarshalWithConf("activities", &dir, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadSeed, source, err)
	}
	if err := validateSeed(dir); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadSeed, source, err)
	}
	return dir, nil
}

func validateSeed(dir model.Directory) error {
	if len(dir) == 0 {
		return fmt.Errorf("%w: no activities defined", ErrInvalidConfig)
	}
	for name, a := range dir {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: activity with empty name", ErrInvalidConfig)
		}
		if a.MaxParticipants < 0 {
			return fmt.Errorf("%w: %q: max_participants must not be negative", ErrInvalidConfig, name)
		}
		seen := make(map[string]struct{}, len(a.Participants))
		for _, email := range a.Participants {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("%w: %q: empty participant email", ErrInvalidConfig, name)
			}
			if _, dup := seen[email]; dup {
				return fmt.Errorf("%w: %q: %s listed twice", ErrInvalidConfig, name, email)
			}
			seen[email] = struct{}{}
		}
	}
	return nil
}
