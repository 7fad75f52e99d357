package config

import (
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// normalize canonicalizes enumerated fields in place. Empty values are left
// for applyDefaults; unknown values are validation errors.
func normalize(c *Config) error {
	profile, err := profileNormalizer.NormalizeWithError(string(c.Build.Profile))
	if err != nil {
		return invalidEnum("build.profile", err)
	}
	c.Build.Profile = profile

	level, err := logLevelNormalizer.NormalizeWithError(string(c.Logging.Level))
	if err != nil {
		return invalidEnum("logging.level", err)
	}
	c.Logging.Level = level

	format, err := logFormatNormalizer.NormalizeWithError(string(c.Logging.Format))
	if err != nil {
		return invalidEnum("logging.format", err)
	}
	c.Logging.Format = format
	return nil
}

func invalidEnum(field string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid configuration value").
		WithContext("field", field).
		Build()
}

// NormalizeProfile canonicalizes a profile name given outside the config
// file, such as a command-line override.
func NormalizeProfile(raw string) (Profile, error) {
	p, err := profileNormalizer.NormalizeWithError(raw)
	if err != nil {
		return "", invalidEnum("profile", err)
	}
	return p, nil
}
