// Package prefsfile reads user preferences from YAML.
package prefsfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/security"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the preferences file at path. Keys missing from
// the file keep their default values.
func Load(path string) (domain.UserPreferences, error) {
	data, err := security.SafeReadFile(path)
	if err != nil {
		return domain.UserPreferences{}, fmt.Errorf("read preferences file: %w", err)
	}
	prefs, err := Decode(bytes.NewReader(data))
	if err != nil {
		return domain.UserPreferences{}, fmt.Errorf("%s: %w", path, err)
	}
	return prefs, nil
}

// Decode parses YAML preferences from r, rejecting unknown keys.
func Decode(r io.Reader) (domain.UserPreferences, error) {
	prefs := domain.DefaultPreferences()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&prefs); err != nil && !errors.Is(err, io.EOF) {
		return domain.UserPreferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	if err := prefs.Validate(); err != nil {
		return domain.UserPreferences{}, err
	}
	return prefs, nil
}

// Encode writes prefs as YAML.
func Encode(w io.Writer, prefs domain.UserPreferences) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(prefs); err != nil {
		return err
	}
	return enc.Close()
}
