package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/cadence/adapter/cli/clitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestShowCmd_Defaults(t *testing.T) {
	clitest.NewApp(t)

	out, err := clitest.Run(t, showCmd, nil)

	require.NoError(t, err)
	assert.Contains(t, out, "working_hours:")
	assert.Contains(t, out, "09:00")
}

func TestShowCmd_JSON(t *testing.T) {
	clitest.NewApp(t)

	out, err := clitest.Run(t, showCmd, map[string]string{"json": "true"})

	require.NoError(t, err)
	assert.Contains(t, out, `"working_hours"`)
}

func TestLoadCmd_StoresPreferences(t *testing.T) {
	app := clitest.NewApp(t)
	path := writeFile(t, "working_hours:\n  start: \"07:30\"\n  end: \"15:30\"\n")

	out, err := clitest.Run(t, loadCmd, nil, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Preferences loaded")
	assert.Contains(t, out, "Schedule rebuilt.")

	prefs, err := app.UserPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "07:30", prefs.WorkingHours.Start)
	assert.Equal(t, "15:30", prefs.WorkingHours.End)
}

func TestLoadCmd_RejectsUnknownKeys(t *testing.T) {
	clitest.NewApp(t)
	path := writeFile(t, "lunch_break: true\n")

	_, err := clitest.Run(t, loadCmd, nil, path)

	assert.Error(t, err)
}

func TestLoadCmd_RejectsInvertedHours(t *testing.T) {
	clitest.NewApp(t)
	path := writeFile(t, "working_hours:\n  start: \"18:00\"\n  end: \"09:00\"\n")

	_, err := clitest.Run(t, loadCmd, nil, path)

	assert.Error(t, err)
}

func TestResetCmd(t *testing.T) {
	app := clitest.NewApp(t)
	path := writeFile(t, "working_hours:\n  start: \"10:00\"\n  end: \"14:00\"\n")
	_, err := clitest.Run(t, loadCmd, nil, path)
	require.NoError(t, err)

	_, err = clitest.Run(t, resetCmd, nil)
	require.NoError(t, err)

	prefs, err := app.UserPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "09:00", prefs.WorkingHours.Start)
}
