package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMain(m *testing.M) {
	tempHome, err := os.MkdirTemp("", "skilltrigger-cmd-test-")
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = os.RemoveAll(tempHome)
	}()

	setEnvOrPanic := func(key, value string) {
		if err := os.Setenv(key, value); err != nil {
			panic(err)
		}
	}

	setEnvOrPanic("HOME", tempHome)
	setEnvOrPanic("SKILLTRIGGER_HOME", filepath.Join(tempHome, ".skilltrigger"))

	skillsPath := filepath.Join(tempHome, "skills")
	_ = os.MkdirAll(skillsPath, 0o750)
	setEnvOrPanic("SKILLTRIGGER_REPOSITORY_PATHS", skillsPath)
	setEnvOrPanic("SKILLTRIGGER_PLUGINS_ENABLED", "false")

	os.Exit(m.Run())
}
