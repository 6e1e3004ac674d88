package cmd

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCommandStructure(t *testing.T) {
	assert.NotNil(t, versionCmd)
	assert.Equal(t, "version", versionCmd.Use)
	assert.NotEmpty(t, versionCmd.Short)
	assert.NotEmpty(t, versionCmd.Long)
	assert.NotNil(t, versionCmd.Run)
}

func TestRunVersion(t *testing.T) {
	originalVersion := Version
	originalCommit := Commit
	defer func() {
		Version = originalVersion
		Commit = originalCommit
	}()

	tests := []struct {
		name         string
		version      string
		commit       string
		wantInOutput []string
	}{
		{
			name:    "dev version",
			version: "0.0.1-dev",
			commit:  "unknown",
			wantInOutput: []string{
				"questexport version 0.0.1-dev",
				"Commit: unknown",
				"Go version:",
				"OS/Arch:",
			},
		},
		{
			name:    "release version",
			version: "1.0.0",
			commit:  "abc123def456",
			wantInOutput: []string{
				"questexport version 1.0.0",
				"Commit: abc123def456",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestEnv(t, testFixture)
			Version = tt.version
			Commit = tt.commit

			var buf bytes.Buffer
			versionCmd.SetOut(&buf)
			defer versionCmd.SetOut(nil)

			runVersion(versionCmd, []string{})

			output := buf.String()
			for _, want := range tt.wantInOutput {
				assert.Contains(t, output, want)
			}
		})
	}
}

func TestVersionOutputFormat(t *testing.T) {
	newTestEnv(t, testFixture)

	originalVersion := Version
	originalCommit := Commit
	defer func() {
		Version = originalVersion
		Commit = originalCommit
	}()

	Version = "1.2.3"
	Commit = "abc123"

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	runVersion(versionCmd, []string{})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 6)

	assert.Contains(t, string(lines[0]), "questexport version 1.2.3")
	assert.Contains(t, string(lines[1]), "Commit: abc123")
	assert.Contains(t, string(lines[2]), runtime.Version())
	assert.Contains(t, string(lines[3]), runtime.GOOS+"/"+runtime.GOARCH)
	assert.Contains(t, string(lines[4]), "Plugin: OBRQuestCompanion by dbsmedya")
	assert.Contains(t, string(lines[5]), "Runtime: 0.411.140.0 - 0.411.140.0 (strict: true)")
}
