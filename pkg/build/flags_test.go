// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

// ldflags mirrors the link-time variables so tests can set them in one go.
type ldflags struct {
	name, time, commit, version string
}

func (f ldflags) apply() {
	buildName, buildTime, buildCommit, buildVersion = f.name, f.time, f.commit, f.version
}

func TestMain(m *testing.M) {
	saved := ldflags{buildName, buildTime, buildCommit, buildVersion}
	savedInfo := *buildFlags

	code := m.Run()

	saved.apply()
	*buildFlags = savedInfo
	os.Exit(code)
}

func TestInitialize(t *testing.T) {
	complete := ldflags{"waveform", "2025-04-13", "abcdef123", "v1.0.0"}

	tests := []struct {
		name    string
		mutate  func(*ldflags)
		wantErr string
	}{
		{"missing name", func(f *ldflags) { f.name = "" }, "BuildName is required"},
		{"missing time", func(f *ldflags) { f.time = "" }, "BuildTime is required"},
		{"missing commit", func(f *ldflags) { f.commit = "" }, "BuildCommit is required"},
		{"missing version", func(f *ldflags) { f.version = "" }, "BuildVersion is required"},
		{"name reported before version", func(f *ldflags) { f.name, f.version = "", "" }, "BuildName is required"},
		{"complete", func(*ldflags) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildFlags = defaultInfo()
			flags := complete
			tt.mutate(&flags)
			flags.apply()

			err := Initialize()
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("Initialize() = %v, want %q", err, tt.wantErr)
				}
				if *GetBuildFlags() != *defaultInfo() {
					t.Errorf("failed Initialize() replaced the defaults with %+v", GetBuildFlags())
				}
				return
			}
			if err != nil {
				t.Fatalf("Initialize() unexpected error: %v", err)
			}
			want := Info{Name: flags.name, Time: flags.time, Commit: flags.commit, Version: flags.version}
			if got := *GetBuildFlags(); got != want {
				t.Errorf("GetBuildFlags() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestDefaultInfo(t *testing.T) {
	info := defaultInfo()
	if info.Name != "waveform" || info.Version != "dev" {
		t.Errorf("defaultInfo() = %+v", info)
	}
	if defaultInfo() == info {
		t.Error("defaultInfo() should return a fresh value")
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want []string
	}{
		{
			"long commit shortened",
			Info{Name: "waveform", Time: "2025-04-13", Commit: "abcdef123456", Version: "v1.0.0"},
			[]string{"waveform v1.0.0", "commit abcdef1,", "built 2025-04-13"},
		},
		{
			"short commit kept",
			Info{Name: "waveform", Time: "unknown", Commit: "abc", Version: "dev"},
			[]string{"waveform dev", "commit abc,"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.info.String()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("String() = %q, missing %q", got, want)
				}
			}
		})
	}
}
