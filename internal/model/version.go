package model

import (
	"encoding/json"
	"fmt"
)

// VersionDescriptor is one launchable build as described by a version JSON
// file. Mod-loader variants are partial descriptors that point at their base
// release through InheritsFrom; the version resolver merges them into a
// self-contained descriptor before launch.
type VersionDescriptor struct {
	ID                 string         `json:"id"`
	InheritsFrom       string         `json:"inheritsFrom,omitempty"`
	Type               string         `json:"type,omitempty"`
	MainClass          string         `json:"mainClass,omitempty"`
	Libraries          []Library      `json:"libraries,omitempty"`
	AssetIndex         *AssetIndexRef `json:"assetIndex,omitempty"`
	Assets             string         `json:"assets,omitempty"`
	Downloads          *Downloads     `json:"downloads,omitempty"`
	MinecraftArguments string         `json:"minecraftArguments,omitempty"`
	Arguments          *Arguments     `json:"arguments,omitempty"`
	JavaVersion        *JavaVersion   `json:"javaVersion,omitempty"`
}

// Complete reports whether the descriptor carries everything a launch needs.
// Partial (unmerged) loader descriptors are not complete.
func (v *VersionDescriptor) Complete() bool {
	return v.InheritsFrom == "" && v.MainClass != "" && v.Downloads != nil && v.AssetIndex != nil
}

// Downloads holds the main game artifacts.
type Downloads struct {
	Client *Artifact `json:"client,omitempty"`
	Server *Artifact `json:"server,omitempty"`
}

// Artifact is a single downloadable file with its integrity digest.
type Artifact struct {
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url"`
}

// AssetIndexRef points at the asset index file for a version.
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1,omitempty"`
	Size      int64  `json:"size,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
	URL       string `json:"url"`
}

// Library is a named dependency of a version. Name is a Maven coordinate;
// Downloads, when present, carries explicit artifacts including per-OS
// native classifiers. URL is a repository hint used by loader descriptors
// that ship coordinates only.
type Library struct {
	Name      string            `json:"name"`
	URL       string            `json:"url,omitempty"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
}

// LibraryDownloads holds the main artifact and any platform-specific
// classifier artifacts of a library.
type LibraryDownloads struct {
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

// Rule is one (action, condition) pair gating a library or argument.
// Action is "allow" or "disallow"; an absent condition matches everywhere.
type Rule struct {
	Action   string          `json:"action"`
	OS       *OSRule         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// OSRule matches an operating system by name, version regex, and/or arch.
type OSRule struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

// JavaVersion declares the runtime a version requires.
type JavaVersion struct {
	Component    string `json:"component,omitempty"`
	MajorVersion int    `json:"majorVersion"`
}

// Arguments is the structured argument template introduced with the 1.13
// manifest format. Each category is an ordered list of entries.
type Arguments struct {
	Game []Argument `json:"game,omitempty"`
	JVM  []Argument `json:"jvm,omitempty"`
}

// Argument is one template entry: either a plain string or a conditional
// object carrying rules plus a string or array value. Both forms decode into
// the same shape; a plain string has no rules and a single value.
type Argument struct {
	Values []string
	Rules  []Rule
}

func (a *Argument) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Values = []string{s}
		a.Rules = nil
		return nil
	}

	var obj struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding argument entry: %w", err)
	}
	a.Rules = obj.Rules

	var v string
	if err := json.Unmarshal(obj.Value, &v); err == nil {
		a.Values = []string{v}
		return nil
	}
	var vs []string
	if err := json.Unmarshal(obj.Value, &vs); err != nil {
		return fmt.Errorf("decoding argument value: %w", err)
	}
	a.Values = vs
	return nil
}

func (a Argument) MarshalJSON() ([]byte, error) {
	if a.Rules == nil && len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}
	obj := struct {
		Rules []Rule   `json:"rules,omitempty"`
		Value []string `json:"value"`
	}{Rules: a.Rules, Value: a.Values}
	return json.Marshal(obj)
}
