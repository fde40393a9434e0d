package main

import (
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// defaultProductLine is used when a firmware image name carries no
	// explicit product prefix.
	defaultProductLine = "ilo"

	// internalBuildSuffix marks internal/engineering builds that are never
	// recorded in the manifest.
	internalBuildSuffix = "j"
)

// VersionInfo identifies a firmware release within a product line.
type VersionInfo struct {
	ProductLine string
	Version     string
}

// ExtractVersion derives the product line and normalized version from the
// filename of an extracted firmware image, e.g. "ILO4_250.bin" yields
// {ilo4, 2.50}. The second return value is false for internal builds
// (version suffix "j"), which callers must exclude from the manifest.
func ExtractVersion(fileName string) (VersionInfo, bool) {
	stem := strings.ToLower(fileName)
	stem = strings.TrimSuffix(stem, filepath.Ext(stem))

	var product, digits string
	if before, after, found := strings.Cut(stem, "_"); found {
		product, digits = before, after
	} else {
		product = defaultProductLine
		digits = strings.ReplaceAll(stem, defaultProductLine, "")
	}

	version := normalizeVersion(digits)
	if strings.HasSuffix(version, internalBuildSuffix) {
		return VersionInfo{}, false
	}
	return VersionInfo{ProductLine: product, Version: version}, true
}

// normalizeVersion turns a run of version digits into dotted form: the
// first character, a dot, then the rest verbatim ("250" becomes "2.50").
func normalizeVersion(digits string) string {
	if len(digits) < 2 {
		return digits
	}
	return digits[:1] + "." + digits[1:]
}

// versionNewer reports whether a is strictly newer than b. The comparison
// is plain string ordering on the normalized dotted form; the manifest has
// always been written with this ordering, and changing it would flip which
// recorded version a previously persisted latest pointer considers newest.
func versionNewer(a, b string) bool {
	return a > b
}

// versionOrderSuspect reports whether the string ordering of a and b
// disagrees with their semantic version ordering, as happens with
// multi-digit segments ("2.9" sorts above "2.10"). Callers log the
// disagreement so misordered latest pointers are visible to operators.
func versionOrderSuspect(a, b string) bool {
	av, err := semver.NewVersion(a)
	if err != nil {
		return false
	}
	bv, err := semver.NewVersion(b)
	if err != nil {
		return false
	}
	return (a > b) != av.GreaterThan(bv)
}
