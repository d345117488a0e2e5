package repo

import (
	"fmt"
	"regexp"

	"github.com/dimes/zprovision/model"
)

const (
	nameRegexStr    = "^[a-z0-9\\.\\-]{1,60}$"
	versionRegexStr = "^[0-9A-Za-z\\.\\-\\+]{1,60}$"
)

var (
	nameRegex    = regexp.MustCompile(nameRegexStr)
	versionRegex = regexp.MustCompile(versionRegexStr)
)

// IsValidName returns an error if the given name is not a valid group,
// artifact, bucket or table name
func IsValidName(name string) error {
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("Name %s does not match %s", name, nameRegexStr)
	}
	return nil
}

// IsValid validates a coordinate's data, e.g. ensures the names conform to
// the naming standards. A missing version is allowed since versionless
// coordinates are resolved later.
func IsValid(coordinate model.Coordinate) error {
	if !nameRegex.MatchString(coordinate.Group) {
		return fmt.Errorf("Coordinate group %s must match %s", coordinate.Group, nameRegexStr)
	}

	if !nameRegex.MatchString(coordinate.Artifact) {
		return fmt.Errorf("Coordinate artifact %s must match %s", coordinate.Artifact, nameRegexStr)
	}

	if coordinate.Classifier != "" && !nameRegex.MatchString(coordinate.Classifier) {
		return fmt.Errorf("Coordinate classifier %s must match %s", coordinate.Classifier, nameRegexStr)
	}

	if coordinate.HasVersion() && !versionRegex.MatchString(coordinate.Version) {
		return fmt.Errorf("Version %s must match %s", coordinate.Version, versionRegexStr)
	}

	return nil
}
