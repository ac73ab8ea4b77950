package models

import (
	"errors"
	"strings"
)

// ErrAmbiguousLibrary is returned when a library sets more than one source.
var ErrAmbiguousLibrary = errors.New("library defines more than one source")

// PyPILibrary installs a package from a python package index.
type PyPILibrary struct {
	Package string `yaml:"package"        json:"package" validate:"required"`
	Repo    string `yaml:"repo,omitempty" json:"repo,omitempty"`
}

// MavenLibrary installs maven coordinates, e.g. "org.apache.spark:spark-avro_2.12:3.5.0".
type MavenLibrary struct {
	Coordinates string   `yaml:"coordinates"          json:"coordinates" validate:"required"`
	Repo        string   `yaml:"repo,omitempty"       json:"repo,omitempty"`
	Exclusions  []string `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`
}

// CRANLibrary installs an R package from CRAN.
type CRANLibrary struct {
	Package string `yaml:"package"        json:"package" validate:"required"`
	Repo    string `yaml:"repo,omitempty" json:"repo,omitempty"`
}

// Library is a reference to a dependency installed on a task's cluster.
// Exactly one source field is set.
type Library struct {
	Jar   string        `yaml:"jar,omitempty"   json:"jar,omitempty"`
	Egg   string        `yaml:"egg,omitempty"   json:"egg,omitempty"`
	Whl   string        `yaml:"whl,omitempty"   json:"whl,omitempty"`
	PyPI  *PyPILibrary  `yaml:"pypi,omitempty"  json:"pypi,omitempty"`
	Maven *MavenLibrary `yaml:"maven,omitempty" json:"maven,omitempty"`
	CRAN  *CRANLibrary  `yaml:"cran,omitempty"  json:"cran,omitempty"`
}

// Coordinate returns the scheme-prefixed coordinate string used to
// deduplicate libraries across tasks, e.g. "pypi:requests" or
// "jar:dbfs:/libs/app.jar". Empty when no source is set.
func (l Library) Coordinate() string {
	switch {
	case l.Jar != "":
		return "jar:" + l.Jar
	case l.Egg != "":
		return "egg:" + l.Egg
	case l.Whl != "":
		return "whl:" + l.Whl
	case l.PyPI != nil:
		return "pypi:" + l.PyPI.Package
	case l.Maven != nil:
		return "maven:" + l.Maven.Coordinates
	case l.CRAN != nil:
		return "cran:" + l.CRAN.Package
	default:
		return ""
	}
}

// Check verifies the library names exactly one source with a usable
// coordinate. Malformed maven coordinates (not group:artifact[:version]) are
// rejected here rather than silently dropped downstream.
func (l Library) Check() error {
	count := 0

	for _, set := range []bool{
		l.Jar != "", l.Egg != "", l.Whl != "",
		l.PyPI != nil, l.Maven != nil, l.CRAN != nil,
	} {
		if set {
			count++
		}
	}

	if count > 1 {
		return ErrAmbiguousLibrary
	}

	if count == 0 {
		return errors.New("library defines no source")
	}

	if l.PyPI != nil && strings.TrimSpace(l.PyPI.Package) == "" {
		return errors.New("pypi library has an empty package name")
	}

	if l.CRAN != nil && strings.TrimSpace(l.CRAN.Package) == "" {
		return errors.New("cran library has an empty package name")
	}

	if l.Maven != nil {
		parts := strings.Split(l.Maven.Coordinates, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return errors.New("maven coordinates must be group:artifact[:version]")
		}

		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				return errors.New("maven coordinates contain an empty segment")
			}
		}
	}

	return nil
}
