package profile

import (
	"github.com/pkg/errors"

	"certgen/issuer/provider"
	"certgen/pkg/helper"
)

// Profile default subject fields and issuance parameters, loaded from YAML.
// Explicit request values win over profile values.
type Profile struct {
	Subject struct {
		Country            string `yaml:"country"`
		State              string `yaml:"state"`
		Locality           string `yaml:"locality"`
		Organization       string `yaml:"organization"`
		OrganizationalUnit string `yaml:"organizational_unit"`
		Email              string `yaml:"email"`
	} `yaml:"subject"`

	KeySize      int    `yaml:"key_size"`
	ValidityDays int    `yaml:"validity_days"`
	Digest       string `yaml:"digest"`
}

func Load(name string) (*Profile, error) {
	p := &Profile{}
	if err := helper.ReadYAMLFile(name, p); err != nil {
		return nil, errors.Wrapf(err, "fail to load profile %s", name)
	}

	return p, nil
}

// Apply fill unset request fields from the profile
func (p *Profile) Apply(req *provider.CreateRequest) {
	setStr := func(target *string, value string) {
		if *target == "" && value != "" {
			*target = value
		}
	}
	setInt := func(target *int, value int) {
		if *target == 0 && value != 0 {
			*target = value
		}
	}

	setStr(&req.Country, p.Subject.Country)
	setStr(&req.Province, p.Subject.State)
	setStr(&req.Locality, p.Subject.Locality)
	setStr(&req.Organization, p.Subject.Organization)
	setStr(&req.OrganizationalUnit, p.Subject.OrganizationalUnit)
	setStr(&req.Email, p.Subject.Email)

	setInt(&req.KeySize, p.KeySize)
	setInt(&req.ValidityDays, p.ValidityDays)
	setStr(&req.Digest, p.Digest)
}
