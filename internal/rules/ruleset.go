package rules

import (
	"regexp"

	"github.com/farebridge/agency-booking/internal/gds"
	"github.com/farebridge/agency-booking/internal/models"
)

// VisaNone is the sentinel the frontend sends when no visa type is picked.
const VisaNone = "none"

// Ruleset is the per-trip table of mandatory passenger fields derived from
// the upstream checklist, or the default when none is available.
type Ruleset struct {
	PassportRequired    bool   `json:"passportRequired"`
	ExpiryRequired      bool   `json:"expiryRequired"`
	DOBRequired         bool   `json:"dobRequired"`
	NationalityRequired bool   `json:"nationalityRequired"`
	VisaRequired        bool   `json:"visaRequired"`
	TitleRequired       bool   `json:"titleRequired"`
	FirstNameError      string `json:"firstNameError,omitempty"`
	LastNameError       string `json:"lastNameError,omitempty"`
}

// Default is the ruleset applied when no checklist is available: DOB and
// passport number required, expiry/nationality/visa optional.
func Default() Ruleset {
	return Ruleset{
		DOBRequired:      true,
		PassportRequired: true,
	}
}

// BuildRuleset derives the ruleset from a checklist response. A nil or empty
// response falls back to the default; checklist flag value "1" means required.
func BuildRuleset(resp *gds.TravelCheckListResponse) Ruleset {
	if resp == nil || len(resp.TravellerCheckList) == 0 {
		return Default()
	}

	item := resp.TravellerCheckList[0]
	rs := Ruleset{
		PassportRequired:    item.PassportNo == "1",
		ExpiryRequired:      item.PDOE == "1",
		DOBRequired:         item.DOB == "1",
		NationalityRequired: item.Nationality == "1",
		VisaRequired:        item.VisaType == "1",
	}

	if len(resp.FnuLnuSettings) > 0 {
		fl := resp.FnuLnuSettings[0]
		rs.FirstNameError = fl.FirstNameErrorMsg
		rs.LastNameError = fl.LastNameErrorMsg
		rs.TitleRequired = fl.IsTitleMandatory
	}
	return rs
}

var (
	alphaRe  = regexp.MustCompile(`^[A-Za-z ]+$`)
	emailRe  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`)
	digitsRe = regexp.MustCompile(`^[0-9]+$`)
)

// Validate checks every passenger independently against the ruleset, plus
// the contact fields. Pure and synchronous; no I/O.
func Validate(passengers []models.PassengerRecord, contact models.ContactInfo, rs Ruleset) models.ValidationErrors {
	errs := models.ValidationErrors{}

	add := func(id int, field, msg string) {
		if errs.Fields == nil {
			errs.Fields = make(map[int]map[string]string)
		}
		if errs.Fields[id] == nil {
			errs.Fields[id] = make(map[string]string)
		}
		errs.Fields[id][field] = msg
	}

	for _, p := range passengers {
		firstNameMsg := rs.FirstNameError
		if firstNameMsg == "" {
			firstNameMsg = "first name is required"
		}
		lastNameMsg := rs.LastNameError
		if lastNameMsg == "" {
			lastNameMsg = "last name is required"
		}

		if p.FirstName == "" || !alphaRe.MatchString(p.FirstName) {
			add(p.ID, "firstName", firstNameMsg)
		}
		if p.LastName == "" || !alphaRe.MatchString(p.LastName) {
			add(p.ID, "lastName", lastNameMsg)
		}
		if rs.TitleRequired && p.Title == "" {
			add(p.ID, "title", "title is required")
		}
		if rs.DOBRequired && p.DOB == "" {
			add(p.ID, "dob", "date of birth is required")
		}
		if rs.PassportRequired && p.PassportNo == "" {
			add(p.ID, "passportNo", "passport number is required")
		}
		if rs.ExpiryRequired && p.PassportExpiry == "" {
			add(p.ID, "passportExpiry", "passport expiry is required")
		}
		if rs.NationalityRequired && p.Nationality == "" {
			add(p.ID, "nationality", "nationality is required")
		}
		if rs.VisaRequired && (p.VisaType == "" || p.VisaType == VisaNone) {
			add(p.ID, "visaType", "visa type is required")
		}
	}

	contactErrs := make(map[string]string)
	if contact.Email == "" {
		contactErrs["email"] = "email is required"
	} else if !emailRe.MatchString(contact.Email) {
		contactErrs["email"] = "email is invalid"
	}
	if contact.Phone == "" {
		contactErrs["phone"] = "phone is required"
	} else if !digitsRe.MatchString(contact.Phone) {
		contactErrs["phone"] = "phone must contain only digits"
	}
	if len(contactErrs) > 0 {
		errs.Contact = contactErrs
	}

	return errs
}
