package intern

import "github.com/etnz/dpkgdb/dpkgerr"

// ParseWant parses the first token of a "Status:" field.
func ParseWant(s string) (Want, error) {
	switch s {
	case "unknown":
		return WantUnknown, nil
	case "install":
		return WantInstall, nil
	case "hold":
		return WantHold, nil
	case "deinstall":
		return WantDeinstall, nil
	case "purge":
		return WantPurge, nil
	default:
		return 0, dpkgerr.New(dpkgerr.ParseError, "unknown want value %q", s).WithContext("ParseWant")
	}
}

// ParseEFlag parses the second token of a "Status:" field.
func ParseEFlag(s string) (EFlag, error) {
	switch s {
	case "ok":
		return EFlagOk, nil
	case "reinstreq":
		return EFlagReinstreq, nil
	default:
		return 0, dpkgerr.New(dpkgerr.ParseError, "unknown error-flag value %q", s).WithContext("ParseEFlag")
	}
}

func (e EFlag) String() string {
	if e&EFlagReinstreq != 0 {
		return "reinstreq"
	}
	return "ok"
}

// ParseStatus parses the third token of a "Status:" field.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "not-installed":
		return StatNotInstalled, nil
	case "config-files":
		return StatConfigFiles, nil
	case "half-installed":
		return StatHalfInstalled, nil
	case "unpacked":
		return StatUnpacked, nil
	case "half-configured":
		return StatHalfConfigured, nil
	case "triggers-awaited":
		return StatTriggersAwaited, nil
	case "triggers-pending":
		return StatTriggersPending, nil
	case "installed":
		return StatInstalled, nil
	default:
		return 0, dpkgerr.New(dpkgerr.ParseError, "unknown status value %q", s).WithContext("ParseStatus")
	}
}

func (p Priority) String() string {
	switch p {
	case PriRequired:
		return "required"
	case PriImportant:
		return "important"
	case PriStandard:
		return "standard"
	case PriOptional:
		return "optional"
	case PriExtra:
		return "extra"
	case PriOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParsePriority parses the "Priority:" field. Unrecognized values are
// preserved verbatim in OtherPriority by the caller, matching dpkg's
// pri_other fallback.
func ParsePriority(s string) Priority {
	switch s {
	case "required":
		return PriRequired
	case "important":
		return PriImportant
	case "standard":
		return PriStandard
	case "optional":
		return PriOptional
	case "extra":
		return PriExtra
	case "unknown":
		return PriUnknown
	default:
		return PriOther
	}
}
